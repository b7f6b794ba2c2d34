package present

import (
	"fmt"

	"github.com/onnwee/invite-rooms/fault"
	"github.com/onnwee/invite-rooms/invites"
	"github.com/onnwee/invite-rooms/locale"
	"github.com/onnwee/invite-rooms/rooms"
)

// Options carries the configurable artwork and the room threshold shown on the panel.
type Options struct {
	PanelImageURL string
	RoomImageURL  string
	Threshold     int
}

// Builder produces cards and forms in the actor's locale. Guild-wide posts (panel,
// room controls, join/leave log) use the default locale.
type Builder struct {
	loc  locale.Localizer
	opts Options
}

// NewBuilder returns a Builder.
func NewBuilder(loc locale.Localizer, opts Options) *Builder {
	return &Builder{loc: loc, opts: opts}
}

// Panel is the persistent message with the create-room trigger.
func (b *Builder) Panel() Card {
	p := b.loc.DefaultPrinter()
	return Card{
		Title:       p.Sprintf("panel.title"),
		Description: p.Sprintf("panel.description", b.opts.Threshold),
		Color:       ColorGreen,
		ImageURL:    b.opts.PanelImageURL,
		Footer:      p.Sprintf("panel.footer"),
		Buttons:     []Button{{ID: PanelCreate, Label: p.Sprintf("panel.button"), Style: Primary}},
	}
}

// RoomRequestForm collects the room name and capacity.
func (b *Builder) RoomRequestForm(userLocale string) Form {
	p := b.loc.Printer(userLocale)
	return Form{
		ID:    RoomForm,
		Title: p.Sprintf("room.form.title"),
		Inputs: []Input{
			{ID: InputRoomName, Label: p.Sprintf("room.form.name"), Required: true, MinLength: 1, MaxLength: rooms.MaxNameLen},
			{ID: InputRoomCapacity, Label: p.Sprintf("room.form.capacity", rooms.MinCapacity, rooms.MaxCapacity), Required: true, MinLength: 1, MaxLength: 2},
		},
	}
}

// RoomControls is the announcement posted into a new room with its owner-only buttons.
func (b *Builder) RoomControls(r rooms.Room) Card {
	p := b.loc.DefaultPrinter()
	return Card{
		Title:       p.Sprintf("room.panel.title"),
		Description: p.Sprintf("room.panel.description", Mention(r.OwnerID)),
		Color:       ColorGreen,
		ImageURL:    b.opts.RoomImageURL,
		Footer:      p.Sprintf("panel.footer"),
		Buttons: []Button{
			{ID: RoomID(ActionLock, r.ID), Label: p.Sprintf("room.button.lock"), Style: Secondary},
			{ID: RoomID(ActionUnlock, r.ID), Label: p.Sprintf("room.button.unlock"), Style: Secondary},
			{ID: RoomID(ActionGive, r.ID), Label: p.Sprintf("room.button.give"), Style: Secondary},
			{ID: RoomID(ActionDelete, r.ID), Label: p.Sprintf("room.button.delete"), Style: Danger},
		},
	}
}

// TransferForm collects the new owner's id.
func (b *Builder) TransferForm(userLocale, roomID string) Form {
	p := b.loc.Printer(userLocale)
	return Form{
		ID:    RoomID(ActionTransfer, roomID),
		Title: p.Sprintf("transfer.form.title"),
		Inputs: []Input{{
			ID:          InputNewOwner,
			Label:       p.Sprintf("transfer.form.label"),
			Placeholder: p.Sprintf("transfer.form.placeholder"),
			Required:    true,
			MinLength:   1,
			MaxLength:   32,
		}},
	}
}

// JoinNotice is the log card for an attributed join.
func (b *Builder) JoinNotice(n invites.JoinNotice) Card {
	p := b.loc.DefaultPrinter()
	inviter := n.Invite.InviterTag
	if inviter == "" {
		inviter = Mention(n.Invite.InviterID)
	}
	return Card{
		Title:        p.Sprintf("join.title"),
		Description:  p.Sprintf("join.description", n.Member.Tag),
		Color:        ColorGreen,
		ThumbnailURL: n.Member.AvatarURL,
		Timestamp:    n.At,
		Fields: []Field{
			{Name: p.Sprintf("log.inviter"), Value: inviter, Inline: true},
			{Name: p.Sprintf("log.guild"), Value: n.GuildName, Inline: true},
			{Name: p.Sprintf("log.count"), Value: fmt.Sprint(n.Record.InviteCount), Inline: true},
		},
	}
}

// LeaveNotice is the log card for a departure that was un-credited.
func (b *Builder) LeaveNotice(n invites.LeaveNotice) Card {
	p := b.loc.DefaultPrinter()
	return Card{
		Title:        p.Sprintf("leave.title"),
		Description:  p.Sprintf("leave.description", n.Member.Tag),
		Color:        ColorRed,
		ThumbnailURL: n.Member.AvatarURL,
		Timestamp:    n.At,
		Fields: []Field{
			{Name: p.Sprintf("log.inviter"), Value: Mention(n.InviterID), Inline: true},
			{Name: p.Sprintf("log.guild"), Value: n.GuildName, Inline: true},
			{Name: p.Sprintf("log.count"), Value: fmt.Sprint(n.Record.InviteCount), Inline: true},
		},
	}
}

// InviteStats answers the invite query command.
func (b *Builder) InviteStats(userLocale string, rec invites.Record) Card {
	p := b.loc.Printer(userLocale)
	return Card{
		Title:     p.Sprintf("stats.title"),
		Color:     ColorGreen,
		Timestamp: rec.UpdatedAt,
		Fields: []Field{
			{Name: p.Sprintf("stats.user"), Value: Mention(rec.InviterID), Inline: true},
			{Name: p.Sprintf("stats.total"), Value: fmt.Sprint(rec.InviteCount), Inline: true},
		},
	}
}

// Text prints a catalog message in the actor's locale.
func (b *Builder) Text(userLocale, key string, args ...any) string {
	return b.loc.Printer(userLocale).Sprintf(key, args...)
}

// Rejection turns a handler error into the message the actor sees. Unclassified errors
// get the generic failure text.
func (b *Builder) Rejection(userLocale string, err error) string {
	key, ok := fault.MessageKey(err)
	if !ok {
		return b.Text(userLocale, "error.generic")
	}
	if key == "rooms.below_threshold" {
		return b.Text(userLocale, key, b.opts.Threshold)
	}
	return b.Text(userLocale, key)
}

// Mention formats a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}
