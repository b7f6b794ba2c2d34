package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/invite-rooms/invites"
	"github.com/onnwee/invite-rooms/rooms"
)

// Platform adapts a discordgo session to invites.Source and rooms.Platform.
type Platform struct {
	s *discordgo.Session
}

var (
	_ invites.Source = (*Platform)(nil)
	_ rooms.Platform = (*Platform)(nil)
)

// NewPlatform wraps an open or unopened session.
func NewPlatform(s *discordgo.Session) *Platform { return &Platform{s: s} }

// FetchInvites lists the guild's live invites. Vanity and widget invites come back with
// an empty InviterID.
func (p *Platform) FetchInvites(ctx context.Context, guildID string) ([]invites.Invite, error) {
	list, err := p.s.GuildInvites(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]invites.Invite, 0, len(list))
	for _, inv := range list {
		if inv == nil {
			continue
		}
		out = append(out, toInvite(inv))
	}
	return out, nil
}

func toInvite(inv *discordgo.Invite) invites.Invite {
	out := invites.Invite{Code: inv.Code, Uses: inv.Uses}
	if inv.Inviter != nil {
		out.InviterID = inv.Inviter.ID
		out.InviterTag = userTag(inv.Inviter)
	}
	return out
}

// userTag is the username, with the legacy discriminator when the account still has one.
func userTag(u *discordgo.User) string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

func (p *Platform) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	if ch, err := p.s.State.Channel(channelID); err == nil && ch != nil {
		return true, nil
	}
	if _, err := p.s.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		if isUnknown(err, discordgo.ErrCodeUnknownChannel) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *Platform) CreateVoiceChannel(ctx context.Context, spec rooms.ChannelSpec) (string, error) {
	ch, err := p.s.GuildChannelCreateComplex(spec.GuildID, discordgo.GuildChannelCreateData{
		Name:      spec.Name,
		Type:      discordgo.ChannelTypeGuildVoice,
		UserLimit: spec.Capacity,
		ParentID:  spec.CategoryID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (p *Platform) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := p.s.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil && !isUnknown(err, discordgo.ErrCodeUnknownChannel) {
		return err
	}
	return nil
}

func (p *Platform) GrantMember(ctx context.Context, channelID, userID string, caps rooms.Capability) error {
	return p.s.ChannelPermissionSet(channelID, userID, discordgo.PermissionOverwriteTypeMember,
		permissionBits(caps), 0, discordgo.WithContext(ctx))
}

func (p *Platform) RevokeMember(ctx context.Context, channelID, userID string) error {
	err := p.s.ChannelPermissionDelete(channelID, userID, discordgo.WithContext(ctx))
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// SetMembershipConnect edits the @everyone overwrite, whose role id is the guild id.
func (p *Platform) SetMembershipConnect(ctx context.Context, guildID, channelID string, allow bool) error {
	var allowBits, denyBits int64
	if allow {
		allowBits = discordgo.PermissionVoiceConnect
	} else {
		denyBits = discordgo.PermissionVoiceConnect
	}
	return p.s.ChannelPermissionSet(channelID, guildID, discordgo.PermissionOverwriteTypeRole,
		allowBits, denyBits, discordgo.WithContext(ctx))
}

func (p *Platform) MemberExists(ctx context.Context, guildID, userID string) (bool, error) {
	if m, err := p.s.State.Member(guildID, userID); err == nil && m != nil {
		return true, nil
	}
	if _, err := p.s.GuildMember(guildID, userID, discordgo.WithContext(ctx)); err != nil {
		if isUnknown(err, discordgo.ErrCodeUnknownMember) || isUnknown(err, discordgo.ErrCodeUnknownUser) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Occupancy counts voice states in the channel from the gateway state cache.
func (p *Platform) Occupancy(_ context.Context, guildID, channelID string) (int, error) {
	g, err := p.s.State.Guild(guildID)
	if err != nil {
		return 0, fmt.Errorf("guild %s not in state: %w", guildID, err)
	}
	p.s.State.RLock()
	defer p.s.State.RUnlock()
	n := 0
	for _, vs := range g.VoiceStates {
		if vs != nil && vs.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

// permissionBits maps room capabilities to Discord permission bits.
func permissionBits(c rooms.Capability) int64 {
	var bits int64
	for _, m := range []struct {
		cap  rooms.Capability
		perm int64
	}{
		{rooms.View, discordgo.PermissionViewChannel},
		{rooms.Connect, discordgo.PermissionVoiceConnect},
		{rooms.Speak, discordgo.PermissionVoiceSpeak},
		{rooms.Manage, discordgo.PermissionManageChannels},
		{rooms.MuteOthers, discordgo.PermissionVoiceMuteMembers},
		{rooms.DeafenOthers, discordgo.PermissionVoiceDeafenMembers},
	} {
		if c.Has(m.cap) {
			bits |= m.perm
		}
	}
	return bits
}

func restError(err error) (*discordgo.RESTError, bool) {
	var re *discordgo.RESTError
	if errors.As(err, &re) && re != nil {
		return re, true
	}
	return nil, false
}

// isUnknown reports a Discord "Unknown X" JSON error code.
func isUnknown(err error, code int) bool {
	re, ok := restError(err)
	if !ok {
		return false
	}
	if re.Message != nil && re.Message.Code == code {
		return true
	}
	return false
}

func isNotFound(err error) bool {
	re, ok := restError(err)
	return ok && re.Response != nil && re.Response.StatusCode == http.StatusNotFound
}
