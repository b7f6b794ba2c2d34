package bot

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/invite-rooms/invites"
	"github.com/onnwee/invite-rooms/present"
	"github.com/onnwee/invite-rooms/rooms"
	"github.com/onnwee/invite-rooms/telemetry"
)

// panelHistory is how many recent messages are cleared before the panel is reposted.
const panelHistory = 100

// Poster sends rendered cards to channels. It is the invites.Notifier for the log
// channel and the rooms.Announcer for new rooms.
type Poster struct {
	s            *discordgo.Session
	view         *present.Builder
	logChannelID string
}

var (
	_ invites.Notifier = (*Poster)(nil)
	_ rooms.Announcer  = (*Poster)(nil)
)

// NewPoster returns a Poster. An empty logChannelID disables join/leave notices.
func NewPoster(s *discordgo.Session, view *present.Builder, logChannelID string) *Poster {
	return &Poster{s: s, view: view, logChannelID: logChannelID}
}

func (p *Poster) send(ctx context.Context, channelID string, c present.Card) error {
	_, err := p.s.ChannelMessageSendComplex(channelID, messageSend(c), discordgo.WithContext(ctx))
	return err
}

func (p *Poster) NotifyJoin(ctx context.Context, n invites.JoinNotice) error {
	if p.logChannelID == "" {
		return nil
	}
	return p.send(ctx, p.logChannelID, p.view.JoinNotice(n))
}

func (p *Poster) NotifyLeave(ctx context.Context, n invites.LeaveNotice) error {
	if p.logChannelID == "" {
		return nil
	}
	return p.send(ctx, p.logChannelID, p.view.LeaveNotice(n))
}

// AnnounceRoom posts the owner controls into the voice channel's text chat.
func (p *Poster) AnnounceRoom(ctx context.Context, r rooms.Room) error {
	return p.send(ctx, r.ID, p.view.RoomControls(r))
}

// PostPanel clears the channel's recent history and posts a fresh room panel. A failed
// clear is logged and the panel is posted anyway.
func (p *Poster) PostPanel(ctx context.Context, channelID string) error {
	msgs, err := p.s.ChannelMessages(channelID, panelHistory, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		telemetry.LoggerWithCorr(ctx).Warn("panel history fetch failed", slog.String("channel", channelID), slog.Any("err", err))
	} else if len(msgs) > 0 {
		ids := make([]string, 0, len(msgs))
		for _, m := range msgs {
			ids = append(ids, m.ID)
		}
		if err := p.s.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx)); err != nil {
			telemetry.LoggerWithCorr(ctx).Warn("panel history clear failed", slog.String("channel", channelID), slog.Any("err", err))
		}
	}
	return p.send(ctx, channelID, p.view.Panel())
}
