// Package bot connects the invite tracker and room manager to the Discord gateway.
//
// discordgo dispatches every event on its own goroutine. Each handler runs under a
// fresh context carrying a correlation id and the configured event timeout; errors and
// panics stop at the handler and are logged, never propagated to the session.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/onnwee/invite-rooms/fault"
	"github.com/onnwee/invite-rooms/invites"
	"github.com/onnwee/invite-rooms/present"
	"github.com/onnwee/invite-rooms/rooms"
	"github.com/onnwee/invite-rooms/telemetry"
)

// Intents are the gateway intents the handlers rely on. Guild members is privileged
// and must be enabled for the application.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildInvites |
	discordgo.IntentsGuildVoiceStates

// Options configures the bot.
type Options struct {
	// PanelChannelID receives the room panel on Ready. Empty disables the panel.
	PanelChannelID string
	// CommandGuildID scopes slash command registration. Empty registers globally.
	CommandGuildID string
	EventTimeout   time.Duration
}

// Bot owns the gateway session and its handlers.
type Bot struct {
	s       *discordgo.Session
	tracker *invites.Tracker
	ledger  *invites.Ledger
	rooms   *rooms.Manager
	view    *present.Builder
	poster  *Poster
	opts    Options

	base context.Context
}

// New wires a Bot. Call Run to connect.
func New(s *discordgo.Session, tracker *invites.Tracker, ledger *invites.Ledger, mgr *rooms.Manager, view *present.Builder, poster *Poster, opts Options) *Bot {
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = 15 * time.Second
	}
	return &Bot{
		s:       s,
		tracker: tracker,
		ledger:  ledger,
		rooms:   mgr,
		view:    view,
		poster:  poster,
		opts:    opts,
		base:    context.Background(),
	}
}

// Run opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.base = ctx
	b.s.Identify.Intents = Intents
	for _, remove := range []func(){
		b.s.AddHandler(b.onReady),
		b.s.AddHandler(b.onConnect),
		b.s.AddHandler(b.onDisconnect),
		b.s.AddHandler(b.onGuildCreate),
		b.s.AddHandler(b.onGuildDelete),
		b.s.AddHandler(b.onMemberAdd),
		b.s.AddHandler(b.onMemberRemove),
		b.s.AddHandler(b.onInviteCreate),
		b.s.AddHandler(b.onInviteDelete),
		b.s.AddHandler(b.onChannelDelete),
		b.s.AddHandler(b.onInteraction),
	} {
		defer remove()
	}

	if err := b.s.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	slog.Info("discord gateway connected", slog.String("component", "bot"))
	<-ctx.Done()
	telemetry.SetGatewayUp(false)
	if err := b.s.Close(); err != nil {
		return fmt.Errorf("close discord gateway: %w", err)
	}
	return nil
}

// handle runs fn under the handler boundary: timeout, correlation id, span, duration
// metric and panic recovery.
func (b *Bot) handle(event string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(b.base, b.opts.EventTimeout)
	defer cancel()
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	ctx, span := telemetry.StartSpan(ctx, "bot", "bot."+event)
	defer span.End()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "bot"), slog.String("event", event))

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			telemetry.RecordError(span, fmt.Errorf("panic: %v", r))
		}
		telemetry.HandlerDuration.WithLabelValues(event).Observe(time.Since(start).Seconds())
	}()

	if err := fn(ctx); err != nil {
		telemetry.RecordError(span, err)
		if fault.IsUpstream(err) {
			log.Error("handler failed", slog.Any("err", err))
		} else {
			log.Info("handler rejected", slog.String("class", fault.Classify(err).String()), slog.Any("err", err))
		}
		return
	}
	telemetry.SetSpanSuccess(span)
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	telemetry.SetGatewayUp(true)
	b.handle("ready", func(ctx context.Context) error {
		slog.Info("discord ready", slog.String("user", userTag(r.User)), slog.Int("guilds", len(r.Guilds)))
		if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, b.opts.CommandGuildID, b.commands(), discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("register commands: %w", err)
		}
		if b.opts.PanelChannelID == "" {
			return nil
		}
		return b.poster.PostPanel(ctx, b.opts.PanelChannelID)
	})
}

func (b *Bot) onConnect(_ *discordgo.Session, _ *discordgo.Connect) {
	telemetry.SetGatewayUp(true)
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	telemetry.SetGatewayUp(false)
	slog.Warn("discord gateway disconnected", slog.String("component", "bot"))
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.handle("guild_create", func(ctx context.Context) error {
		return b.tracker.Prime(ctx, g.ID)
	})
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	// Unavailable means an outage, not a removal.
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.handle("guild_delete", func(ctx context.Context) error {
		b.tracker.GuildRemoved(g.ID)
		return nil
	})
}

func (b *Bot) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil {
		return
	}
	b.handle("member_add", func(ctx context.Context) error {
		_, err := b.tracker.HandleJoin(ctx, m.GuildID, b.guildName(m.GuildID), toMember(m.User))
		return err
	})
}

func (b *Bot) onMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.Member == nil || m.User == nil {
		return
	}
	b.handle("member_remove", func(ctx context.Context) error {
		_, _, err := b.tracker.HandleLeave(ctx, m.GuildID, b.guildName(m.GuildID), toMember(m.User))
		return err
	})
}

func (b *Bot) onInviteCreate(_ *discordgo.Session, e *discordgo.InviteCreate) {
	if e.Invite == nil {
		return
	}
	b.handle("invite_create", func(ctx context.Context) error {
		return b.tracker.InviteCreated(ctx, e.GuildID, e.Code, e.Uses)
	})
}

func (b *Bot) onInviteDelete(_ *discordgo.Session, e *discordgo.InviteDelete) {
	b.handle("invite_delete", func(ctx context.Context) error {
		return b.tracker.InviteDeleted(ctx, e.GuildID, e.Code)
	})
}

func (b *Bot) onChannelDelete(_ *discordgo.Session, e *discordgo.ChannelDelete) {
	if e.Channel == nil || e.Type != discordgo.ChannelTypeGuildVoice {
		return
	}
	b.handle("channel_delete", func(ctx context.Context) error {
		return b.rooms.ChannelDeleted(ctx, e.ID)
	})
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Interaction == nil {
		return
	}
	b.handle("interaction", func(ctx context.Context) error {
		if i.Type == discordgo.InteractionModalSubmit {
			return b.respondDeferred(ctx, s, i.Interaction)
		}
		resp := b.respond(ctx, i.Interaction)
		if err := s.InteractionRespond(i.Interaction, resp, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("interaction respond: %w", err)
		}
		return nil
	})
}

// respondDeferred acknowledges a form submit before doing the channel and registry
// work, then edits the acknowledgement into the result. Form submits create rooms and
// move ownership, which can outlast the three second reply window.
func (b *Bot) respondDeferred(ctx context.Context, s *discordgo.Session, i *discordgo.Interaction) error {
	if err := s.InteractionRespond(i, deferredEphemeral(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("interaction defer: %w", err)
	}
	resp := b.respond(ctx, i)
	if _, err := s.InteractionResponseEdit(i, followUpEdit(resp), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("interaction edit: %w", err)
	}
	return nil
}

func (b *Bot) guildName(guildID string) string {
	if g, err := b.s.State.Guild(guildID); err == nil && g != nil {
		return g.Name
	}
	return guildID
}

func toMember(u *discordgo.User) invites.Member {
	return invites.Member{ID: u.ID, Tag: userTag(u), AvatarURL: u.AvatarURL("128")}
}
