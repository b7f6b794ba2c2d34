package invites

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/invite-rooms/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Source fetches the live invite list of a guild.
type Source interface {
	FetchInvites(ctx context.Context, guildID string) ([]Invite, error)
}

// Member identifies the user that joined or left.
type Member struct {
	ID        string
	Tag       string
	AvatarURL string
}

// JoinNotice describes an attributed join for the log channel.
type JoinNotice struct {
	GuildID   string
	GuildName string
	Member    Member
	Invite    Invite
	Record    Record
	At        time.Time
}

// LeaveNotice describes the departure of a previously attributed member.
type LeaveNotice struct {
	GuildID   string
	GuildName string
	Member    Member
	InviterID string
	Record    Record
	At        time.Time
}

// Notifier publishes join/leave notices. Failures are logged, never propagated.
type Notifier interface {
	NotifyJoin(ctx context.Context, n JoinNotice) error
	NotifyLeave(ctx context.Context, n LeaveNotice) error
}

// Tracker runs the join and leave handling paths.
type Tracker struct {
	source    Source
	snapshots *SnapshotStore
	ledger    *Ledger
	notifier  Notifier
	now       func() time.Time
}

// NewTracker wires the attribution path. notifier may be nil.
func NewTracker(source Source, snapshots *SnapshotStore, ledger *Ledger, notifier Notifier) *Tracker {
	return &Tracker{
		source:    source,
		snapshots: snapshots,
		ledger:    ledger,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Prime rebuilds a guild's snapshot from the live invite list.
func (t *Tracker) Prime(ctx context.Context, guildID string) error {
	release, err := t.snapshots.Lock(ctx, guildID)
	if err != nil {
		return err
	}
	defer release()

	current, err := t.source.FetchInvites(ctx, guildID)
	if err != nil {
		telemetry.InviteFetchFailures.Inc()
		return fmt.Errorf("prime invites for guild %s: %w", guildID, err)
	}
	t.snapshots.Replace(guildID, SnapshotOf(current))
	telemetry.SnapshotGuilds.Set(float64(t.snapshots.Guilds()))
	telemetry.LoggerWithCorr(ctx).Info("invite snapshot primed", slog.String("guild", guildID), slog.Int("invites", len(current)))
	return nil
}

// InviteCreated records a new link so a join through it diffs against its real count.
func (t *Tracker) InviteCreated(ctx context.Context, guildID, code string, uses int) error {
	release, err := t.snapshots.Lock(ctx, guildID)
	if err != nil {
		return err
	}
	defer release()
	if !t.snapshots.Set(guildID, code, uses) {
		telemetry.LoggerWithCorr(ctx).Debug("invite created in unprimed guild", slog.String("guild", guildID), slog.String("code", code))
	}
	return nil
}

// InviteDeleted drops a revoked or expired link from the snapshot.
func (t *Tracker) InviteDeleted(ctx context.Context, guildID, code string) error {
	release, err := t.snapshots.Lock(ctx, guildID)
	if err != nil {
		return err
	}
	defer release()
	t.snapshots.Delete(guildID, code)
	return nil
}

// GuildRemoved forgets the guild's snapshot.
func (t *Tracker) GuildRemoved(guildID string) {
	t.snapshots.Forget(guildID)
	telemetry.SnapshotGuilds.Set(float64(t.snapshots.Guilds()))
}

// Attribution is the outcome of HandleJoin.
type Attribution struct {
	Invite     Invite
	Record     Record
	Attributed bool
}

// HandleJoin works out which invite member used, credits its inviter and replaces
// the guild snapshot with the freshly fetched counts. A failed fetch aborts without
// touching the snapshot or the ledger. The snapshot is replaced before the ledger
// write so a store failure cannot leave the next join diffing against stale counts.
func (t *Tracker) HandleJoin(ctx context.Context, guildID, guildName string, member Member) (Attribution, error) {
	ctx, span := telemetry.StartSpan(ctx, "invites", "invites.handle_join",
		attribute.String("guild_id", guildID), attribute.String("member_id", member.ID))
	defer span.End()
	log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "invites"), slog.String("guild", guildID), slog.String("member", member.ID))

	release, err := t.snapshots.Lock(ctx, guildID)
	if err != nil {
		telemetry.RecordError(span, err)
		return Attribution{}, err
	}
	defer release()

	current, err := t.source.FetchInvites(ctx, guildID)
	if err != nil {
		telemetry.InviteFetchFailures.Inc()
		telemetry.JoinsProcessed.WithLabelValues("fetch_failed").Inc()
		telemetry.RecordError(span, err)
		return Attribution{}, fmt.Errorf("fetch invites for guild %s: %w", guildID, err)
	}

	prior, primed := t.snapshots.Get(guildID)
	t.snapshots.Replace(guildID, SnapshotOf(current))

	if !primed {
		log.Warn("join before invite snapshot was primed; not attributed")
		telemetry.JoinsProcessed.WithLabelValues("unprimed").Inc()
		return Attribution{}, nil
	}

	used, ok := Attribute(prior, current)
	if !ok {
		log.Info("join not attributed to any invite")
		telemetry.JoinsProcessed.WithLabelValues("unattributed").Inc()
		telemetry.SetSpanSuccess(span)
		return Attribution{}, nil
	}

	rec, err := t.ledger.RecordJoin(ctx, guildID, used.InviterID, member.ID)
	if err != nil {
		telemetry.JoinsProcessed.WithLabelValues("store_failed").Inc()
		telemetry.RecordError(span, err)
		return Attribution{Invite: used}, err
	}
	telemetry.JoinsProcessed.WithLabelValues("attributed").Inc()
	log.Info("join attributed", slog.String("code", used.Code), slog.String("inviter", used.InviterID), slog.Int("count", rec.InviteCount))

	if t.notifier != nil {
		n := JoinNotice{GuildID: guildID, GuildName: guildName, Member: member, Invite: used, Record: rec, At: t.now()}
		if err := t.notifier.NotifyJoin(ctx, n); err != nil {
			log.Warn("join notice failed", slog.Any("err", err))
		}
	}
	telemetry.SetSpanSuccess(span)
	return Attribution{Invite: used, Record: rec, Attributed: true}, nil
}

// HandleLeave un-credits member if they were attributed to someone.
func (t *Tracker) HandleLeave(ctx context.Context, guildID, guildName string, member Member) (Record, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "invites", "invites.handle_leave",
		attribute.String("guild_id", guildID), attribute.String("member_id", member.ID))
	defer span.End()

	rec, found, err := t.ledger.RecordDeparture(ctx, guildID, member.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return Record{}, false, err
	}
	if !found {
		telemetry.SetSpanSuccess(span)
		return Record{}, false, nil
	}
	telemetry.LoggerWithCorr(ctx).Info("departure un-credited",
		slog.String("guild", guildID), slog.String("member", member.ID), slog.String("inviter", rec.InviterID), slog.Int("count", rec.InviteCount))

	if t.notifier != nil {
		n := LeaveNotice{GuildID: guildID, GuildName: guildName, Member: member, InviterID: rec.InviterID, Record: rec, At: t.now()}
		if err := t.notifier.NotifyLeave(ctx, n); err != nil {
			telemetry.LoggerWithCorr(ctx).Warn("leave notice failed", slog.Any("err", err))
		}
	}
	telemetry.SetSpanSuccess(span)
	return rec, true, nil
}
