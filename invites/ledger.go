package invites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/invite-rooms/fault"
	"github.com/onnwee/invite-rooms/telemetry"
)

// ErrNoInvites is returned when an inviter has no record in the guild.
var ErrNoInvites = fault.New(fault.NotFound, "invites.not_found", "no invite record for user")

// Record is the persistent per-(guild, inviter) tally.
type Record struct {
	GuildID      string
	InviterID    string
	InvitedUsers []string // attribution order
	InviteCount  int
	UpdatedAt    time.Time
}

// Has reports whether joinerID is listed on the record.
func (r Record) Has(joinerID string) bool {
	for _, id := range r.InvitedUsers {
		if id == joinerID {
			return true
		}
	}
	return false
}

// Store persists invite records. Each method is atomic with respect to the record it
// touches, which keeps InviteCount equal to len(InvitedUsers).
type Store interface {
	// AppendJoin upserts the (guild, inviter) record and appends joinerID, incrementing
	// the count. If joinerID is already listed for that inviter the record is returned
	// unchanged and added is false.
	AppendJoin(ctx context.Context, guildID, inviterID, joinerID string) (rec Record, added bool, err error)
	// RemoveJoin finds the record listing joinerID, removes it and decrements the count
	// without going below zero. found is false when no record lists the joiner.
	RemoveJoin(ctx context.Context, guildID, joinerID string) (rec Record, found bool, err error)
	// Get returns ErrNoInvites when the inviter has no record.
	Get(ctx context.Context, guildID, inviterID string) (Record, error)
	// DeleteGuild removes every record for the guild and returns how many were deleted.
	DeleteGuild(ctx context.Context, guildID string) (int64, error)
}

// Ledger is the InviteLedger: the only path through which records are mutated.
type Ledger struct {
	store Store
}

// NewLedger wraps a Store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// RecordJoin credits inviterID with joinerID. Redelivered join events for an already
// credited joiner do not count twice.
func (l *Ledger) RecordJoin(ctx context.Context, guildID, inviterID, joinerID string) (Record, error) {
	rec, added, err := l.store.AppendJoin(ctx, guildID, inviterID, joinerID)
	if err != nil {
		return Record{}, fmt.Errorf("record join %s→%s: %w", inviterID, joinerID, err)
	}
	if !added {
		telemetry.LoggerWithCorr(ctx).Info("join already credited",
			slog.String("guild", guildID), slog.String("inviter", inviterID), slog.String("joiner", joinerID))
		return rec, nil
	}
	telemetry.LedgerMutations.WithLabelValues("join").Inc()
	return rec, nil
}

// RecordDeparture un-credits joinerID. found is false when the joiner was never
// attributed to anyone, in which case nothing changes.
func (l *Ledger) RecordDeparture(ctx context.Context, guildID, joinerID string) (Record, bool, error) {
	rec, found, err := l.store.RemoveJoin(ctx, guildID, joinerID)
	if err != nil {
		return Record{}, false, fmt.Errorf("record departure %s: %w", joinerID, err)
	}
	if found {
		telemetry.LedgerMutations.WithLabelValues("departure").Inc()
	}
	return rec, found, nil
}

// Query returns the inviter's record or ErrNoInvites.
func (l *Ledger) Query(ctx context.Context, guildID, inviterID string) (Record, error) {
	rec, err := l.store.Get(ctx, guildID, inviterID)
	if err != nil {
		if errors.Is(err, ErrNoInvites) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("query invites for %s: %w", inviterID, err)
	}
	return rec, nil
}

// Count returns the inviter's current count, zero when there is no record.
func (l *Ledger) Count(ctx context.Context, guildID, inviterID string) (int, error) {
	rec, err := l.Query(ctx, guildID, inviterID)
	if errors.Is(err, ErrNoInvites) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.InviteCount, nil
}

// ResetAll deletes every record in the guild. Callers authorize the request.
func (l *Ledger) ResetAll(ctx context.Context, guildID string) (int64, error) {
	n, err := l.store.DeleteGuild(ctx, guildID)
	if err != nil {
		return 0, fmt.Errorf("reset invites for guild %s: %w", guildID, err)
	}
	telemetry.LedgerMutations.WithLabelValues("reset").Inc()
	telemetry.LoggerWithCorr(ctx).Info("invite ledger reset", slog.String("guild", guildID), slog.Int64("records", n))
	return n, nil
}
