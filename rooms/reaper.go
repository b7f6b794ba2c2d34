package rooms

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/invite-rooms/telemetry"
)

// Reaper tears down rooms that stayed empty for longer than the idle timeout and drops
// registry entries whose channel no longer exists.
type Reaper struct {
	m    *Manager
	idle time.Duration
	now  func() time.Time

	mu         sync.Mutex
	emptySince map[string]time.Time
}

// NewReaper returns a Reaper. idle <= 0 disables idle teardown; orphaned entries are
// still pruned.
func NewReaper(m *Manager, idle time.Duration) *Reaper {
	return &Reaper{
		m:          m,
		idle:       idle,
		now:        time.Now,
		emptySince: make(map[string]time.Time),
	}
}

// Sweep runs one pass over the registry and returns how many rooms it removed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	rooms, err := r.m.store.List(ctx)
	if err != nil {
		return 0, err
	}
	telemetry.ActiveRooms.Set(float64(len(rooms)))
	log := r.m.log(ctx).With(slog.String("job", "room_reaper"))

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	seen := make(map[string]struct{}, len(rooms))
	removed := 0
	for _, room := range rooms {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		seen[room.ID] = struct{}{}

		exists, err := r.m.platform.ChannelExists(ctx, room.ID)
		if err != nil {
			log.Warn("check room channel failed", slog.String("room", room.ID), slog.Any("err", err))
			continue
		}
		if !exists {
			if err := r.m.ChannelDeleted(ctx, room.ID); err != nil {
				log.Warn("prune orphaned room failed", slog.String("room", room.ID), slog.Any("err", err))
				continue
			}
			delete(r.emptySince, room.ID)
			removed++
			continue
		}
		if r.idle <= 0 {
			continue
		}

		n, err := r.m.platform.Occupancy(ctx, room.GuildID, room.ID)
		if err != nil {
			log.Warn("room occupancy failed", slog.String("room", room.ID), slog.Any("err", err))
			continue
		}
		if n > 0 {
			delete(r.emptySince, room.ID)
			continue
		}
		since, ok := r.emptySince[room.ID]
		if !ok {
			r.emptySince[room.ID] = now
			continue
		}
		if now.Sub(since) < r.idle {
			continue
		}
		gone, err := r.teardownIdle(ctx, room.ID)
		if err != nil {
			log.Warn("idle teardown failed", slog.String("room", room.ID), slog.Any("err", err))
			continue
		}
		delete(r.emptySince, room.ID)
		if gone {
			removed++
		}
	}

	for id := range r.emptySince {
		if _, ok := seen[id]; !ok {
			delete(r.emptySince, id)
		}
	}
	if removed > 0 {
		log.Info("reaper sweep", slog.Int("removed", removed), slog.Int("rooms", len(rooms)))
	}
	return removed, nil
}

// teardownIdle removes the room unless someone joined it after the sweep looked.
// It reports false when the room was occupied and left in place.
func (r *Reaper) teardownIdle(ctx context.Context, roomID string) (bool, error) {
	release, err := r.m.lockRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	defer release()
	// the room may have been transferred or removed since List
	room, err := r.m.store.Get(ctx, roomID)
	if err != nil {
		return false, err
	}
	n, err := r.m.platform.Occupancy(ctx, room.GuildID, room.ID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	err = r.m.remove(ctx, room, "idle")
	observe("reap", err)
	return err == nil, err
}
