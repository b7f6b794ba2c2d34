package invites

import (
	"context"
	"sync"

	"github.com/onnwee/invite-rooms/keylock"
)

// SnapshotStore keeps the last observed invite usage per guild. It is a cache for the
// attribution diff, never a source of truth, and is rebuilt from the platform on start.
type SnapshotStore struct {
	mu     sync.RWMutex
	guilds map[string]Snapshot
	locks  *keylock.Map
}

// NewSnapshotStore returns an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		guilds: make(map[string]Snapshot),
		locks:  keylock.New(),
	}
}

// Lock serializes read-diff-replace sequences for one guild.
func (s *SnapshotStore) Lock(ctx context.Context, guildID string) (func(), error) {
	return s.locks.Lock(ctx, guildID)
}

// Get returns a copy of the guild's snapshot and whether one has been recorded.
func (s *SnapshotStore) Get(guildID string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.guilds[guildID]
	if !ok {
		return nil, false
	}
	out := make(Snapshot, len(snap))
	for code, uses := range snap {
		out[code] = uses
	}
	return out, true
}

// Replace swaps the guild's snapshot wholesale.
func (s *SnapshotStore) Replace(guildID string, snap Snapshot) {
	cp := make(Snapshot, len(snap))
	for code, uses := range snap {
		cp[code] = uses
	}
	s.mu.Lock()
	s.guilds[guildID] = cp
	s.mu.Unlock()
}

// Set records a single code. It does nothing for a guild that has not been primed,
// since a partial snapshot would credit every untracked code on the next join.
func (s *SnapshotStore) Set(guildID, code string, uses int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.guilds[guildID]
	if !ok {
		return false
	}
	snap[code] = uses
	return true
}

// Delete drops a single code from the guild's snapshot.
func (s *SnapshotStore) Delete(guildID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.guilds[guildID]; ok {
		delete(snap, code)
	}
}

// Forget drops the whole guild, e.g. when the bot is removed from it.
func (s *SnapshotStore) Forget(guildID string) {
	s.mu.Lock()
	delete(s.guilds, guildID)
	s.mu.Unlock()
}

// Guilds returns the number of guilds with a snapshot.
func (s *SnapshotStore) Guilds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.guilds)
}
