package invites

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a process-local Store, used with STORE_BACKEND=memory and in tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]map[string]*Record // guild → inviter → record
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[string]*Record),
		now:     time.Now,
	}
}

func (m *MemoryStore) AppendJoin(_ context.Context, guildID, inviterID, joinerID string) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byInviter, ok := m.records[guildID]
	if !ok {
		byInviter = make(map[string]*Record)
		m.records[guildID] = byInviter
	}
	rec, ok := byInviter[inviterID]
	if !ok {
		rec = &Record{GuildID: guildID, InviterID: inviterID}
		byInviter[inviterID] = rec
	}
	if rec.Has(joinerID) {
		return clone(rec), false, nil
	}
	rec.InvitedUsers = append(rec.InvitedUsers, joinerID)
	rec.InviteCount++
	rec.UpdatedAt = m.now()
	return clone(rec), true, nil
}

func (m *MemoryStore) RemoveJoin(_ context.Context, guildID, joinerID string) (Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byInviter := m.records[guildID]
	// deterministic scan so a joiner listed twice (rejoined via another inviter) is
	// always removed from the same record first
	inviters := make([]string, 0, len(byInviter))
	for id := range byInviter {
		inviters = append(inviters, id)
	}
	sort.Strings(inviters)

	for _, id := range inviters {
		rec := byInviter[id]
		idx := -1
		for i, u := range rec.InvitedUsers {
			if u == joinerID {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		rec.InvitedUsers = append(rec.InvitedUsers[:idx], rec.InvitedUsers[idx+1:]...)
		if rec.InviteCount > 0 {
			rec.InviteCount--
		}
		rec.UpdatedAt = m.now()
		return clone(rec), true, nil
	}
	return Record{}, false, nil
}

func (m *MemoryStore) Get(_ context.Context, guildID, inviterID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[guildID][inviterID]
	if !ok {
		return Record{}, ErrNoInvites
	}
	return clone(rec), nil
}

func (m *MemoryStore) DeleteGuild(_ context.Context, guildID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.records[guildID]))
	delete(m.records, guildID)
	return n, nil
}

func clone(r *Record) Record {
	out := *r
	out.InvitedUsers = append([]string(nil), r.InvitedUsers...)
	return out
}
