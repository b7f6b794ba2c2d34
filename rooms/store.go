package rooms

import (
	"context"
	"sort"
	"sync"
)

// Store is the room ownership registry.
type Store interface {
	Create(ctx context.Context, r Room) error
	// Get returns ErrRoomNotFound when no room has that id.
	Get(ctx context.Context, roomID string) (Room, error)
	FindByOwner(ctx context.Context, guildID, ownerID string) (Room, bool, error)
	// SetOwner moves ownership from → to. It returns ErrNotOwner when the current owner
	// is no longer from, so two racing transfers cannot both win.
	SetOwner(ctx context.Context, roomID, from, to string) error
	SetLocked(ctx context.Context, roomID string, locked bool) error
	// Delete is idempotent.
	Delete(ctx context.Context, roomID string) error
	List(ctx context.Context) ([]Room, error)
}

// MemoryRegistry is a process-local Store.
type MemoryRegistry struct {
	mu    sync.RWMutex
	rooms map[string]Room
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{rooms: make(map[string]Room)}
}

func (m *MemoryRegistry) Create(_ context.Context, r Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = r
	return nil
}

func (m *MemoryRegistry) Get(_ context.Context, roomID string) (Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return Room{}, ErrRoomNotFound
	}
	return r, nil
}

func (m *MemoryRegistry) FindByOwner(_ context.Context, guildID, ownerID string) (Room, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rooms {
		if r.GuildID == guildID && r.OwnerID == ownerID {
			return r, true, nil
		}
	}
	return Room{}, false, nil
}

func (m *MemoryRegistry) SetOwner(_ context.Context, roomID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	if r.OwnerID != from {
		return ErrNotOwner
	}
	r.OwnerID = to
	m.rooms[roomID] = r
	return nil
}

func (m *MemoryRegistry) SetLocked(_ context.Context, roomID string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	r.Locked = locked
	m.rooms[roomID] = r
	return nil
}

func (m *MemoryRegistry) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	delete(m.rooms, roomID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryRegistry) List(_ context.Context) ([]Room, error) {
	m.mu.RLock()
	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
