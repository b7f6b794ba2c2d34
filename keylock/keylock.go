// Package keylock provides per-key mutual exclusion that respects context cancellation.
//
// Each key owns a one-slot semaphore. Slots are created on first use and dropped once
// no holder or waiter references them, so the map stays bounded by the number of keys
// currently in contention.
package keylock

import (
	"context"
	"log/slog"
	"sync"
)

type slot struct {
	sem  chan struct{}
	refs int
}

// Map serializes work per key (guild id, guild+owner pair, ...).
type Map struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// New returns an empty Map.
func New() *Map {
	return &Map{slots: make(map[string]*slot)}
}

// Lock blocks until the key is free or ctx is done. On success it returns the release
// function, which must be called exactly once.
func (m *Map) Lock(ctx context.Context, key string) (func(), error) {
	s := m.ref(key)
	select {
	case s.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				select {
				case <-s.sem:
				default:
					slog.Warn("keylock release without acquire", slog.String("key", key))
				}
				m.unref(key)
			})
		}, nil
	case <-ctx.Done():
		m.unref(key)
		return nil, ctx.Err()
	}
}

// Held reports the number of keys currently tracked (held or waited on).
func (m *Map) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

func (m *Map) ref(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *Map) unref(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(m.slots, key)
	}
}
