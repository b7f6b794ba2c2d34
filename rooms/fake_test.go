package rooms

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// fakePlatform records permission edits and lets tests inject failures.
type fakePlatform struct {
	mu        sync.Mutex
	channels  map[string]bool
	members   map[string]bool
	grants    map[string]map[string]Capability // channel → user → caps
	connect   map[string]bool                  // channel → default role may connect
	occupancy map[string]int
	edits     []string
	nextID    int

	failGrantFor string
	failCreate   error
	failConnect  error
}

func newFakePlatform(categoryID string, members ...string) *fakePlatform {
	p := &fakePlatform{
		channels:  map[string]bool{},
		members:   map[string]bool{},
		grants:    map[string]map[string]Capability{},
		connect:   map[string]bool{},
		occupancy: map[string]int{},
		nextID:    1000,
	}
	if categoryID != "" {
		p.channels[categoryID] = true
	}
	for _, m := range members {
		p.members[m] = true
	}
	return p
}

func (p *fakePlatform) ChannelExists(_ context.Context, id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channels[id], nil
}

func (p *fakePlatform) CreateVoiceChannel(_ context.Context, spec ChannelSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCreate != nil {
		return "", p.failCreate
	}
	p.nextID++
	id := fmt.Sprintf("%d", p.nextID)
	p.channels[id] = true
	p.connect[id] = true
	p.edits = append(p.edits, "create:"+id)
	return id, nil
}

func (p *fakePlatform) DeleteChannel(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.channels, id)
	delete(p.grants, id)
	p.edits = append(p.edits, "delete:"+id)
	return nil
}

func (p *fakePlatform) GrantMember(_ context.Context, channelID, userID string, caps Capability) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failGrantFor == userID {
		return errors.New("missing permissions")
	}
	if p.grants[channelID] == nil {
		p.grants[channelID] = map[string]Capability{}
	}
	p.grants[channelID][userID] = caps
	p.edits = append(p.edits, "grant:"+userID)
	return nil
}

func (p *fakePlatform) RevokeMember(_ context.Context, channelID, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.grants[channelID], userID)
	p.edits = append(p.edits, "revoke:"+userID)
	return nil
}

func (p *fakePlatform) SetMembershipConnect(_ context.Context, _, channelID string, allow bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failConnect != nil {
		return p.failConnect
	}
	p.connect[channelID] = allow
	p.edits = append(p.edits, fmt.Sprintf("connect:%v", allow))
	return nil
}

func (p *fakePlatform) MemberExists(_ context.Context, _, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.members[userID], nil
}

func (p *fakePlatform) Occupancy(_ context.Context, _, channelID string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.occupancy[channelID], nil
}

func (p *fakePlatform) grant(channelID, userID string) Capability {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grants[channelID][userID]
}

func (p *fakePlatform) editCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.edits)
}

type fakeCounter map[string]int

func (f fakeCounter) Count(_ context.Context, _, inviterID string) (int, error) {
	return f[inviterID], nil
}

type fakeAnnouncer struct {
	mu    sync.Mutex
	rooms []Room
}

func (a *fakeAnnouncer) AnnounceRoom(_ context.Context, r Room) error {
	a.mu.Lock()
	a.rooms = append(a.rooms, r)
	a.mu.Unlock()
	return nil
}

// failingRegistry fails Create or SetOwner on demand.
type failingRegistry struct {
	*MemoryRegistry
	failCreate   bool
	failSetOwner bool
}

func (f *failingRegistry) Create(ctx context.Context, r Room) error {
	if f.failCreate {
		return errors.New("db down")
	}
	return f.MemoryRegistry.Create(ctx, r)
}

func (f *failingRegistry) SetOwner(ctx context.Context, roomID, from, to string) error {
	if f.failSetOwner {
		return errors.New("db down")
	}
	return f.MemoryRegistry.SetOwner(ctx, roomID, from, to)
}
