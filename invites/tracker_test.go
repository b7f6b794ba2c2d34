package invites

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fakeSource returns queued invite lists, one per fetch. An empty queue yields no invites.
type fakeSource struct {
	mu      sync.Mutex
	results [][]Invite
	err     error
	calls   int
}

func (f *fakeSource) FetchInvites(ctx context.Context, guildID string) ([]Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next, nil
}

func (f *fakeSource) push(list ...Invite) {
	f.mu.Lock()
	f.results = append(f.results, list)
	f.mu.Unlock()
}

type fakeNotifier struct {
	mu     sync.Mutex
	joins  []JoinNotice
	leaves []LeaveNotice
	err    error
}

func (n *fakeNotifier) NotifyJoin(ctx context.Context, j JoinNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.joins = append(n.joins, j)
	return n.err
}

func (n *fakeNotifier) NotifyLeave(ctx context.Context, l LeaveNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leaves = append(n.leaves, l)
	return n.err
}

// failingStore wraps MemoryStore and fails every AppendJoin.
type failingStore struct {
	*MemoryStore
}

func (failingStore) AppendJoin(ctx context.Context, guildID, inviterID, joinerID string) (Record, bool, error) {
	return Record{}, false, errors.New("db down")
}

func newTestTracker(src Source, store Store, n Notifier) (*Tracker, *SnapshotStore, *Ledger) {
	snaps := NewSnapshotStore()
	ledger := NewLedger(store)
	tr := NewTracker(src, snaps, ledger, n)
	tr.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	return tr, snaps, ledger
}

func TestHandleJoinAttributesAndReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	n := &fakeNotifier{}
	tr, snaps, ledger := newTestTracker(src, NewMemoryStore(), n)

	src.push(Invite{Code: "A", Uses: 0, InviterID: "ia"}, Invite{Code: "B", Uses: 0, InviterID: "ib"})
	if err := tr.Prime(ctx, "g"); err != nil {
		t.Fatalf("prime: %v", err)
	}

	src.push(Invite{Code: "A", Uses: 0, InviterID: "ia"}, Invite{Code: "B", Uses: 1, InviterID: "ib"})
	res, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "joiner", Tag: "joiner#0001"})
	if err != nil {
		t.Fatalf("HandleJoin: %v", err)
	}
	if !res.Attributed || res.Invite.InviterID != "ib" || res.Invite.Code != "B" {
		t.Fatalf("unexpected attribution %+v", res)
	}

	rec, err := ledger.Query(ctx, "g", "ib")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if rec.InviteCount != 1 || !reflect.DeepEqual(rec.InvitedUsers, []string{"joiner"}) {
		t.Fatalf("unexpected record %+v", rec)
	}

	snap, _ := snaps.Get("g")
	if !reflect.DeepEqual(snap, Snapshot{"A": 0, "B": 1}) {
		t.Fatalf("snapshot = %v, want {A:0 B:1}", snap)
	}

	if len(n.joins) != 1 || n.joins[0].Record.InviteCount != 1 || n.joins[0].Member.ID != "joiner" {
		t.Fatalf("unexpected join notices %+v", n.joins)
	}
}

func TestFakeSourceConsumesOnePerFetch(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	src.push(Invite{Code: "A", Uses: 0})
	if got, _ := src.FetchInvites(ctx, "g"); len(got) != 1 || got[0].Uses != 0 {
		t.Fatalf("first fetch = %+v", got)
	}
	src.push(Invite{Code: "A", Uses: 1})
	if got, _ := src.FetchInvites(ctx, "g"); len(got) != 1 || got[0].Uses != 1 {
		t.Fatalf("second fetch returned a stale list: %+v", got)
	}
	if got, _ := src.FetchInvites(ctx, "g"); got != nil {
		t.Fatalf("drained queue should return nothing, got %+v", got)
	}
}

func TestSequentialJoinsEachSeeFreshCounts(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	tr, snaps, ledger := newTestTracker(src, NewMemoryStore(), nil)

	src.push(Invite{Code: "A", Uses: 0, InviterID: "ia"}, Invite{Code: "B", Uses: 0, InviterID: "ib"})
	if err := tr.Prime(ctx, "g"); err != nil {
		t.Fatalf("prime: %v", err)
	}
	src.push(Invite{Code: "A", Uses: 0, InviterID: "ia"}, Invite{Code: "B", Uses: 1, InviterID: "ib"})
	src.push(Invite{Code: "A", Uses: 1, InviterID: "ia"}, Invite{Code: "B", Uses: 1, InviterID: "ib"})

	first, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "j1"})
	if err != nil || !first.Attributed || first.Invite.Code != "B" {
		t.Fatalf("first join: %+v %v", first, err)
	}
	second, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "j2"})
	if err != nil || !second.Attributed || second.Invite.Code != "A" {
		t.Fatalf("second join: %+v %v", second, err)
	}

	for inviter, joiner := range map[string]string{"ia": "j2", "ib": "j1"} {
		rec, err := ledger.Query(ctx, "g", inviter)
		if err != nil || rec.InviteCount != 1 || !rec.Has(joiner) {
			t.Fatalf("record for %s = %+v %v", inviter, rec, err)
		}
	}
	snap, _ := snaps.Get("g")
	if !reflect.DeepEqual(snap, Snapshot{"A": 1, "B": 1}) {
		t.Fatalf("snapshot = %v, want {A:1 B:1}", snap)
	}
}

func TestHandleJoinUnattributedStillReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	n := &fakeNotifier{}
	tr, snaps, _ := newTestTracker(src, NewMemoryStore(), n)

	src.push(Invite{Code: "A", Uses: 3, InviterID: "ia"})
	_ = tr.Prime(ctx, "g")

	// A was revoked and a fresh code was created while the bot missed the event.
	src.push(Invite{Code: "C", Uses: 0, InviterID: "ic"})
	res, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "u"})
	if err != nil {
		t.Fatalf("HandleJoin: %v", err)
	}
	if res.Attributed {
		t.Fatalf("expected no attribution, got %+v", res)
	}
	snap, _ := snaps.Get("g")
	if !reflect.DeepEqual(snap, Snapshot{"C": 0}) {
		t.Fatalf("snapshot = %v, want {C:0}", snap)
	}
	if len(n.joins) != 0 {
		t.Fatal("no notice expected for unattributed join")
	}
}

func TestHandleJoinFetchFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	store := NewMemoryStore()
	tr, snaps, ledger := newTestTracker(src, store, nil)

	src.push(Invite{Code: "A", Uses: 1, InviterID: "ia"})
	_ = tr.Prime(ctx, "g")

	src.err = errors.New("rate limited")
	if _, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "u"}); err == nil {
		t.Fatal("expected fetch error")
	}

	snap, _ := snaps.Get("g")
	if !reflect.DeepEqual(snap, Snapshot{"A": 1}) {
		t.Fatalf("snapshot changed on failed fetch: %v", snap)
	}
	if _, err := ledger.Query(ctx, "g", "ia"); !errors.Is(err, ErrNoInvites) {
		t.Fatalf("ledger must be untouched, got %v", err)
	}
}

func TestHandleJoinUnprimedGuildBecomesBaseline(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	tr, snaps, ledger := newTestTracker(src, NewMemoryStore(), nil)

	src.push(Invite{Code: "A", Uses: 9, InviterID: "ia"})
	res, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "u1"})
	if err != nil {
		t.Fatalf("HandleJoin: %v", err)
	}
	if res.Attributed {
		t.Fatal("unprimed guild must not attribute")
	}
	if _, err := ledger.Query(ctx, "g", "ia"); !errors.Is(err, ErrNoInvites) {
		t.Fatalf("ledger must be untouched, got %v", err)
	}

	src.push(Invite{Code: "A", Uses: 10, InviterID: "ia"})
	res, err = tr.HandleJoin(ctx, "g", "Guild", Member{ID: "u2"})
	if err != nil || !res.Attributed || res.Invite.Code != "A" {
		t.Fatalf("second join should attribute to A: %+v %v", res, err)
	}
	snap, _ := snaps.Get("g")
	if snap["A"] != 10 {
		t.Fatalf("snapshot = %v", snap)
	}
}

func TestHandleJoinStoreFailureKeepsFreshSnapshot(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	n := &fakeNotifier{}
	tr, snaps, _ := newTestTracker(src, failingStore{NewMemoryStore()}, n)

	src.push(Invite{Code: "A", Uses: 0, InviterID: "ia"})
	_ = tr.Prime(ctx, "g")

	src.push(Invite{Code: "A", Uses: 1, InviterID: "ia"})
	if _, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "u"}); err == nil {
		t.Fatal("expected store error")
	}
	snap, _ := snaps.Get("g")
	if snap["A"] != 1 {
		t.Fatalf("snapshot should hold fetched counts, got %v", snap)
	}
	if len(n.joins) != 0 {
		t.Fatal("no notice after failed write")
	}
}

func TestHandleJoinNotifierErrorIsSwallowed(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	n := &fakeNotifier{err: errors.New("channel gone")}
	tr, _, _ := newTestTracker(src, NewMemoryStore(), n)

	src.push(Invite{Code: "A", Uses: 0, InviterID: "ia"})
	_ = tr.Prime(ctx, "g")
	src.push(Invite{Code: "A", Uses: 1, InviterID: "ia"})

	res, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "u"})
	if err != nil || !res.Attributed {
		t.Fatalf("notice failure must not fail the join: %+v %v", res, err)
	}
}

func TestHandleLeaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	n := &fakeNotifier{}
	tr, _, ledger := newTestTracker(src, NewMemoryStore(), n)

	src.push(Invite{Code: "A", Uses: 0, InviterID: "ia"})
	_ = tr.Prime(ctx, "g")
	src.push(Invite{Code: "A", Uses: 1, InviterID: "ia"})
	if _, err := tr.HandleJoin(ctx, "g", "Guild", Member{ID: "u"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	rec, found, err := tr.HandleLeave(ctx, "g", "Guild", Member{ID: "u"})
	if err != nil || !found {
		t.Fatalf("leave: found=%v err=%v", found, err)
	}
	if rec.InviteCount != 0 || rec.Has("u") {
		t.Fatalf("unexpected record after leave %+v", rec)
	}
	if len(n.leaves) != 1 || n.leaves[0].InviterID != "ia" {
		t.Fatalf("unexpected leave notices %+v", n.leaves)
	}

	if _, found, _ := tr.HandleLeave(ctx, "g", "Guild", Member{ID: "u"}); found {
		t.Fatal("second leave must be a no-op")
	}
	if len(n.leaves) != 1 {
		t.Fatal("no notice for unknown departure")
	}
	if c, _ := ledger.Count(ctx, "g", "ia"); c != 0 {
		t.Fatalf("count = %d, want 0", c)
	}
}

func TestInviteEventsMaintainSnapshot(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	tr, snaps, _ := newTestTracker(src, NewMemoryStore(), nil)

	// Events for an unprimed guild are ignored.
	_ = tr.InviteCreated(ctx, "g", "X", 0)
	if _, ok := snaps.Get("g"); ok {
		t.Fatal("unprimed guild must stay unprimed")
	}

	src.push(Invite{Code: "A", Uses: 2, InviterID: "ia"})
	_ = tr.Prime(ctx, "g")
	_ = tr.InviteCreated(ctx, "g", "N", 0)
	_ = tr.InviteDeleted(ctx, "g", "A")

	snap, _ := snaps.Get("g")
	if !reflect.DeepEqual(snap, Snapshot{"N": 0}) {
		t.Fatalf("snapshot = %v, want {N:0}", snap)
	}

	tr.GuildRemoved("g")
	if _, ok := snaps.Get("g"); ok {
		t.Fatal("guild should be forgotten")
	}
}

func TestConcurrentJoinsInOneGuildAreSerialized(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	tr, _, ledger := newTestTracker(src, NewMemoryStore(), nil)

	src.push(Invite{Code: "A", Uses: 0, InviterID: "ia"})
	_ = tr.Prime(ctx, "g")
	for i := 1; i <= 10; i++ {
		src.push(Invite{Code: "A", Uses: i, InviterID: "ia"})
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = tr.HandleJoin(ctx, "g", "Guild", Member{ID: string(rune('a' + i))})
		}(i)
	}
	wg.Wait()

	if c, _ := ledger.Count(ctx, "g", "ia"); c != 10 {
		t.Fatalf("count = %d, want 10", c)
	}
}
