package keylock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockSerializesSameKey(t *testing.T) {
	m := New()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(ctx, "guild-1")
			if err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxInside)
				if n <= cur || atomic.CompareAndSwapInt32(&maxInside, cur, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected at most 1 holder at a time, saw %d", maxInside)
	}
	if held := m.Held(); held != 0 {
		t.Fatalf("expected slots to be dropped after release, %d left", held)
	}
}

func TestLockDifferentKeysIndependent(t *testing.T) {
	m := New()
	ctx := context.Background()

	releaseA, err := m.Lock(ctx, "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer releaseA()

	ctx2, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	releaseB, err := m.Lock(ctx2, "b")
	if err != nil {
		t.Fatalf("lock b should not wait on a: %v", err)
	}
	releaseB()
}

func TestLockContextCancel(t *testing.T) {
	m := New()
	ctx := context.Background()

	release, err := m.Lock(ctx, "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx2, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	release()
	release() // second call is a no-op

	if held := m.Held(); held != 0 {
		t.Fatalf("expected no tracked keys, got %d", held)
	}
}
