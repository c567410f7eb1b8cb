package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryLocker_SerializesSameKey(t *testing.T) {
	l := NewMemoryLocker()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "evt-1")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = release(context.Background())
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("expected at most one holder at a time, saw %d", maxSeen)
	}
	if l.Len() != 0 {
		t.Errorf("expected entries to be cleaned up, got %d", l.Len())
	}
}

func TestMemoryLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewMemoryLocker()

	releaseA, err := l.Acquire(context.Background(), "evt-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer releaseA(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	releaseB, err := l.Acquire(ctx, "evt-b")
	if err != nil {
		t.Fatalf("different key should not wait, got %v", err)
	}
	_ = releaseB(context.Background())
}

func TestMemoryLocker_ContextCancelWhileWaiting(t *testing.T) {
	l := NewMemoryLocker()

	release, err := l.Acquire(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "evt-1")
	if !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}

	_ = release(context.Background())
	if l.Len() != 0 {
		t.Errorf("expected no entries after release, got %d", l.Len())
	}
}

func TestMemoryLocker_ReleaseIsIdempotent(t *testing.T) {
	l := NewMemoryLocker()

	release, err := l.Acquire(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = release(context.Background())
	_ = release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	again, err := l.Acquire(ctx, "evt-1")
	if err != nil {
		t.Fatalf("expected key to be free after release, got %v", err)
	}
	_ = again(context.Background())
}
