package lock

import (
	"context"
	"fmt"
	"sync"
)

type memoryEntry struct {
	slot chan struct{}
	refs int
}

// MemoryLocker is an in-process keyed mutex. Entries are reference counted
// and removed once no goroutine holds or waits on them.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*memoryEntry)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &memoryEntry{slot: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, e)
		return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-e.slot
			l.drop(key, e)
		})
		return nil
	}, nil
}

func (l *MemoryLocker) drop(key string, e *memoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Len reports how many keys are currently held or awaited.
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
