// Package lock provides exclusion boundaries keyed by an arbitrary string.
// Different keys never block each other.
package lock

import (
	"context"
	"errors"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Release ends a held lock. It is safe to call more than once.
type Release func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

