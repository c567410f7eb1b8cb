package capacity

import (
	"context"
	"errors"
	"time"

	mongotx "gather/pkg/db/mongo"
	apperrors "gather/pkg/errors"
	"gather/pkg/lock"
	"gather/pkg/logger"
)

const releaseTimeout = 2 * time.Second

func LockKey(eventID string) string {
	return "event:" + eventID
}

// Boundary is the per-event exclusion boundary. Every write that can change
// an event's committed seats, and the availability read it depends on, runs
// inside Run for that event.
type Boundary struct {
	locker lock.Locker
	tx     mongotx.TransactionManager
	wait   time.Duration
	log    *logger.Logger
}

func NewBoundary(locker lock.Locker, tx mongotx.TransactionManager, wait time.Duration, log *logger.Logger) *Boundary {
	return &Boundary{
		locker: locker,
		tx:     tx,
		wait:   wait,
		log:    log,
	}
}

// Run takes the event's lock, waiting at most the configured time, and runs
// fn in one store transaction. A lock that cannot be taken in time is
// reported as a retryable STORE_UNAVAILABLE.
func (b *Boundary) Run(ctx context.Context, eventID string, fn mongotx.TransactionFunc) error {
	acquireCtx, cancel := context.WithTimeout(ctx, b.wait)
	release, err := b.locker.Acquire(acquireCtx, LockKey(eventID))
	cancel()
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			b.log.Warn("Event lock wait exceeded", "event_id", eventID, "wait", b.wait)
			return apperrors.StoreUnavailable("Event is busy, please retry", err)
		}
		b.log.Error("Failed to acquire event lock", "event_id", eventID, "error", err)
		return apperrors.StoreUnavailable("Failed to acquire event lock", err)
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			b.log.Warn("Failed to release event lock", "event_id", eventID, "error", err)
		}
	}()

	return b.tx.ExecuteTransaction(ctx, fn)
}
