// Package notify carries booking domain events from the request path to the
// notification topic without ever blocking a booking.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"gather/pkg/kafka"
	"gather/pkg/logger"
	"gather/pkg/model"
)

const (
	retryDelayBase  = 100 * time.Millisecond
	retryDelayLimit = 2 * time.Second
)

// Sink is where dispatched events end up.
type Sink interface {
	Send(ctx context.Context, event model.DomainEvent) error
}

// Dispatcher queues events in memory and hands them to a Sink from a single
// worker. Emit never blocks: a full queue drops the event.
type Dispatcher struct {
	sink       Sink
	queue      chan model.DomainEvent
	maxRetries int
	log        *logger.Logger

	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Int64
	sent    atomic.Int64
	failed  atomic.Int64
}

func NewDispatcher(sink Sink, buffer, maxRetries int, log *logger.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		sink:       sink,
		queue:      make(chan model.DomainEvent, buffer),
		maxRetries: maxRetries,
		log:        log,
	}
}

// Start launches the worker. Events queued before Start are kept.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for event := range d.queue {
			d.deliver(ctx, event)
		}
	}()
}

func (d *Dispatcher) Emit(event model.DomainEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.log.Warn("Notification dropped after shutdown", "type", event.Type, "booking_id", event.BookingID)
		return
	}

	select {
	case d.queue <- event:
	default:
		d.dropped.Add(1)
		d.log.Warn("Notification queue full, dropping event",
			"type", event.Type,
			"booking_id", event.BookingID,
			"event_id", event.EventID,
		)
	}
}

// Stop closes the queue and waits for the worker to drain it, or for ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info("Notification dispatcher stopped",
			"sent", d.sent.Load(),
			"failed", d.failed.Load(),
			"dropped", d.dropped.Load(),
		)
		return nil
	case <-ctx.Done():
		d.log.Warn("Notification dispatcher did not drain in time", "pending", len(d.queue))
		return ctx.Err()
	}
}

func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

func (d *Dispatcher) deliver(ctx context.Context, event model.DomainEvent) {
	for attempt := 0; ; attempt++ {
		err := d.sink.Send(ctx, event)
		if err == nil {
			d.sent.Add(1)
			return
		}
		if !kafka.ShouldRetry(err, attempt, d.maxRetries) {
			d.failed.Add(1)
			d.log.Error("Failed to dispatch notification",
				"type", event.Type,
				"booking_id", event.BookingID,
				"attempts", attempt+1,
				"error", err,
			)
			return
		}

		delay := retryDelayBase << attempt
		if delay > retryDelayLimit {
			delay = retryDelayLimit
		}
		d.log.Debug("Retrying notification", "booking_id", event.BookingID, "attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.failed.Add(1)
			d.log.Warn("Notification abandoned on shutdown", "booking_id", event.BookingID, "error", ctx.Err())
			return
		case <-timer.C:
		}
	}
}
