package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gather/pkg/logger"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ErrorTypeUnknown},
		{name: "explicit transient", err: NewTransientError("smtp down", errors.New("x")), want: ErrorTypeTransient},
		{name: "wrapped permanent", err: fmt.Errorf("handler: %w", NewPermanentError("bad payload", nil)), want: ErrorTypePermanent},
		{name: "deadline", err: fmt.Errorf("send: %w", context.DeadlineExceeded), want: ErrorTypeTransient},
		{name: "connection refused text", err: errors.New("dial tcp: Connection Refused"), want: ErrorTypeTransient},
		{name: "unknown", err: errors.New("something odd"), want: ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("flaky", nil)

	if !ShouldRetry(transient, 0, 3) {
		t.Error("expected transient error to be retried")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Error("expected retries to stop at the limit")
	}
	if ShouldRetry(NewPermanentError("bad", nil), 0, 3) {
		t.Error("permanent errors must not be retried")
	}
}

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("evt-1").
		WithValue(map[string]int{"seats": 2}).
		WithEventType("BookingCreated").
		WithSource("bookings").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.Key != "evt-1" || string(msg.Value) != `{"seats":2}` {
		t.Errorf("unexpected message %+v", msg)
	}
	if msg.GetEventID() == "" {
		t.Error("expected a generated event id")
	}
	if msg.GetEventType() != "BookingCreated" {
		t.Errorf("unexpected event type %q", msg.GetEventType())
	}
	if msg.Headers[HeaderTimestamp] == "" {
		t.Error("expected timestamp header")
	}
}

func TestMessageBuilder_EncodeError(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if err == nil {
		t.Fatal("expected encode error")
	}
	if ClassifyError(err) != ErrorTypePermanent {
		t.Error("encode errors are permanent")
	}
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	if got := msg.GetRetryCount(); got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestProcessMessage_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	c := &Consumer{
		maxRetries: 2,
		log:        logger.Discard(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			if attempts < 3 {
				return NewTransientError("not yet", nil)
			}
			return nil
		},
	}

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestProcessMessage_PermanentFailureIsNotRetried(t *testing.T) {
	attempts := 0
	c := &Consumer{
		maxRetries: 5,
		log:        logger.Discard(),
		handler: func(ctx context.Context, msg Message) error {
			attempts++
			return NewPermanentError("bad payload", nil)
		},
	}

	if err := c.processMessage(context.Background(), Message{Headers: map[string]string{}}); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestProcessMessage_MiddlewareOrder(t *testing.T) {
	var order []string
	c := &Consumer{
		log: logger.Discard(),
		handler: func(ctx context.Context, msg Message) error {
			order = append(order, "handler")
			return nil
		},
	}
	for _, name := range []string{"outer", "inner"} {
		name := name
		c.Use(func(ctx context.Context, msg Message, next MessageHandler) error {
			order = append(order, name)
			return next(ctx, msg)
		})
	}

	if err := c.processMessage(context.Background(), Message{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(order) != "[outer inner handler]" {
		t.Errorf("unexpected order %v", order)
	}
}
