package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"gather/pkg/kafka"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	m := NewMetrics()
	publish := m.ProducerMiddleware()
	consume := m.ConsumerMiddleware()

	ok := func(ctx context.Context, msg kafka.Message) error { return nil }
	fail := func(ctx context.Context, msg kafka.Message) error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		_ = publish(context.Background(), kafka.Message{}, ok)
	}
	_ = publish(context.Background(), kafka.Message{}, fail)
	_ = consume(context.Background(), kafka.Message{}, ok)
	_ = consume(context.Background(), kafka.Message{}, fail)
	_ = consume(context.Background(), kafka.Message{}, fail)

	s := m.Snapshot()
	if s.Published != 3 || s.PublishFailed != 1 {
		t.Errorf("unexpected producer counts %+v", s)
	}
	if s.Consumed != 1 || s.ConsumeFailed != 2 {
		t.Errorf("unexpected consumer counts %+v", s)
	}
}

func TestMetrics_PassesErrorThrough(t *testing.T) {
	want := errors.New("downstream")
	err := NewMetrics().ConsumerMiddleware()(context.Background(), kafka.Message{}, func(ctx context.Context, msg kafka.Message) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}
