package kafka_middleware

import (
	"context"
	"sync/atomic"
	"time"

	"gather/pkg/kafka"
)

// Metrics counts publish and consume outcomes. The zero value is ready to use.
type Metrics struct {
	published       atomic.Int64
	publishFailed   atomic.Int64
	publishDuration atomic.Int64

	consumed        atomic.Int64
	consumeFailed   atomic.Int64
	consumeDuration atomic.Int64
}

type Snapshot struct {
	Published          int64  `json:"published"`
	PublishFailed      int64  `json:"publish_failed"`
	AvgPublishDuration string `json:"avg_publish_duration"`
	Consumed           int64  `json:"consumed"`
	ConsumeFailed      int64  `json:"consume_failed"`
	AvgConsumeDuration string `json:"avg_consume_duration"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Snapshot() Snapshot {
	published := m.published.Load()
	consumed := m.consumed.Load()
	return Snapshot{
		Published:          published,
		PublishFailed:      m.publishFailed.Load(),
		AvgPublishDuration: average(m.publishDuration.Load(), published).String(),
		Consumed:           consumed,
		ConsumeFailed:      m.consumeFailed.Load(),
		AvgConsumeDuration: average(m.consumeDuration.Load(), consumed).String(),
	}
}

func average(total, n int64) time.Duration {
	if n == 0 {
		return 0
	}
	return time.Duration(total / n)
}

func (m *Metrics) ProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		if err != nil {
			m.publishFailed.Add(1)
			return err
		}
		m.published.Add(1)
		m.publishDuration.Add(int64(time.Since(start)))
		return nil
	}
}

func (m *Metrics) ConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		if err != nil {
			m.consumeFailed.Add(1)
			return err
		}
		m.consumed.Add(1)
		m.consumeDuration.Add(int64(time.Since(start)))
		return nil
	}
}
