package kafka_middleware

import (
	"context"
	"time"

	"gather/pkg/kafka"
	"gather/pkg/logger"
)

func LoggingProducerMiddleware(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		args := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.Error("Failed to publish kafka message", append(args, "error", err)...)
			return err
		}
		log.Debug("Published kafka message", args...)
		return nil
	}
}

func LoggingConsumerMiddleware(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		args := []any{
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.Warn("Failed to process kafka message", append(args, "error", err)...)
			return err
		}
		log.Info("Processed kafka message", args...)
		return nil
	}
}
