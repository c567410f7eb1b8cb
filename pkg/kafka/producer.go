package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafka_config "gather/pkg/kafka/config"
	"gather/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// Producer wraps a kafka-go writer with middleware and an optional dead
// letter topic.
type Producer struct {
	writer     *kafka.Writer
	dlqWriter  *kafka.Writer
	topic      string
	dlqTopic   string
	log        *logger.Logger
	middleware []ProducerMiddleware
	closed     bool
	mu         sync.RWMutex
}

type ProducerMiddleware func(ctx context.Context, msg Message, next func(ctx context.Context, msg Message) error) error

func NewProducer(cfg *kafka_config.Config, topic string, dlqTopic string, log *logger.Logger) (*Producer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if log == nil {
		log = logger.Discard()
	}

	compression := compressionCodec(cfg.Producer.Compression)

	var requiredAcks kafka.RequiredAcks
	switch cfg.Producer.RequireAcks {
	case 0:
		requiredAcks = kafka.RequireNone
	case 1:
		requiredAcks = kafka.RequireOne
	default:
		requiredAcks = kafka.RequireAll
	}

	producer := &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // same key, same partition, ordered per event
			RequiredAcks: requiredAcks,
			Compression:  compression,
			MaxAttempts:  cfg.Producer.MaxAttempts,
			BatchTimeout: cfg.Producer.BatchTimeout,
			Async:        cfg.Producer.Async,
			ErrorLogger:  errorLogger(log, topic),
		},
		topic:    topic,
		dlqTopic: dlqTopic,
		log:      log,
	}

	if dlqTopic != "" {
		producer.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  compression,
			MaxAttempts:  3,
			ErrorLogger:  errorLogger(log, dlqTopic),
		}
	}

	return producer, nil
}

func compressionCodec(name string) compress.Compression {
	switch name {
	case "none":
		return 0
	case "gzip":
		return compress.Gzip
	case "lz4":
		return compress.Lz4
	case "zstd":
		return compress.Zstd
	default:
		return compress.Snappy
	}
}

func errorLogger(log *logger.Logger, topic string) kafka.Logger {
	return kafka.LoggerFunc(func(msg string, args ...any) {
		log.Error("kafka client error", "topic", topic, "detail", fmt.Sprintf(msg, args...))
	})
}

func (p *Producer) Use(middleware ProducerMiddleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.middleware = append(p.middleware, middleware)
}

func (p *Producer) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrProducerClosed
	}
	chain := append([]ProducerMiddleware(nil), p.middleware...)
	p.mu.RUnlock()

	if msg.Key == "" {
		return NewPermanentError("invalid message", ErrEmptyKey)
	}
	if len(msg.Value) == 0 {
		return NewPermanentError("invalid message", ErrEmptyValue)
	}
	msg.Topic = p.topic

	handler := p.publish
	for i := len(chain) - 1; i >= 0; i-- {
		middleware := chain[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return middleware(ctx, m, next)
		}
	}

	return handler(ctx, msg)
}

func (p *Producer) publish(ctx context.Context, msg Message) error {
	err := p.writer.WriteMessages(ctx, toKafkaMessage(msg))
	if err == nil {
		return nil
	}
	if ClassifyError(err) == ErrorTypePermanent && p.dlqWriter != nil {
		if dlqErr := p.sendToDLQ(ctx, msg, err); dlqErr != nil {
			p.log.Error("Failed to send message to DLQ",
				"topic", p.topic,
				"dlq_topic", p.dlqTopic,
				"key", msg.Key,
				"error", dlqErr,
			)
		}
	}
	return err
}

func (p *Producer) sendToDLQ(ctx context.Context, msg Message, originalErr error) error {
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = p.topic
	headers["dlq-error"] = originalErr.Error()
	headers["dlq-timestamp"] = time.Now().UTC().Format(time.RFC3339)
	msg.Headers = headers

	return p.dlqWriter.WriteMessages(ctx, toKafkaMessage(msg))
}

func toKafkaMessage(msg Message) kafka.Message {
	km := kafka.Message{
		Key:   []byte(msg.Key),
		Value: msg.Value,
		Time:  msg.Timestamp,
	}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return km
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	err := p.writer.Close()
	if p.dlqWriter != nil {
		if dlqErr := p.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}
