package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	kafka_config "gather/pkg/kafka/config"
	"gather/pkg/logger"

	"github.com/segmentio/kafka-go"
)

const (
	fetchBackoff      = time.Second
	retryBackoffBase  = 200 * time.Millisecond
	retryBackoffLimit = 5 * time.Second
)

type Consumer struct {
	reader     *kafka.Reader
	dlqWriter  *kafka.Writer
	topic      string
	groupID    string
	dlqTopic   string
	maxRetries int
	handler    MessageHandler
	log        *logger.Logger
	middleware []ConsumerMiddleware
	closed     bool
	mu         sync.RWMutex
	wg         sync.WaitGroup
}

type ConsumerMiddleware func(ctx context.Context, msg Message, next MessageHandler) error

func NewConsumer(cfg *kafka_config.Config, topic, groupID, dlqTopic string, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}
	if groupID == "" {
		return nil, fmt.Errorf("group ID cannot be empty")
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}
	if log == nil {
		log = logger.Discard()
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		Topic:             topic,
		GroupID:           groupID,
		MinBytes:          cfg.Consumer.MinBytes,
		MaxBytes:          cfg.Consumer.MaxBytes,
		MaxWait:           cfg.Consumer.MaxWait,
		CommitInterval:    cfg.Consumer.CommitInterval,
		HeartbeatInterval: cfg.Consumer.HeartbeatInterval,
		SessionTimeout:    cfg.Consumer.SessionTimeout,
		RebalanceTimeout:  cfg.Consumer.RebalanceTimeout,
		StartOffset:       cfg.Consumer.StartOffset,
		ErrorLogger:       errorLogger(log, topic),
	})

	consumer := &Consumer{
		reader:     reader,
		topic:      topic,
		groupID:    groupID,
		dlqTopic:   dlqTopic,
		maxRetries: cfg.Consumer.MaxRetries,
		handler:    handler,
		log:        log,
	}

	if dlqTopic != "" {
		consumer.dlqWriter = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        dlqTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			MaxAttempts:  3,
			ErrorLogger:  errorLogger(log, dlqTopic),
		}
	}

	return consumer, nil
}

func (c *Consumer) Use(middleware ConsumerMiddleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware, middleware)
}

// Start consumes until ctx is cancelled. Every fetched message is committed
// after processing, whether it succeeded, was dead-lettered, or was dropped.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrConsumerClosed
	}
	c.wg.Add(1)
	c.mu.RUnlock()
	defer c.wg.Done()

	for {
		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return ErrConsumerClosed
			}
			c.log.Warn("Failed to fetch kafka message", "topic", c.topic, "error", err)
			if !sleep(ctx, fetchBackoff) {
				return ctx.Err()
			}
			continue
		}

		msg := fromKafkaMessage(kafkaMsg)
		if err := c.processMessage(ctx, msg); err != nil {
			c.log.Error("Failed to process kafka message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", msg.Key,
				"event_id", msg.GetEventID(),
				"error", err,
			)
		}

		if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn("Failed to commit kafka offset", "topic", c.topic, "offset", kafkaMsg.Offset, "error", err)
		}
	}
}

// processMessage runs the handler chain, retrying transient failures with
// exponential backoff and dead-lettering whatever still fails.
func (c *Consumer) processMessage(ctx context.Context, msg Message) error {
	c.mu.RLock()
	chain := append([]ConsumerMiddleware(nil), c.middleware...)
	c.mu.RUnlock()

	handler := c.handler
	for i := len(chain) - 1; i >= 0; i-- {
		middleware := chain[i]
		next := handler
		handler = func(ctx context.Context, m Message) error {
			return middleware(ctx, m, next)
		}
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = handler(ctx, msg)
		if err == nil {
			return nil
		}
		if !ShouldRetry(err, attempt, c.maxRetries) {
			break
		}
		msg.IncrementRetryCount()
		c.log.Warn("Retrying kafka message",
			"topic", msg.Topic,
			"key", msg.Key,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"error", err,
		)
		if !sleep(ctx, backoff(attempt)) {
			return ctx.Err()
		}
	}

	if c.dlqWriter != nil {
		if dlqErr := c.sendToDLQ(ctx, msg, err); dlqErr != nil {
			c.log.Error("Failed to send message to DLQ", "dlq_topic", c.dlqTopic, "error", dlqErr)
		} else {
			c.log.Warn("Message sent to DLQ", "dlq_topic", c.dlqTopic, "key", msg.Key, "retries", msg.GetRetryCount())
		}
	}
	return err
}

func backoff(attempt int) time.Duration {
	d := retryBackoffBase << attempt
	if d <= 0 || d > retryBackoffLimit {
		return retryBackoffLimit
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) sendToDLQ(ctx context.Context, msg Message, originalErr error) error {
	msg.Headers[HeaderOriginalTopic] = c.topic
	msg.Headers["dlq-error"] = originalErr.Error()
	msg.Headers["dlq-timestamp"] = time.Now().UTC().Format(time.RFC3339)
	msg.Headers["dlq-consumer-group"] = c.groupID

	return c.dlqWriter.WriteMessages(ctx, toKafkaMessage(msg))
}

func fromKafkaMessage(km kafka.Message) Message {
	msg := Message{
		Key:       string(km.Key),
		Value:     km.Value,
		Headers:   make(map[string]string, len(km.Headers)),
		Topic:     km.Topic,
		Partition: km.Partition,
		Offset:    km.Offset,
		Timestamp: km.Time,
	}
	for _, header := range km.Headers {
		msg.Headers[header.Key] = string(header.Value)
	}
	return msg
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.reader.Close()
	c.wg.Wait()

	if c.dlqWriter != nil {
		if dlqErr := c.dlqWriter.Close(); err == nil {
			err = dlqErr
		}
	}
	return err
}

func (c *Consumer) Stats() kafka.ReaderStats {
	return c.reader.Stats()
}
