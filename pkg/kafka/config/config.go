// Package kafka_config holds the broker settings shared by the bookings API,
// which publishes booking events, and the notifier, which consumes them.
package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gather/pkg/logger"
)

const (
	EnvBrokers          = "KAFKA_BROKERS"
	EnvDLQTopic         = "KAFKA_DLQ_TOPIC"
	EnvEnableMiddleware = "KAFKA_ENABLE_MIDDLEWARE"

	EnvProducerMaxAttempts  = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvProducerBatchTimeout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvProducerRequireAcks  = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvProducerCompression  = "KAFKA_PRODUCER_COMPRESSION"
	EnvProducerAsync        = "KAFKA_PRODUCER_ASYNC"

	EnvConsumerStartOffset       = "KAFKA_CONSUMER_START_OFFSET"
	EnvConsumerMinBytes          = "KAFKA_CONSUMER_MIN_BYTES"
	EnvConsumerMaxBytes          = "KAFKA_CONSUMER_MAX_BYTES"
	EnvConsumerMaxWait           = "KAFKA_CONSUMER_MAX_WAIT"
	EnvConsumerCommitInterval    = "KAFKA_CONSUMER_COMMIT_INTERVAL"
	EnvConsumerHeartbeatInterval = "KAFKA_CONSUMER_HEARTBEAT_INTERVAL"
	EnvConsumerSessionTimeout    = "KAFKA_CONSUMER_SESSION_TIMEOUT"
	EnvConsumerRebalanceTimeout  = "KAFKA_CONSUMER_REBALANCE_TIMEOUT"
	EnvConsumerMaxRetries        = "KAFKA_CONSUMER_MAX_RETRIES"
)

const (
	StartNewest int64 = -1
	StartOldest int64 = -2
)

var compressions = []string{"none", "gzip", "snappy", "lz4", "zstd"}

// ProducerConfig tunes the writer behind booking event publication. Events
// for one gathering share a key, so acks default to all replicas to keep
// that per-event order durable.
type ProducerConfig struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequireAcks  int
	Compression  string
	Async        bool
}

// ConsumerConfig tunes the notifier's group reader.
type ConsumerConfig struct {
	StartOffset       int64
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	CommitInterval    time.Duration
	HeartbeatInterval time.Duration
	SessionTimeout    time.Duration
	RebalanceTimeout  time.Duration
	MaxRetries        int
}

type Config struct {
	Brokers          []string
	DLQTopic         string
	EnableMiddleware bool

	Producer ProducerConfig
	Consumer ConsumerConfig
}

func Defaults() Config {
	return Config{
		Brokers:          []string{"localhost:9092"},
		DLQTopic:         "booking-events-dlq",
		EnableMiddleware: true,
		Producer: ProducerConfig{
			MaxAttempts:  3,
			BatchTimeout: 10 * time.Millisecond,
			RequireAcks:  -1,
			Compression:  "snappy",
		},
		Consumer: ConsumerConfig{
			StartOffset:       StartNewest,
			MinBytes:          1,
			MaxBytes:          10 << 20,
			MaxWait:           500 * time.Millisecond,
			CommitInterval:    time.Second,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    10 * time.Second,
			RebalanceTimeout:  time.Minute,
			MaxRetries:        3,
		},
	}
}

// Load reads the Kafka settings from the environment and validates them.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom overlays values found through lookup on the defaults. A value
// that does not parse is reported rather than silently replaced.
func LoadFrom(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()
	env := envReader{lookup: lookup}

	if raw, ok := env.get(EnvBrokers); ok {
		cfg.Brokers = splitBrokers(raw)
	}
	env.str(EnvDLQTopic, &cfg.DLQTopic)
	env.boolean(EnvEnableMiddleware, &cfg.EnableMiddleware)

	p := &cfg.Producer
	env.integer(EnvProducerMaxAttempts, &p.MaxAttempts)
	env.duration(EnvProducerBatchTimeout, &p.BatchTimeout)
	env.integer(EnvProducerRequireAcks, &p.RequireAcks)
	env.str(EnvProducerCompression, &p.Compression)
	env.boolean(EnvProducerAsync, &p.Async)

	c := &cfg.Consumer
	env.integer64(EnvConsumerStartOffset, &c.StartOffset)
	env.integer(EnvConsumerMinBytes, &c.MinBytes)
	env.integer(EnvConsumerMaxBytes, &c.MaxBytes)
	env.duration(EnvConsumerMaxWait, &c.MaxWait)
	env.duration(EnvConsumerCommitInterval, &c.CommitInterval)
	env.duration(EnvConsumerHeartbeatInterval, &c.HeartbeatInterval)
	env.duration(EnvConsumerSessionTimeout, &c.SessionTimeout)
	env.duration(EnvConsumerRebalanceTimeout, &c.RebalanceTimeout)
	env.integer(EnvConsumerMaxRetries, &c.MaxRetries)

	problems := append(env.errs, cfg.problems()...)
	if len(problems) > 0 {
		return nil, fmt.Errorf("kafka configuration validation failed: %w", joinProblems(problems))
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	if problems := cfg.problems(); len(problems) > 0 {
		return joinProblems(problems)
	}
	return nil
}

func (cfg *Config) problems() []string {
	var problems []string
	positive := func(name string, v int64) {
		if v <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %d", name, v))
		}
	}
	positiveDur := func(name string, d time.Duration) {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			problems = append(problems, fmt.Sprintf("Broker %d cannot be empty", i))
		}
	}

	p := cfg.Producer
	positive("Producer.MaxAttempts", int64(p.MaxAttempts))
	positiveDur("Producer.BatchTimeout", p.BatchTimeout)
	if p.RequireAcks < -1 || p.RequireAcks > 1 {
		problems = append(problems, fmt.Sprintf("Producer.RequireAcks must be -1, 0, or 1, got: %d", p.RequireAcks))
	}
	if !validCompression(p.Compression) {
		problems = append(problems, fmt.Sprintf("Producer.Compression must be one of [%s], got: %s", strings.Join(compressions, ", "), p.Compression))
	}

	c := cfg.Consumer
	if c.StartOffset != StartNewest && c.StartOffset != StartOldest {
		problems = append(problems, fmt.Sprintf("Consumer.StartOffset must be -1 (newest) or -2 (oldest), got: %d", c.StartOffset))
	}
	positive("Consumer.MinBytes", int64(c.MinBytes))
	positive("Consumer.MaxBytes", int64(c.MaxBytes))
	if c.MinBytes > c.MaxBytes {
		problems = append(problems, fmt.Sprintf("Consumer.MinBytes (%d) cannot exceed Consumer.MaxBytes (%d)", c.MinBytes, c.MaxBytes))
	}
	positiveDur("Consumer.MaxWait", c.MaxWait)
	positiveDur("Consumer.CommitInterval", c.CommitInterval)
	positiveDur("Consumer.HeartbeatInterval", c.HeartbeatInterval)
	positiveDur("Consumer.SessionTimeout", c.SessionTimeout)
	positiveDur("Consumer.RebalanceTimeout", c.RebalanceTimeout)
	if c.MaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("Consumer.MaxRetries cannot be negative, got: %d", c.MaxRetries))
	}
	return problems
}

func (cfg *Config) LogConfiguration(log *logger.Logger) {
	log.Info("Kafka configuration loaded successfully",
		"brokers", cfg.Brokers,
		"dlq_topic", cfg.DLQTopic,
		"enable_middleware", cfg.EnableMiddleware,
		"producer_require_acks", cfg.Producer.RequireAcks,
		"producer_compression", cfg.Producer.Compression,
		"producer_async", cfg.Producer.Async,
		"consumer_start_offset", cfg.Consumer.StartOffset,
		"consumer_max_retries", cfg.Consumer.MaxRetries,
		"consumer_commit_interval", cfg.Consumer.CommitInterval,
	)
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		brokers = append(brokers, strings.TrimSpace(b))
	}
	return brokers
}

func validCompression(name string) bool {
	for _, c := range compressions {
		if c == name {
			return true
		}
	}
	return false
}

func joinProblems(problems []string) error {
	var b strings.Builder
	b.WriteString("Configuration validation failed:\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return fmt.Errorf("%s", b.String())
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []string
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(key, raw, kind string) {
	e.errs = append(e.errs, fmt.Sprintf("%s=%q is not a valid %s", key, raw, kind))
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, v, "integer")
			return
		}
		*dst = n
	}
}

func (e *envReader) integer64(key string, dst *int64) {
	if v, ok := e.get(key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail(key, v, "integer")
			return
		}
		*dst = n
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, v, "boolean")
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, v, "duration")
			return
		}
		*dst = d
	}
}
