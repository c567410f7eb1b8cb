package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"time"

	"gather/pkg/client"
	"gather/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	JWTSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LockBackend     string
	LockTTL         time.Duration
	LockWaitTimeout time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	NotifyEnabled bool
	NotifyTopic   string
	NotifyBuffer  int
	NotifyGroupID string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	envErr := loadEnvFile()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LockBackend:     getEnvStr(EnvLockBackend, DefaultLockBackend),
		LockTTL:         getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockWaitTimeout: getEnvDuration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		RedisAddr:       getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword:   getEnvStr(EnvRedisPassword, ""),
		RedisDB:         getEnvNum(EnvRedisDB, DefaultRedisDB),

		NotifyEnabled: getEnvBool(EnvNotifyEnabled, DefaultNotifyEnabled),
		NotifyTopic:   getEnvStr(EnvNotifyTopic, DefaultNotifyTopic),
		NotifyBuffer:  getEnvNum(EnvNotifyBuffer, DefaultNotifyBuffer),
		NotifyGroupID: getEnvStr(EnvNotifyGroupID, DefaultNotifyGroupID),

		SMTPHost:     getEnvStr(EnvSMTPHost, ""),
		SMTPPort:     getEnvNum(EnvSMTPPort, DefaultSMTPPort),
		SMTPUsername: getEnvStr(EnvSMTPUsername, ""),
		SMTPPassword: getEnvStr(EnvSMTPPassword, ""),
		SMTPFrom:     getEnvStr(EnvSMTPFrom, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if envErr != nil {
		cfg.Log.Warn("Failed to load .env file", "error", envErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// loadEnvFile populates missing variables from a .env file in the working
// directory. Variables already present in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	switch cfg.LockBackend {
	case LockBackendMemory:
	case LockBackendRedis:
		if cfg.RedisAddr == "" {
			errors = append(errors, "RedisAddr cannot be empty when LockBackend is redis")
		}
	default:
		errors = append(errors, fmt.Sprintf("LockBackend must be one of [memory, redis], got: %s", cfg.LockBackend))
	}
	if cfg.LockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("LockTTL must be positive, got: %s", cfg.LockTTL))
	}
	if cfg.LockWaitTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("LockWaitTimeout must be positive, got: %s", cfg.LockWaitTimeout))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.NotifyEnabled && cfg.NotifyTopic == "" {
		errors = append(errors, "NotifyTopic cannot be empty when notifications are enabled")
	}
	if cfg.NotifyBuffer <= 0 {
		errors = append(errors, fmt.Sprintf("NotifyBuffer must be positive, got: %d", cfg.NotifyBuffer))
	}
	if cfg.SMTPPort < 1 || cfg.SMTPPort > 65535 {
		errors = append(errors, fmt.Sprintf("SMTPPort must be between 1 and 65535, got: %d", cfg.SMTPPort))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"lock_backend", cfg.LockBackend,
		"lock_ttl", cfg.LockTTL,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"redis_addr", cfg.RedisAddr,
		"notify_enabled", cfg.NotifyEnabled,
		"notify_topic", cfg.NotifyTopic,
		"notify_buffer", cfg.NotifyBuffer,
		"smtp_host", cfg.SMTPHost,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
