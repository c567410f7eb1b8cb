package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "gather"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"

	DefaultLockBackend     = LockBackendMemory
	DefaultLockTTL         = 10 * time.Second
	DefaultLockWaitTimeout = 5 * time.Second
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisDB         = 0

	DefaultNotifyEnabled = false
	DefaultNotifyTopic   = "booking-events"
	DefaultNotifyBuffer  = 256
	DefaultNotifyGroupID = "booking-notifier"

	DefaultSMTPPort = 587
)
