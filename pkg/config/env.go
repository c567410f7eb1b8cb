package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLockBackend     = "LOCK_BACKEND"
	EnvLockTTL         = "LOCK_TTL"
	EnvLockWaitTimeout = "LOCK_WAIT_TIMEOUT"
	EnvRedisAddr       = "REDIS_ADDR"
	EnvRedisPassword   = "REDIS_PASSWORD"
	EnvRedisDB         = "REDIS_DB"

	EnvNotifyEnabled = "NOTIFY_ENABLED"
	EnvNotifyTopic   = "NOTIFY_TOPIC"
	EnvNotifyBuffer  = "NOTIFY_BUFFER"
	EnvNotifyGroupID = "NOTIFY_GROUP_ID"

	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUsername = "SMTP_USERNAME"
	EnvSMTPPassword = "SMTP_PASSWORD"
	EnvSMTPFrom     = "SMTP_FROM"
)
