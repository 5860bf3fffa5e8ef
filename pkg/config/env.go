package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotLockTTL        = "SLOT_LOCK_TTL"
	EnvMaxSlotsPerRequest = "MAX_SLOTS_PER_REQUEST"
	EnvDefaultStartOfDay  = "DEFAULT_START_OF_DAY"
	EnvDefaultEndOfDay    = "DEFAULT_END_OF_DAY"

	EnvSlotCacheEnabled = "SLOT_CACHE_ENABLED"
	EnvSlotCacheSize    = "SLOT_CACHE_SIZE"

	EnvKafkaEnabled           = "KAFKA_ENABLED"
	EnvAppointmentEventsTopic = "APPOINTMENT_EVENTS_TOPIC"
	EnvAppointmentEventsDLQ   = "APPOINTMENT_EVENTS_DLQ_TOPIC"
)
