package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "wellnest"
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

	DefaultBookingHorizonMonths = 2

	DefaultSlotLockTTL        = 10 * time.Second
	DefaultMaxSlotsPerRequest = 500
	DefaultDefaultStartOfDay  = "09:00"
	DefaultDefaultEndOfDay    = "18:00"

	DefaultSlotCacheEnabled = true
	DefaultSlotCacheSize    = 2048

	DefaultKafkaEnabled           = false
	DefaultAppointmentEventsTopic = "wellnest.appointments"
	DefaultAppointmentEventsDLQ   = "wellnest.appointments.dlq"

	DefaultPaginationLimit = 100
)
