package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "stayhub"
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

	// Advisory lock tuning for the check-then-insert sequence in
	// reservation creation. The TTL is a safety net for crashed holders;
	// normal release happens at the end of the request.
	DefaultRoomLockTTL           = 10 * time.Second
	DefaultRoomLockRetryInterval = 50 * time.Millisecond
	DefaultRoomLockWaitTimeout   = 2 * time.Second

	DefaultMaxStayNights = 30

	DefaultPaginationLimit = 100
)
