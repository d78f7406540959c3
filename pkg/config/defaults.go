package config

import "time"

const (
	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
	StoreMemory    = "memory"

	PolicyPoints     = "points"
	PolicyMembership = "membership"
)

const (
	DefaultStoreBackend = StoreFirestore

	DefaultFirestoreDatabaseID = "(default)"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "blackyoga"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisDB = 0

	DefaultPort = "8080"

	DefaultSessionTTL = 7 * 24 * time.Hour

	DefaultLineAPIBaseURL = "https://api.line.me"

	DefaultStudioTimezone     = "Asia/Bangkok"
	DefaultBookingWindow      = 24 * time.Hour
	DefaultCancellationCutoff = 3 * time.Hour
	DefaultEligibilityPolicy  = PolicyPoints
	DefaultBookingCostPoints  = 1
	DefaultInitialPoints      = 10

	DefaultBookingTopic = "studio.booking-events"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLogLevel = "info"
)
