package config

const (
	EnvStoreBackend = "STORE_BACKEND"

	EnvFirestoreProjectID       = "FIRESTORE_PROJECT_ID"
	EnvFirestoreDatabaseID      = "FIRESTORE_DATABASE_ID"
	EnvFirestoreCredentialsFile = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvFirestoreEmulatorHost    = "FIRESTORE_EMULATOR_HOST"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret  = "JWT_SECRET"
	EnvSessionTTL = "SESSION_TTL"

	EnvLineChannelID      = "LINE_CHANNEL_ID"
	EnvLineAPIBaseURL     = "LINE_API_BASE_URL"
	EnvLineMessagingToken = "LINE_MESSAGING_TOKEN"
	EnvAdminLineIDs       = "ADMIN_LINE_IDS"

	EnvStudioTimezone     = "STUDIO_TIMEZONE"
	EnvBookingWindow      = "BOOKING_WINDOW"
	EnvCancellationCutoff = "CANCELLATION_CUTOFF"
	EnvEligibilityPolicy  = "ELIGIBILITY_POLICY"
	EnvBookingCostPoints  = "BOOKING_COST_POINTS"
	EnvInitialPoints      = "INITIAL_POINTS"

	EnvBookingTopic = "KAFKA_BOOKING_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
