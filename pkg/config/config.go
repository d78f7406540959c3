package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"blackyoga/pkg/client"
	"blackyoga/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	StoreBackend string

	FirestoreProjectID       string
	FirestoreDatabaseID      string
	FirestoreCredentialsFile string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	JWTSecret  string
	SessionTTL time.Duration

	LineChannelID      string
	LineAPIBaseURL     string
	LineMessagingToken string
	AdminLineIDs       []string

	StudioTimezone     string
	Location           *time.Location
	BookingWindow      time.Duration
	CancellationCutoff time.Duration
	EligibilityPolicy  string
	BookingCostPoints  int
	InitialPoints      int

	BookingTopic string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client

	// Clock overrides time.Now. Tests pin it to make booking windows deterministic.
	Clock func() time.Time
}

// Load reads the environment (and a .env file when present), validates the
// result and exits the process on invalid configuration.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := FromEnv(serviceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.Location, _ = time.LoadLocation(cfg.StudioTimezone)
	cfg.LogConfiguration()
	return cfg
}

func FromEnv(serviceName string) *Config {
	return &Config{
		StoreBackend: strings.ToLower(getEnvStr(EnvStoreBackend, DefaultStoreBackend)),

		FirestoreProjectID:       getEnvStr(EnvFirestoreProjectID, ""),
		FirestoreDatabaseID:      getEnvStr(EnvFirestoreDatabaseID, DefaultFirestoreDatabaseID),
		FirestoreCredentialsFile: getEnvStr(EnvFirestoreCredentialsFile, ""),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret:  getEnvStr(EnvJWTSecret, ""),
		SessionTTL: getEnvDuration(EnvSessionTTL, DefaultSessionTTL),

		LineChannelID:      getEnvStr(EnvLineChannelID, ""),
		LineAPIBaseURL:     getEnvStr(EnvLineAPIBaseURL, DefaultLineAPIBaseURL),
		LineMessagingToken: getEnvStr(EnvLineMessagingToken, ""),
		AdminLineIDs:       getEnvList(EnvAdminLineIDs),

		StudioTimezone:     getEnvStr(EnvStudioTimezone, DefaultStudioTimezone),
		BookingWindow:      getEnvDuration(EnvBookingWindow, DefaultBookingWindow),
		CancellationCutoff: getEnvDuration(EnvCancellationCutoff, DefaultCancellationCutoff),
		EligibilityPolicy:  strings.ToLower(getEnvStr(EnvEligibilityPolicy, DefaultEligibilityPolicy)),
		BookingCostPoints:  getEnvNum(EnvBookingCostPoints, DefaultBookingCostPoints),
		InitialPoints:      getEnvNum(EnvInitialPoints, DefaultInitialPoints),

		BookingTopic: getEnvStr(EnvBookingTopic, DefaultBookingTopic),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
}

// SetStore connects the client for the configured backend. The memory backend
// needs no connection.
func (cfg *Config) SetStore() {
	switch cfg.StoreBackend {
	case StoreFirestore:
		cfg.Client.SetFirestore(cfg.Log, cfg.FirestoreProjectID, cfg.FirestoreDatabaseID, cfg.FirestoreCredentialsFile)
	case StoreMongo:
		cfg.SetMongo()
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects Redis when REDIS_ADDR is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

func (cfg *Config) LineVerificationEnabled() bool {
	return cfg.LineChannelID != ""
}

func (cfg *Config) IsAdminLineID(lineID string) bool {
	return slices.Contains(cfg.AdminLineIDs, lineID)
}

// Now returns the current time in the studio timezone.
func (cfg *Config) Now() time.Time {
	now := time.Now()
	if cfg.Clock != nil {
		now = cfg.Clock()
	}
	if cfg.Location != nil {
		now = now.In(cfg.Location)
	}
	return now
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreBackend {
	case StoreFirestore:
		if cfg.FirestoreProjectID == "" {
			errors = append(errors, "FirestoreProjectID cannot be empty when STORE_BACKEND=firestore")
		}
	case StoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StoreMemory:
	default:
		errors = append(errors, fmt.Sprintf("StoreBackend must be one of [firestore, mongo, memory], got: %s", cfg.StoreBackend))
	}

	if len(cfg.JWTSecret) < 32 {
		errors = append(errors, "JWTSecret must be at least 32 characters")
	}
	if cfg.SessionTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SessionTTL must be positive, got: %s", cfg.SessionTTL))
	}

	if _, err := time.LoadLocation(cfg.StudioTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("StudioTimezone is not a valid IANA zone: %s", cfg.StudioTimezone))
	}
	if cfg.BookingWindow <= 0 {
		errors = append(errors, fmt.Sprintf("BookingWindow must be positive, got: %s", cfg.BookingWindow))
	}
	if cfg.CancellationCutoff < 0 {
		errors = append(errors, fmt.Sprintf("CancellationCutoff cannot be negative, got: %s", cfg.CancellationCutoff))
	}
	if cfg.EligibilityPolicy != PolicyPoints && cfg.EligibilityPolicy != PolicyMembership {
		errors = append(errors, fmt.Sprintf("EligibilityPolicy must be one of [points, membership], got: %s", cfg.EligibilityPolicy))
	}
	if cfg.EligibilityPolicy == PolicyPoints && cfg.BookingCostPoints <= 0 {
		errors = append(errors, fmt.Sprintf("BookingCostPoints must be positive with the points policy, got: %d", cfg.BookingCostPoints))
	}
	if cfg.InitialPoints < 0 {
		errors = append(errors, fmt.Sprintf("InitialPoints cannot be negative, got: %d", cfg.InitialPoints))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
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
		"store_backend", cfg.StoreBackend,
		"firestore_project_id", cfg.FirestoreProjectID,
		"firestore_database_id", cfg.FirestoreDatabaseID,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"redis_addr", cfg.RedisAddr,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"session_ttl", cfg.SessionTTL,
		"line_verification", cfg.LineVerificationEnabled(),
		"line_messaging_token_set", cfg.LineMessagingToken != "",
		"admin_line_ids", len(cfg.AdminLineIDs),
		"studio_timezone", cfg.StudioTimezone,
		"booking_window", cfg.BookingWindow,
		"cancellation_cutoff", cfg.CancellationCutoff,
		"eligibility_policy", cfg.EligibilityPolicy,
		"booking_cost_points", cfg.BookingCostPoints,
		"initial_points", cfg.InitialPoints,
		"booking_topic", cfg.BookingTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
	if !cfg.LineVerificationEnabled() {
		cfg.Log.Warn("LINE_CHANNEL_ID not set, login payloads are trusted without verification")
	}
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
