package main

import (
	authhandler "blackyoga/internal/auth/handler"
	authservice "blackyoga/internal/auth/service"
	bookingshandler "blackyoga/internal/bookings/handler"
	bookingsservice "blackyoga/internal/bookings/service"
	classeshandler "blackyoga/internal/classes/handler"
	classesservice "blackyoga/internal/classes/service"
	classesvalidator "blackyoga/internal/classes/validator"
	"blackyoga/internal/events"
	healthhandler "blackyoga/internal/health/handler"
	pointshandler "blackyoga/internal/points/handler"
	pointsservice "blackyoga/internal/points/service"
	"blackyoga/internal/storage"
	usershandler "blackyoga/internal/users/handler"
	usersservice "blackyoga/internal/users/service"
	"blackyoga/pkg/app"
	"blackyoga/pkg/config"
	"blackyoga/pkg/contracts"
	kafka_config "blackyoga/pkg/kafka/config"
	"blackyoga/pkg/line"
	"blackyoga/pkg/session"
	"blackyoga/pkg/validation"
)

const ServiceName = "studio-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	cfg.SetRedis()

	cfg.Log.Info("Starting studio API", "store_backend", cfg.StoreBackend)

	store, err := storage.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialise storage", "error", err)
	}

	publisher := initPublisher(cfg)
	tokens := session.NewTokens(cfg.JWTSecret, cfg.SessionTTL)
	handlers := initHandlers(cfg, store, publisher, tokens)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		healthhandler.NewHealthHandler(store.Pinger, store.Backend, cfg.Log),
		tokens,
		[]string{authhandler.LoginPath},
		handlers...,
	)
	serverApp.OnShutdown(publisher)
	serverApp.Run()
}

func initPublisher(cfg *config.Config) events.Publisher {
	kafkaCfg := kafka_config.FromEnv()
	if kafkaCfg.Enabled() {
		if err := kafkaCfg.Validate(); err != nil {
			cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
		}
		kafkaCfg.LogConfiguration(cfg.Log.Info)
	}

	publisher, err := events.NewPublisher(kafkaCfg, cfg.BookingTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking event publisher", "error", err)
	}
	return publisher
}

func initHandlers(cfg *config.Config, store *storage.Storage, publisher events.Publisher, tokens *session.Tokens) []contracts.Handler {
	validate := validation.New(cfg.Log)

	policy, err := bookingsservice.NewPolicy(cfg.EligibilityPolicy, cfg.BookingCostPoints)
	if err != nil {
		cfg.Log.Fatal("Invalid eligibility policy", "error", err)
	}

	ledger := pointsservice.NewLedger(store.Users, store.Points)

	userService := usersservice.NewUserService(store.Users, ledger, store.Tx, validate, cfg)

	var verifier authservice.LineVerifier
	if cfg.LineVerificationEnabled() {
		verifier = line.NewClient(cfg.LineAPIBaseURL)
	}
	authService := authservice.NewAuthService(userService, verifier, tokens, cfg)

	classService := classesservice.NewClassService(
		store.Classes,
		store.Bookings,
		store.Users,
		store.Tx,
		classesvalidator.NewClassValidator(validate),
		cfg,
	)

	pointsService := pointsservice.NewPointsService(
		store.Points,
		store.Users,
		ledger,
		store.Tx,
		validate,
		policy.Name(),
		cfg,
	)

	bookingService := bookingsservice.NewBookingService(
		store.Bookings,
		store.Claims,
		store.Classes,
		store.Users,
		ledger,
		store.Tx,
		policy,
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized",
		"store_backend", store.Backend,
		"eligibility_policy", policy.Name(),
		"booking_cost_points", policy.Cost(),
	)

	return []contracts.Handler{
		authhandler.NewAuthHandler(authService, cfg.Log),
		usershandler.NewUserHandler(userService, cfg.Log),
		classeshandler.NewClassHandler(classService, cfg.Log),
		pointshandler.NewPointsHandler(pointsService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
	}
}
