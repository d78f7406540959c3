package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"blackyoga/internal/notifier"
	"blackyoga/pkg/config"
	"blackyoga/pkg/kafka"
	kafka_config "blackyoga/pkg/kafka/config"
	kafka_middleware "blackyoga/pkg/kafka/middleware"
	"blackyoga/pkg/line"
)

const ServiceName = "studio-notifier"

func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	if !kafkaCfg.Enabled() {
		cfg.Log.Fatal("KAFKA_BROKERS must be set for the notifier")
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	if cfg.LineMessagingToken == "" {
		cfg.Log.Warn("LINE_MESSAGING_TOKEN not set, notifications are logged only")
	}
	n := notifier.New(line.NewClient(cfg.LineAPIBaseURL), cfg.LineMessagingToken, cfg.Location, cfg.Log)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.BookingTopic, kafkaCfg.ConsumerGroupID, kafkaCfg.DLQTopic, n.Handle, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking event consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting notifier", "topic", cfg.BookingTopic, "group_id", kafkaCfg.ConsumerGroupID)
	startErr := consumer.Start(ctx)

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	if startErr != nil && !errors.Is(startErr, context.Canceled) {
		cfg.Log.Fatal("Consumer stopped", "error", startErr)
	}
	cfg.Log.Info("Notifier stopped")
}
