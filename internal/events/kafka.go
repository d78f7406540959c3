package events

import (
	"context"
	"fmt"

	"blackyoga/pkg/kafka"
	kafka_config "blackyoga/pkg/kafka/config"
	kafka_middleware "blackyoga/pkg/kafka/middleware"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/middleware"
)

type producer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	producer producer
}

func NewKafkaPublisher(cfg *kafka_config.Config, topic string, log *logger.Logger) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(cfg, topic, cfg.DLQTopic, log)
	if err != nil {
		return nil, fmt.Errorf("create booking event producer: %w", err)
	}
	p.Use(kafka_middleware.LoggingProducerMiddleware(log))
	p.Use(kafka_middleware.MetricsProducerMiddleware())
	return &KafkaPublisher{producer: p}, nil
}

// Publish keys the message by class ID so events for one class keep their order.
func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.ClassID).
		WithValue(event).
		WithEventID(EventID(event)).
		WithEventType(event.Type).
		WithHeader(HeaderBookingID, event.BookingID).
		WithCorrelationID(middleware.RequestIDFrom(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithTimestamp(event.OccurredAt).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when no Kafka brokers are configured.
type NoopPublisher struct {
	log *logger.Logger
}

func NewNoopPublisher(log *logger.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(_ context.Context, event BookingEvent) error {
	p.log.Debug("Booking event not published, Kafka disabled",
		"type", event.Type,
		"booking_id", event.BookingID,
	)
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(cfg *kafka_config.Config, topic string, log *logger.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		log.Warn("KAFKA_BROKERS not set, booking events are disabled")
		return NewNoopPublisher(log), nil
	}
	return NewKafkaPublisher(cfg, topic, log)
}
