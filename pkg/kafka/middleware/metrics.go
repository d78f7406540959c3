package kafka_middleware

import (
	"context"

	"blackyoga/pkg/kafka"
	"blackyoga/pkg/metrics"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		err := next(ctx, msg)
		metrics.EventsPublishedTotal.WithLabelValues(msg.GetEventType(), result(err)).Inc()
		return err
	}
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		err := next(ctx, msg)
		metrics.EventsConsumedTotal.WithLabelValues(msg.GetEventType(), result(err)).Inc()
		return err
	}
}

func result(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
