// Package notifier turns booking events into LINE push messages.
package notifier

import (
	"context"
	"fmt"
	"time"

	"blackyoga/internal/events"
	"blackyoga/pkg/kafka"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/metrics"
)

const (
	ResultSent    = "sent"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"

	classTimeLayout = "02/01/2006 15:04"
)

// Pusher sends a text message to a LINE user.
type Pusher interface {
	PushText(ctx context.Context, channelToken, to, text string) error
}

type Notifier struct {
	pusher   Pusher
	token    string
	location *time.Location
	log      *logger.Logger
}

// New returns a notifier that pushes with channelToken. An empty token makes
// it log messages instead of sending them.
func New(pusher Pusher, channelToken string, location *time.Location, log *logger.Logger) *Notifier {
	if location == nil {
		location = time.UTC
	}
	return &Notifier{
		pusher:   pusher,
		token:    channelToken,
		location: location,
		log:      log,
	}
}

// Handle is a kafka.MessageHandler. Undecodable or unknown events are
// permanent failures; push failures are retried by the consumer.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	if version, ok := msg.GetHeader(kafka.HeaderSchemaVersion); ok && version != events.SchemaVersion {
		return kafka.NewPermanentError(fmt.Sprintf("unsupported booking event schema %q", version), nil)
	}

	var event events.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return err
	}
	if event.UserID == "" {
		return kafka.NewPermanentError("booking event without user", nil)
	}

	text, err := n.Render(event)
	if err != nil {
		return kafka.NewPermanentError(err.Error(), nil)
	}

	if n.token == "" {
		n.log.Info("LINE messaging disabled, notification not sent",
			"type", event.Type,
			"booking_id", event.BookingID,
			"user_id", event.UserID,
		)
		metrics.NotificationsTotal.WithLabelValues(ResultSkipped).Inc()
		return nil
	}

	if err := n.pusher.PushText(ctx, n.token, event.UserID, text); err != nil {
		metrics.NotificationsTotal.WithLabelValues(ResultFailed).Inc()
		return kafka.NewTransientError("push notification", err)
	}

	metrics.NotificationsTotal.WithLabelValues(ResultSent).Inc()
	n.log.Info("Notification sent",
		"type", event.Type,
		"booking_id", event.BookingID,
		"user_id", event.UserID,
	)
	return nil
}

// Render builds the member-facing message for event.
func (n *Notifier) Render(event events.BookingEvent) (string, error) {
	when := event.ClassStartsAt.In(n.location).Format(classTimeLayout)

	switch event.Type {
	case events.TypeBookingConfirmed:
		text := fmt.Sprintf("✅ จองคลาส %s สำเร็จ\n📅 %s", event.ClassName, when)
		if event.PointsDelta < 0 {
			text += fmt.Sprintf("\nใช้ %d เครดิต คงเหลือ %d เครดิต", -event.PointsDelta, event.PointsBalance)
		}
		return text, nil

	case events.TypeBookingCancelled:
		text := fmt.Sprintf("❌ ยกเลิกคลาส %s แล้ว\n📅 %s", event.ClassName, when)
		if event.PointsDelta > 0 {
			text += fmt.Sprintf("\nคืน %d เครดิต คงเหลือ %d เครดิต", event.PointsDelta, event.PointsBalance)
		}
		return text, nil
	}
	return "", fmt.Errorf("unknown event type %q", event.Type)
}
