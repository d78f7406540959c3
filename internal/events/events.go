package events

import (
	"context"
	"time"
)

const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"

	SchemaVersion = "1"
	Source        = "studio-api"

	HeaderBookingID = "booking-id"
)

// EventID is stable per booking and event type, so a replayed publish of the
// same transition carries the same id.
func EventID(event BookingEvent) string {
	return event.BookingID + ":" + event.Type
}

// BookingEvent is emitted after a booking or cancellation commits.
type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"bookingId"`
	UserID        string    `json:"userId"`
	ClassID       string    `json:"classId"`
	ClassName     string    `json:"className"`
	ClassStartsAt time.Time `json:"classStartsAt"`
	PointsDelta   int       `json:"pointsDelta"`
	PointsBalance int       `json:"pointsBalance"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher delivers booking events. Implementations must be safe for
// concurrent use. Callers treat publish errors as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}
