package model

import "time"

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

type Booking struct {
	ID            string     `json:"id" bson:"_id" firestore:"-"`
	UserID        string     `json:"userId" bson:"user_id" firestore:"userId"`
	ClassID       string     `json:"classId" bson:"class_id" firestore:"classId"`
	Status        string     `json:"status" bson:"status" firestore:"status"`
	PointsCharged int        `json:"pointsCharged" bson:"points_charged" firestore:"pointsCharged"`
	ClassName     string     `json:"className" bson:"class_name" firestore:"className"`
	ClassStartsAt time.Time  `json:"classStartsAt" bson:"class_starts_at" firestore:"classStartsAt"`
	CreatedAt     time.Time  `json:"createdAt" bson:"created_at" firestore:"createdAt"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty" bson:"cancelled_at,omitempty" firestore:"cancelledAt"`
}

func (b *Booking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// BookingClaim marks an active booking for a (class, user) pair. It exists
// only while that booking is confirmed.
type BookingClaim struct {
	ID        string    `json:"id" bson:"_id" firestore:"-"`
	BookingID string    `json:"bookingId" bson:"booking_id" firestore:"bookingId"`
	ClassID   string    `json:"classId" bson:"class_id" firestore:"classId"`
	UserID    string    `json:"userId" bson:"user_id" firestore:"userId"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at" firestore:"createdAt"`
}

func BookingClaimID(classID, userID string) string {
	return classID + "_" + userID
}

// BookingView is a booking joined with its class for history screens.
type BookingView struct {
	*Booking
	Class *Class `json:"class,omitempty"`
}

// RosterEntry is a confirmed booking with the member who holds it.
type RosterEntry struct {
	*Booking
	Member *User `json:"member,omitempty"`
}
