package model

import "time"

const (
	PointsTypeAdded = "added"
	PointsTypeUsed  = "used"

	PointsEmojiAdded = "💰"
	PointsEmojiUsed  = "📅"
)

// PointsTransaction is an append-only ledger entry. Points is always positive;
// Type gives the direction.
type PointsTransaction struct {
	ID           string    `json:"id" bson:"_id" firestore:"-"`
	UserID       string    `json:"userId" bson:"user_id" firestore:"userId"`
	Type         string    `json:"type" bson:"type" firestore:"type"`
	Points       int       `json:"points" bson:"points" firestore:"points"`
	BalanceAfter int       `json:"balanceAfter" bson:"balance_after" firestore:"balanceAfter"`
	Description  string    `json:"description" bson:"description" firestore:"description"`
	Emoji        string    `json:"emoji" bson:"emoji" firestore:"emoji"`
	BookingID    string    `json:"bookingId,omitempty" bson:"booking_id,omitempty" firestore:"bookingId,omitempty"`
	CreatedBy    string    `json:"createdBy,omitempty" bson:"created_by,omitempty" firestore:"createdBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"created_at" firestore:"createdAt"`
}

// Signed returns the entry's effect on the balance.
func (t *PointsTransaction) Signed() int {
	if t.Type == PointsTypeUsed {
		return -t.Points
	}
	return t.Points
}

type PointsGrant struct {
	Points      int    `json:"points" validate:"required,min=1,max=1000"`
	Description string `json:"description,omitempty" validate:"omitempty,max=200"`
}

type PointsBalance struct {
	UserID              string     `json:"userId"`
	Points              int        `json:"points"`
	MembershipExpiresAt *time.Time `json:"membershipExpiresAt,omitempty"`
	Policy              string     `json:"policy"`
}
