package repository

import (
	"context"

	"blackyoga/pkg/model"
)

const (
	CollectionName      = "bookings"
	ClaimCollectionName = "bookingClaims"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Create(ctx context.Context, booking *model.Booking) error
	Update(ctx context.Context, booking *model.Booking) error
	// FindByUser returns the member's bookings, newest first.
	FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	// FindByClass returns the class's bookings with the given status in
	// booking order. An empty status matches every booking.
	FindByClass(ctx context.Context, classID, status string) ([]*model.Booking, error)
}

// ClaimRepository guards "one active booking per member and class". Claims
// are keyed by model.BookingClaimID so a second insert for the pair fails.
type ClaimRepository interface {
	Find(ctx context.Context, classID, userID string) (*model.BookingClaim, error)
	Create(ctx context.Context, claim *model.BookingClaim) error
	Delete(ctx context.Context, classID, userID string) error
}
