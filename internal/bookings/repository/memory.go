package repository

import (
	"context"

	bookingerrors "blackyoga/internal/bookings/errors"
	"blackyoga/pkg/db/memory"
	"blackyoga/pkg/model"
)

type memoryBookingRepository struct {
	store *memory.Store
}

func NewMemoryBookingRepository(store *memory.Store) BookingRepository {
	return &memoryBookingRepository{store: store}
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, ok := memory.Get[model.Booking](ctx, r.store, CollectionName, id)
	if !ok {
		return nil, bookingerrors.ErrNotFound
	}
	return &booking, nil
}

func (r *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	memory.Insert(ctx, r.store, CollectionName, booking.ID, *booking)
	return nil
}

func (r *memoryBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	if _, ok := memory.Get[model.Booking](ctx, r.store, CollectionName, booking.ID); !ok {
		return bookingerrors.ErrNotFound
	}
	memory.Put(ctx, r.store, CollectionName, booking.ID, *booking)
	return nil
}

func (r *memoryBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	all := memory.Filter(ctx, r.store, CollectionName,
		func(b model.Booking) bool { return b.UserID == userID },
		func(a, b model.Booking) bool { return a.CreatedAt.After(b.CreatedAt) },
	)
	return pointers(memory.Page(all, limit, offset)), nil
}

func (r *memoryBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	all := memory.Filter(ctx, r.store, CollectionName,
		func(b model.Booking) bool { return b.UserID == userID },
		nil,
	)
	return int64(len(all)), nil
}

func (r *memoryBookingRepository) FindByClass(ctx context.Context, classID, status string) ([]*model.Booking, error) {
	all := memory.Filter(ctx, r.store, CollectionName,
		func(b model.Booking) bool {
			return b.ClassID == classID && (status == "" || b.Status == status)
		},
		func(a, b model.Booking) bool { return a.CreatedAt.Before(b.CreatedAt) },
	)
	return pointers(all), nil
}

func pointers(bookings []model.Booking) []*model.Booking {
	out := make([]*model.Booking, len(bookings))
	for i := range bookings {
		out[i] = &bookings[i]
	}
	return out
}

type memoryClaimRepository struct {
	store *memory.Store
}

func NewMemoryClaimRepository(store *memory.Store) ClaimRepository {
	return &memoryClaimRepository{store: store}
}

func (r *memoryClaimRepository) Find(ctx context.Context, classID, userID string) (*model.BookingClaim, error) {
	claim, ok := memory.Get[model.BookingClaim](ctx, r.store, ClaimCollectionName, model.BookingClaimID(classID, userID))
	if !ok {
		return nil, bookingerrors.ErrClaimNotFound
	}
	return &claim, nil
}

func (r *memoryClaimRepository) Create(ctx context.Context, claim *model.BookingClaim) error {
	if !memory.Insert(ctx, r.store, ClaimCollectionName, claim.ID, *claim) {
		return bookingerrors.ErrClaimExists
	}
	return nil
}

func (r *memoryClaimRepository) Delete(ctx context.Context, classID, userID string) error {
	memory.Delete(ctx, r.store, ClaimCollectionName, model.BookingClaimID(classID, userID))
	return nil
}
