package repository

import (
	"context"
	"fmt"

	bookingerrors "blackyoga/internal/bookings/errors"
	"blackyoga/pkg/config"
	fsdb "blackyoga/pkg/db/firestore"
	"blackyoga/pkg/model"

	"cloud.google.com/go/firestore"
)

type firestoreBookingRepository struct {
	cfg        *config.Config
	collection *firestore.CollectionRef
}

func NewFirestoreBookingRepository(cfg *config.Config) BookingRepository {
	return &firestoreBookingRepository{
		cfg:        cfg,
		collection: cfg.Client.Firestore.Collection(CollectionName),
	}
}

func (r *firestoreBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	snap, err := fsdb.Get(ctx, r.collection.Doc(id))
	if err != nil {
		if fsdb.IsNotFound(err) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	var booking model.Booking
	if err := snap.DataTo(&booking); err != nil {
		return nil, fmt.Errorf("failed to decode booking: %w", err)
	}
	booking.ID = snap.Ref.ID
	return &booking, nil
}

func (r *firestoreBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Create(ctx, r.collection.Doc(booking.ID), booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *firestoreBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Set(ctx, r.collection.Doc(booking.ID), booking); err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return nil
}

// FindByUser needs the composite index (userId ASC, createdAt DESC).
func (r *firestoreBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	q := r.collection.
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Offset(int(offset)).
		Limit(limit)
	return r.find(ctx, q)
}

func (r *firestoreBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := fsdb.Count(ctx, r.collection.Where("userId", "==", userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// FindByClass needs the composite index (classId ASC, status ASC, createdAt ASC).
func (r *firestoreBookingRepository) FindByClass(ctx context.Context, classID, status string) ([]*model.Booking, error) {
	q := r.collection.Where("classId", "==", classID)
	if status != "" {
		q = q.Where("status", "==", status)
	}
	return r.find(ctx, q.OrderBy("createdAt", firestore.Asc))
}

func (r *firestoreBookingRepository) find(ctx context.Context, q firestore.Query) ([]*model.Booking, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	bookings, err := fsdb.Decode(fsdb.Documents(ctx, q), func(b *model.Booking, id string) { b.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return bookings, nil
}

type firestoreClaimRepository struct {
	cfg        *config.Config
	collection *firestore.CollectionRef
}

func NewFirestoreClaimRepository(cfg *config.Config) ClaimRepository {
	return &firestoreClaimRepository{
		cfg:        cfg,
		collection: cfg.Client.Firestore.Collection(ClaimCollectionName),
	}
}

func (r *firestoreClaimRepository) Find(ctx context.Context, classID, userID string) (*model.BookingClaim, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	snap, err := fsdb.Get(ctx, r.collection.Doc(model.BookingClaimID(classID, userID)))
	if err != nil {
		if fsdb.IsNotFound(err) {
			return nil, bookingerrors.ErrClaimNotFound
		}
		return nil, fmt.Errorf("failed to find booking claim: %w", err)
	}

	var claim model.BookingClaim
	if err := snap.DataTo(&claim); err != nil {
		return nil, fmt.Errorf("failed to decode booking claim: %w", err)
	}
	claim.ID = snap.Ref.ID
	return &claim, nil
}

func (r *firestoreClaimRepository) Create(ctx context.Context, claim *model.BookingClaim) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Create(ctx, r.collection.Doc(claim.ID), claim); err != nil {
		if fsdb.IsAlreadyExists(err) {
			return bookingerrors.ErrClaimExists
		}
		return fmt.Errorf("failed to create booking claim: %w", err)
	}
	return nil
}

func (r *firestoreClaimRepository) Delete(ctx context.Context, classID, userID string) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Delete(ctx, r.collection.Doc(model.BookingClaimID(classID, userID))); err != nil {
		return fmt.Errorf("failed to delete booking claim: %w", err)
	}
	return nil
}
