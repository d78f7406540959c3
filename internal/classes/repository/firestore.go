package repository

import (
	"context"
	"fmt"
	"time"

	classerrors "blackyoga/internal/classes/errors"
	"blackyoga/pkg/config"
	fsdb "blackyoga/pkg/db/firestore"
	"blackyoga/pkg/model"

	"cloud.google.com/go/firestore"
)

type firestoreClassRepository struct {
	cfg        *config.Config
	collection *firestore.CollectionRef
}

func NewFirestoreClassRepository(cfg *config.Config) ClassRepository {
	return &firestoreClassRepository{
		cfg:        cfg,
		collection: cfg.Client.Firestore.Collection(CollectionName),
	}
}

func (r *firestoreClassRepository) FindByID(ctx context.Context, id string) (*model.Class, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	snap, err := fsdb.Get(ctx, r.collection.Doc(id))
	if err != nil {
		if fsdb.IsNotFound(err) {
			return nil, classerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find class: %w", err)
	}

	var class model.Class
	if err := snap.DataTo(&class); err != nil {
		return nil, fmt.Errorf("failed to decode class: %w", err)
	}
	class.ID = snap.Ref.ID
	return &class, nil
}

func (r *firestoreClassRepository) Create(ctx context.Context, class *model.Class) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Create(ctx, r.collection.Doc(class.ID), class); err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

func (r *firestoreClassRepository) Update(ctx context.Context, class *model.Class) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Set(ctx, r.collection.Doc(class.ID), class); err != nil {
		return fmt.Errorf("failed to update class: %w", err)
	}
	return nil
}

func (r *firestoreClassRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Delete(ctx, r.collection.Doc(id)); err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	return nil
}

func (r *firestoreClassRepository) upcoming(from time.Time) firestore.Query {
	return r.collection.Where("startsAt", ">=", from).OrderBy("startsAt", firestore.Asc)
}

func (r *firestoreClassRepository) FindUpcoming(ctx context.Context, from time.Time, limit int, offset int64) ([]*model.Class, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	q := r.upcoming(from).Offset(int(offset)).Limit(limit)
	classes, err := fsdb.Decode(fsdb.Documents(ctx, q), func(c *model.Class, id string) { c.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to find classes: %w", err)
	}
	if classes == nil {
		classes = []*model.Class{}
	}
	return classes, nil
}

func (r *firestoreClassRepository) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := fsdb.Count(ctx, r.upcoming(from))
	if err != nil {
		return 0, fmt.Errorf("failed to count classes: %w", err)
	}
	return count, nil
}

// AdjustBookedCount relies on the surrounding transaction having read the
// class; a concurrent change makes Firestore retry the whole transaction.
func (r *firestoreClassRepository) AdjustBookedCount(ctx context.Context, class *model.Class, delta int, at time.Time) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	count, full := applyDelta(class, delta)
	err := fsdb.Update(ctx, r.collection.Doc(class.ID), []firestore.Update{
		{Path: "bookedCount", Value: count},
		{Path: "isFull", Value: full},
		{Path: "updatedAt", Value: at},
	})
	if err != nil {
		if fsdb.IsNotFound(err) {
			return classerrors.ErrNotFound
		}
		return fmt.Errorf("failed to update booked count: %w", err)
	}

	class.BookedCount, class.IsFull, class.UpdatedAt = count, full, at
	return nil
}
