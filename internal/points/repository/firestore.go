package repository

import (
	"context"
	"fmt"

	"blackyoga/pkg/config"
	fsdb "blackyoga/pkg/db/firestore"
	"blackyoga/pkg/model"

	"cloud.google.com/go/firestore"
)

type firestorePointsRepository struct {
	cfg        *config.Config
	collection *firestore.CollectionRef
}

func NewFirestorePointsRepository(cfg *config.Config) PointsRepository {
	return &firestorePointsRepository{
		cfg:        cfg,
		collection: cfg.Client.Firestore.Collection(CollectionName),
	}
}

func (r *firestorePointsRepository) Append(ctx context.Context, entry *model.PointsTransaction) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Create(ctx, r.collection.Doc(entry.ID), entry); err != nil {
		return fmt.Errorf("failed to append points transaction: %w", err)
	}
	return nil
}

// FindByUser needs the composite index (userId ASC, createdAt DESC).
func (r *firestorePointsRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.PointsTransaction, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	q := r.collection.
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Offset(int(offset)).
		Limit(limit)

	entries, err := fsdb.Decode(fsdb.Documents(ctx, q), func(t *model.PointsTransaction, id string) { t.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to find points transactions: %w", err)
	}
	if entries == nil {
		entries = []*model.PointsTransaction{}
	}
	return entries, nil
}

func (r *firestorePointsRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := fsdb.Count(ctx, r.collection.Where("userId", "==", userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count points transactions: %w", err)
	}
	return count, nil
}
