package repository

import (
	"context"

	"blackyoga/pkg/db/memory"
	"blackyoga/pkg/model"
)

type memoryPointsRepository struct {
	store *memory.Store
}

func NewMemoryPointsRepository(store *memory.Store) PointsRepository {
	return &memoryPointsRepository{store: store}
}

func (r *memoryPointsRepository) Append(ctx context.Context, entry *model.PointsTransaction) error {
	memory.Put(ctx, r.store, CollectionName, entry.ID, *entry)
	return nil
}

func (r *memoryPointsRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.PointsTransaction, error) {
	all := r.byUser(ctx, userID)
	page := memory.Page(all, limit, offset)

	entries := make([]*model.PointsTransaction, len(page))
	for i := range page {
		entries[i] = &page[i]
	}
	return entries, nil
}

func (r *memoryPointsRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return int64(len(r.byUser(ctx, userID))), nil
}

func (r *memoryPointsRepository) byUser(ctx context.Context, userID string) []model.PointsTransaction {
	return memory.Filter(ctx, r.store, CollectionName,
		func(t model.PointsTransaction) bool { return t.UserID == userID },
		func(a, b model.PointsTransaction) bool { return a.CreatedAt.After(b.CreatedAt) },
	)
}
