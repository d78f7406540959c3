package repository

import (
	"context"

	"blackyoga/pkg/model"
)

const CollectionName = "pointsTransactions"

// PointsRepository is the append-only ledger. Entries are never updated or
// deleted.
type PointsRepository interface {
	Append(ctx context.Context, entry *model.PointsTransaction) error
	FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.PointsTransaction, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}
