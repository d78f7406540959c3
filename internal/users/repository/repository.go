package repository

import (
	"context"

	"blackyoga/pkg/model"
)

const CollectionName = "users"

// UserRepository stores members keyed by their LINE user ID. Calls made with
// a transaction context join that transaction.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error)
	Count(ctx context.Context) (int64, error)
}
