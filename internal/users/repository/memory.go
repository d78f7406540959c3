package repository

import (
	"context"

	userserrors "blackyoga/internal/users/errors"
	"blackyoga/pkg/db/memory"
	"blackyoga/pkg/model"
)

type memoryUserRepository struct {
	store *memory.Store
}

func NewMemoryUserRepository(store *memory.Store) UserRepository {
	return &memoryUserRepository{store: store}
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := memory.Get[model.User](ctx, r.store, CollectionName, id)
	if !ok {
		return nil, userserrors.ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	if !memory.Insert(ctx, r.store, CollectionName, user.ID, *user) {
		return userserrors.ErrAlreadyExists
	}
	return nil
}

func (r *memoryUserRepository) Update(ctx context.Context, user *model.User) error {
	if _, ok := memory.Get[model.User](ctx, r.store, CollectionName, user.ID); !ok {
		return userserrors.ErrNotFound
	}
	memory.Put(ctx, r.store, CollectionName, user.ID, *user)
	return nil
}

func (r *memoryUserRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error) {
	all := memory.Filter[model.User](ctx, r.store, CollectionName, nil, func(a, b model.User) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	page := memory.Page(all, limit, offset)

	users := make([]*model.User, len(page))
	for i := range page {
		users[i] = &page[i]
	}
	return users, nil
}

func (r *memoryUserRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(memory.Filter[model.User](ctx, r.store, CollectionName, nil, nil))), nil
}
