package repository

import (
	"context"
	"time"

	classerrors "blackyoga/internal/classes/errors"
	"blackyoga/pkg/db/memory"
	"blackyoga/pkg/model"
)

type memoryClassRepository struct {
	store *memory.Store
}

func NewMemoryClassRepository(store *memory.Store) ClassRepository {
	return &memoryClassRepository{store: store}
}

func (r *memoryClassRepository) FindByID(ctx context.Context, id string) (*model.Class, error) {
	class, ok := memory.Get[model.Class](ctx, r.store, CollectionName, id)
	if !ok {
		return nil, classerrors.ErrNotFound
	}
	return &class, nil
}

func (r *memoryClassRepository) Create(ctx context.Context, class *model.Class) error {
	memory.Insert(ctx, r.store, CollectionName, class.ID, *class)
	return nil
}

func (r *memoryClassRepository) Update(ctx context.Context, class *model.Class) error {
	if _, ok := memory.Get[model.Class](ctx, r.store, CollectionName, class.ID); !ok {
		return classerrors.ErrNotFound
	}
	memory.Put(ctx, r.store, CollectionName, class.ID, *class)
	return nil
}

func (r *memoryClassRepository) Delete(ctx context.Context, id string) error {
	if !memory.Delete(ctx, r.store, CollectionName, id) {
		return classerrors.ErrNotFound
	}
	return nil
}

func (r *memoryClassRepository) upcoming(ctx context.Context, from time.Time) []model.Class {
	return memory.Filter(ctx, r.store, CollectionName,
		func(c model.Class) bool { return !c.StartsAt.Before(from) },
		func(a, b model.Class) bool { return a.StartsAt.Before(b.StartsAt) },
	)
}

func (r *memoryClassRepository) FindUpcoming(ctx context.Context, from time.Time, limit int, offset int64) ([]*model.Class, error) {
	page := memory.Page(r.upcoming(ctx, from), limit, offset)

	classes := make([]*model.Class, len(page))
	for i := range page {
		classes[i] = &page[i]
	}
	return classes, nil
}

func (r *memoryClassRepository) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	return int64(len(r.upcoming(ctx, from))), nil
}

func (r *memoryClassRepository) AdjustBookedCount(ctx context.Context, class *model.Class, delta int, at time.Time) error {
	stored, ok := memory.Get[model.Class](ctx, r.store, CollectionName, class.ID)
	if !ok {
		return classerrors.ErrNotFound
	}
	if stored.BookedCount != class.BookedCount {
		return classerrors.ErrCountChanged
	}
	if delta > 0 && stored.BookedCount+delta > stored.Capacity {
		return classerrors.ErrCountChanged
	}

	count, full := applyDelta(class, delta)
	stored.BookedCount, stored.IsFull, stored.UpdatedAt = count, full, at
	memory.Put(ctx, r.store, CollectionName, class.ID, stored)

	class.BookedCount, class.IsFull, class.UpdatedAt = count, full, at
	return nil
}
