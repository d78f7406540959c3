package repository

import (
	"context"
	"time"

	"blackyoga/pkg/model"
)

const CollectionName = "classes"

type ClassRepository interface {
	FindByID(ctx context.Context, id string) (*model.Class, error)
	Create(ctx context.Context, class *model.Class) error
	Update(ctx context.Context, class *model.Class) error
	Delete(ctx context.Context, id string) error
	// FindUpcoming returns classes starting at or after from, earliest first.
	FindUpcoming(ctx context.Context, from time.Time, limit int, offset int64) ([]*model.Class, error)
	CountUpcoming(ctx context.Context, from time.Time) (int64, error)
	// AdjustBookedCount moves bookedCount by delta (floored at zero) and
	// recomputes isFull. On success class reflects the stored values.
	AdjustBookedCount(ctx context.Context, class *model.Class, delta int, at time.Time) error
}

// applyDelta returns the counters class would have after moving by delta.
func applyDelta(class *model.Class, delta int) (int, bool) {
	count := max(0, class.BookedCount+delta)
	return count, count >= class.Capacity
}
