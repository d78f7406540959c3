package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	classerrors "blackyoga/internal/classes/errors"
	"blackyoga/pkg/config"
	mongotx "blackyoga/pkg/db/mongo"
	"blackyoga/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoClassRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoClassRepository(cfg *config.Config) ClassRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoClassRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoClassRepository) FindByID(ctx context.Context, id string) (*model.Class, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var class model.Class
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&class); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, classerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find class: %w", err)
	}
	return &class, nil
}

func (r *mongoClassRepository) Create(ctx context.Context, class *model.Class) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, class); err != nil {
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

func (r *mongoClassRepository) Update(ctx context.Context, class *model.Class) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": class.ID}, class)
	if err != nil {
		return fmt.Errorf("failed to update class: %w", err)
	}
	if result.MatchedCount == 0 {
		return classerrors.ErrNotFound
	}
	return nil
}

func (r *mongoClassRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	if result.DeletedCount == 0 {
		return classerrors.ErrNotFound
	}
	return nil
}

func (r *mongoClassRepository) FindUpcoming(ctx context.Context, from time.Time, limit int, offset int64) ([]*model.Class, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"starts_at": bson.M{"$gte": from}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find classes: %w", err)
	}
	defer cursor.Close(ctx)

	classes := []*model.Class{}
	if err := cursor.All(ctx, &classes); err != nil {
		return nil, fmt.Errorf("failed to decode classes: %w", err)
	}
	return classes, nil
}

func (r *mongoClassRepository) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"starts_at": bson.M{"$gte": from}})
	if err != nil {
		return 0, fmt.Errorf("failed to count classes: %w", err)
	}
	return count, nil
}

// AdjustBookedCount only matches while booked_count still holds the value the
// caller read, and for increments while a seat is left.
func (r *mongoClassRepository) AdjustBookedCount(ctx context.Context, class *model.Class, delta int, at time.Time) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	count, full := applyDelta(class, delta)
	filter := bson.M{"_id": class.ID, "booked_count": class.BookedCount}
	if delta > 0 {
		filter["booked_count"] = bson.M{"$eq": class.BookedCount, "$lt": class.Capacity}
	}
	update := bson.M{"$set": bson.M{
		"booked_count": count,
		"is_full":      full,
		"updated_at":   at,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update booked count: %w", err)
	}
	if result.MatchedCount == 0 {
		return classerrors.ErrCountChanged
	}

	class.BookedCount, class.IsFull, class.UpdatedAt = count, full, at
	return nil
}
