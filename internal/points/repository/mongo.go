package repository

import (
	"context"
	"fmt"

	"blackyoga/pkg/config"
	mongotx "blackyoga/pkg/db/mongo"
	"blackyoga/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPointsRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPointsRepository(cfg *config.Config) PointsRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPointsRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPointsRepository) Append(ctx context.Context, entry *model.PointsTransaction) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append points transaction: %w", err)
	}
	return nil
}

func (r *mongoPointsRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.PointsTransaction, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find points transactions: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*model.PointsTransaction{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode points transactions: %w", err)
	}
	return entries, nil
}

func (r *mongoPointsRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count points transactions: %w", err)
	}
	return count, nil
}
