package repository

import (
	"context"
	"fmt"

	userserrors "blackyoga/internal/users/errors"
	"blackyoga/pkg/config"
	fsdb "blackyoga/pkg/db/firestore"
	"blackyoga/pkg/model"

	"cloud.google.com/go/firestore"
)

type firestoreUserRepository struct {
	cfg        *config.Config
	collection *firestore.CollectionRef
}

func NewFirestoreUserRepository(cfg *config.Config) UserRepository {
	return &firestoreUserRepository{
		cfg:        cfg,
		collection: cfg.Client.Firestore.Collection(CollectionName),
	}
}

func (r *firestoreUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	snap, err := fsdb.Get(ctx, r.collection.Doc(id))
	if err != nil {
		if fsdb.IsNotFound(err) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	var user model.User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	user.ID = snap.Ref.ID
	return &user, nil
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Create(ctx, r.collection.Doc(user.ID), user); err != nil {
		if fsdb.IsAlreadyExists(err) {
			return userserrors.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *model.User) error {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := fsdb.Set(ctx, r.collection.Doc(user.ID), user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (r *firestoreUserRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.User, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	q := r.collection.OrderBy("createdAt", firestore.Desc).Offset(int(offset)).Limit(limit)
	users, err := fsdb.Decode(fsdb.Documents(ctx, q), func(u *model.User, id string) { u.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

func (r *firestoreUserRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := fsdb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := fsdb.Count(ctx, r.collection.Query)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
