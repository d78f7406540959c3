package service

import (
	"context"
	"fmt"
	"time"

	pointserrors "blackyoga/internal/points/errors"
	"blackyoga/internal/points/repository"
	usersrepo "blackyoga/internal/users/repository"
	"blackyoga/pkg/model"

	"github.com/google/uuid"
)

// Ledger moves points on a user and appends the matching ledger entry. Its
// methods do not open transactions; callers run them inside one so the
// balance and the ledger never diverge.
type Ledger struct {
	users usersrepo.UserRepository
	repo  repository.PointsRepository
}

func NewLedger(users usersrepo.UserRepository, repo repository.PointsRepository) *Ledger {
	return &Ledger{users: users, repo: repo}
}

// Entry describes one ledger movement.
type Entry struct {
	Points      int
	Description string
	BookingID   string
	CreatedBy   string
	At          time.Time
}

func (l *Ledger) Credit(ctx context.Context, user *model.User, e Entry) (*model.PointsTransaction, error) {
	if e.Points <= 0 {
		return nil, pointserrors.ErrInvalidAmount
	}
	user.Points += e.Points
	return l.apply(ctx, user, model.PointsTypeAdded, e)
}

// Debit fails with ErrInsufficientPoints rather than letting the balance go
// negative.
func (l *Ledger) Debit(ctx context.Context, user *model.User, e Entry) (*model.PointsTransaction, error) {
	if e.Points <= 0 {
		return nil, pointserrors.ErrInvalidAmount
	}
	if user.Points < e.Points {
		return nil, pointserrors.ErrInsufficientPoints
	}
	user.Points -= e.Points
	return l.apply(ctx, user, model.PointsTypeUsed, e)
}

// Record appends an entry for points already applied to user, such as the
// opening balance of a new account written together with the user.
func (l *Ledger) Record(ctx context.Context, user *model.User, pointsType string, e Entry) (*model.PointsTransaction, error) {
	entry := newEntry(user, pointsType, e)
	if err := l.repo.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (l *Ledger) apply(ctx context.Context, user *model.User, pointsType string, e Entry) (*model.PointsTransaction, error) {
	user.UpdatedAt = e.At
	if err := l.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	return l.Record(ctx, user, pointsType, e)
}

func newEntry(user *model.User, pointsType string, e Entry) *model.PointsTransaction {
	emoji := model.PointsEmojiAdded
	if pointsType == model.PointsTypeUsed {
		emoji = model.PointsEmojiUsed
	}
	return &model.PointsTransaction{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Type:         pointsType,
		Points:       e.Points,
		BalanceAfter: user.Points,
		Description:  e.Description,
		Emoji:        emoji,
		BookingID:    e.BookingID,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.At,
	}
}
