package service

import (
	"context"
	"errors"

	pointserrors "blackyoga/internal/points/errors"
	"blackyoga/internal/points/repository"
	userserrors "blackyoga/internal/users/errors"
	usersrepo "blackyoga/internal/users/repository"
	"blackyoga/pkg/config"
	"blackyoga/pkg/db"
	apperrors "blackyoga/pkg/errors"
	"blackyoga/pkg/metrics"
	"blackyoga/pkg/model"
	"blackyoga/pkg/sanitizer"
	"blackyoga/pkg/validation"

	"golang.org/x/sync/errgroup"
)

const DefaultGrantDescription = "แอดมินเพิ่มเครดิต"

type PointsService interface {
	GetBalance(ctx context.Context, sess model.Session) (*model.PointsBalance, error)
	GetHistory(ctx context.Context, sess model.Session, limit int, offset int64) ([]*model.PointsTransaction, int64, error)
	Grant(ctx context.Context, sess model.Session, userID string, grant *model.PointsGrant) (*model.PointsTransaction, error)
}

type pointsService struct {
	repo       repository.PointsRepository
	users      usersrepo.UserRepository
	ledger     *Ledger
	tx         db.TransactionManager
	validator  *validation.Validator
	policyName string
	cfg        *config.Config
}

func NewPointsService(
	repo repository.PointsRepository,
	users usersrepo.UserRepository,
	ledger *Ledger,
	tx db.TransactionManager,
	validator *validation.Validator,
	policyName string,
	cfg *config.Config,
) PointsService {
	return &pointsService{
		repo:       repo,
		users:      users,
		ledger:     ledger,
		tx:         tx,
		validator:  validator,
		policyName: policyName,
		cfg:        cfg,
	}
}

func (s *pointsService) GetBalance(ctx context.Context, sess model.Session) (*model.PointsBalance, error) {
	if sess.IsZero() {
		return nil, apperrors.Unauthorized("Login required")
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("User account no longer exists")
		}
		return nil, apperrors.Internal("Failed to retrieve points balance", err)
	}

	return &model.PointsBalance{
		UserID:              user.ID,
		Points:              user.Points,
		MembershipExpiresAt: user.MembershipExpiresAt,
		Policy:              s.policyName,
	}, nil
}

func (s *pointsService) GetHistory(ctx context.Context, sess model.Session, limit int, offset int64) ([]*model.PointsTransaction, int64, error) {
	if sess.IsZero() {
		return nil, 0, apperrors.Unauthorized("Login required")
	}

	var (
		entries []*model.PointsTransaction
		count   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.CountByUser(gctx, sess.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.repo.FindByUser(gctx, sess.UserID, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list points history", "user_id", sess.UserID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve points history", err)
	}

	return entries, count, nil
}

func (s *pointsService) Grant(ctx context.Context, sess model.Session, userID string, grant *model.PointsGrant) (*model.PointsTransaction, error) {
	if !sess.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can grant points")
	}
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	if err := s.validator.Struct(grant); err != nil {
		return nil, validationError("Points grant validation failed", err)
	}

	description := sanitizer.SanitizeText(grant.Description)
	if description == "" {
		description = DefaultGrantDescription
	}

	var entry *model.PointsTransaction
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, userserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("User", userID)
			}
			return apperrors.Internal("Failed to retrieve user", err)
		}

		entry, err = s.ledger.Credit(ctx, user, Entry{
			Points:      grant.Points,
			Description: description,
			CreatedBy:   sess.UserID,
			At:          s.cfg.Now(),
		})
		if err != nil {
			if errors.Is(err, pointserrors.ErrInvalidAmount) {
				return apperrors.InvalidInput(err.Error())
			}
			return apperrors.Internal("Failed to credit points", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to grant points", "user_id", userID, "admin_id", sess.UserID, "error", err)
		return nil, err
	}

	metrics.PointsMovedTotal.WithLabelValues(model.PointsTypeAdded).Add(float64(grant.Points))
	s.cfg.Log.Info("Points granted",
		"user_id", userID,
		"admin_id", sess.UserID,
		"points", grant.Points,
		"balance_after", entry.BalanceAfter,
	)
	return entry, nil
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
