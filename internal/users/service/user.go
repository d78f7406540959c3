package service

import (
	"context"
	"errors"

	pointsservice "blackyoga/internal/points/service"
	userserrors "blackyoga/internal/users/errors"
	"blackyoga/internal/users/repository"
	"blackyoga/pkg/config"
	"blackyoga/pkg/db"
	apperrors "blackyoga/pkg/errors"
	"blackyoga/pkg/model"
	"blackyoga/pkg/sanitizer"
	"blackyoga/pkg/validation"

	"golang.org/x/sync/errgroup"
)

const WelcomeDescription = "เครดิตเริ่มต้นสมาชิกใหม่"

type UserService interface {
	// FindOrCreate upserts the member behind a verified LINE identity and
	// reports whether the account was created.
	FindOrCreate(ctx context.Context, profile *model.LineProfile) (*model.User, bool, error)
	GetMe(ctx context.Context, sess model.Session) (*model.UserView, error)
	UpdateProfile(ctx context.Context, sess model.Session, update *model.ProfileUpdate) (*model.UserView, error)
	GetAll(ctx context.Context, sess model.Session, limit int, offset int64) ([]*model.UserView, int64, error)
	SetMembership(ctx context.Context, sess model.Session, userID string, update *model.MembershipUpdate) (*model.UserView, error)
}

type userService struct {
	repo      repository.UserRepository
	ledger    *pointsservice.Ledger
	tx        db.TransactionManager
	validator *validation.Validator
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	ledger *pointsservice.Ledger,
	tx db.TransactionManager,
	validator *validation.Validator,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		ledger:    ledger,
		tx:        tx,
		validator: validator,
		cfg:       cfg,
	}
}

func View(user *model.User) *model.UserView {
	return &model.UserView{User: user, NeedsOnboarding: user.NeedsOnboarding()}
}

func (s *userService) FindOrCreate(ctx context.Context, profile *model.LineProfile) (*model.User, bool, error) {
	if err := s.validator.Struct(profile); err != nil {
		return nil, false, validationError("LINE profile validation failed", err)
	}

	var (
		user    *model.User
		created bool
	)
	// A concurrent first login can win the insert; the second attempt then
	// finds the account and updates it.
	for attempt := 0; attempt < 2; attempt++ {
		err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
			var err error
			user, created, err = s.upsert(ctx, profile)
			return err
		})
		if err == nil {
			break
		}
		if errors.Is(err, userserrors.ErrAlreadyExists) && attempt == 0 {
			continue
		}
		if apperrors.IsAppError(err) {
			return nil, false, err
		}
		s.cfg.Log.Error("Failed to upsert user", "line_id", profile.LineID, "error", err)
		return nil, false, apperrors.Internal("Failed to save user", err)
	}

	if created {
		s.cfg.Log.Info("User created", "user_id", user.ID, "role", user.Role, "points", user.Points)
	}
	return user, created, nil
}

func (s *userService) upsert(ctx context.Context, profile *model.LineProfile) (*model.User, bool, error) {
	now := s.cfg.Now()
	role := model.RoleMember
	if s.cfg.IsAdminLineID(profile.LineID) {
		role = model.RoleAdmin
	}

	existing, err := s.repo.FindByID(ctx, profile.LineID)
	if err != nil && !errors.Is(err, userserrors.ErrNotFound) {
		return nil, false, err
	}

	if existing != nil {
		applyLineProfile(existing, profile)
		if role == model.RoleAdmin {
			existing.Role = model.RoleAdmin
		}
		existing.LastLoginAt = now
		existing.UpdatedAt = now
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	user := &model.User{
		ID:          profile.LineID,
		LineID:      profile.LineID,
		Role:        role,
		Points:      s.cfg.InitialPoints,
		IsNewUser:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastLoginAt: now,
	}
	applyLineProfile(user, profile)

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, false, err
	}
	if user.Points > 0 {
		if _, err := s.ledger.Record(ctx, user, model.PointsTypeAdded, pointsservice.Entry{
			Points:      user.Points,
			Description: WelcomeDescription,
			At:          now,
		}); err != nil {
			return nil, false, err
		}
	}
	return user, true, nil
}

func applyLineProfile(user *model.User, profile *model.LineProfile) {
	if name := sanitizer.SanitizeName(profile.DisplayName); name != "" {
		user.DisplayName = name
	}
	if url := sanitizer.SanitizeImageURL(profile.PictureURL); url != "" {
		user.PictureURL = url
	}
	if status := sanitizer.SanitizeText(profile.StatusMessage); status != "" {
		user.StatusMessage = status
	}
	if email := sanitizer.SanitizeEmail(profile.Email); email != "" {
		user.Email = email
	}
	if user.Email == "" {
		user.Email = user.LineID + "@line.me"
	}
}

func (s *userService) GetMe(ctx context.Context, sess model.Session) (*model.UserView, error) {
	if sess.IsZero() {
		return nil, apperrors.Unauthorized("Login required")
	}

	user, err := s.repo.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("User account no longer exists")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return View(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, sess model.Session, update *model.ProfileUpdate) (*model.UserView, error) {
	if sess.IsZero() {
		return nil, apperrors.Unauthorized("Login required")
	}

	s.sanitize(update)
	if update.IsEmpty() {
		return nil, apperrors.InvalidInput("No profile fields to update")
	}
	if err := s.validator.Struct(update); err != nil {
		s.cfg.Log.Warn("Profile validation failed", "user_id", sess.UserID, "error", err)
		return nil, validationError("Profile validation failed", err)
	}

	var user *model.User
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByID(ctx, sess.UserID)
		if err != nil {
			if errors.Is(err, userserrors.ErrNotFound) {
				return apperrors.Unauthorized("User account no longer exists")
			}
			return apperrors.Internal("Failed to retrieve user", err)
		}

		mergeProfile(user, update)
		user.IsNewUser = false
		user.UpdatedAt = s.cfg.Now()
		if err := s.repo.Update(ctx, user); err != nil {
			return apperrors.Internal("Failed to update profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Profile updated", "user_id", user.ID, "needs_onboarding", user.NeedsOnboarding())
	return View(user), nil
}

// sanitize normalizes the phone to E.164. A number that cannot be parsed is
// left as typed so validation reports it.
func (s *userService) sanitize(update *model.ProfileUpdate) {
	update.Nickname = sanitizer.SanitizeName(update.Nickname)
	update.FirstName = sanitizer.SanitizeName(update.FirstName)
	update.LastName = sanitizer.SanitizeName(update.LastName)
	update.Email = sanitizer.SanitizeEmail(update.Email)
	if phone := sanitizer.NormalizePhone(update.Phone); phone != "" {
		update.Phone = phone
	}
}

func mergeProfile(user *model.User, update *model.ProfileUpdate) {
	if update.Nickname != "" {
		user.Nickname = update.Nickname
	}
	if update.FirstName != "" {
		user.FirstName = update.FirstName
	}
	if update.LastName != "" {
		user.LastName = update.LastName
	}
	if update.Phone != "" {
		user.Phone = update.Phone
	}
	if update.Email != "" {
		user.Email = update.Email
	}
}

func (s *userService) GetAll(ctx context.Context, sess model.Session, limit int, offset int64) ([]*model.UserView, int64, error) {
	if !sess.IsAdmin() {
		return nil, 0, apperrors.Forbidden("Only admins can list members")
	}

	var (
		users []*model.User
		count int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.repo.FindAll(gctx, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list users", "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve users", err)
	}

	views := make([]*model.UserView, len(users))
	for i, u := range users {
		views[i] = View(u)
	}
	return views, count, nil
}

// SetMembership sets or clears (nil expiresAt) a member's membership expiry.
func (s *userService) SetMembership(ctx context.Context, sess model.Session, userID string, update *model.MembershipUpdate) (*model.UserView, error) {
	if !sess.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can change memberships")
	}
	if userID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	var user *model.User
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, userserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("User", userID)
			}
			return apperrors.Internal("Failed to retrieve user", err)
		}

		user.MembershipExpiresAt = nil
		if update.ExpiresAt != nil {
			expires := update.ExpiresAt.UTC()
			user.MembershipExpiresAt = &expires
		}
		user.UpdatedAt = s.cfg.Now()
		if err := s.repo.Update(ctx, user); err != nil {
			return apperrors.Internal("Failed to update membership", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Membership updated",
		"user_id", userID,
		"admin_id", sess.UserID,
		"expires_at", user.MembershipExpiresAt,
	)
	return View(user), nil
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
