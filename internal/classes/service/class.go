package service

import (
	"context"
	"errors"
	"time"

	bookingsrepo "blackyoga/internal/bookings/repository"
	classerrors "blackyoga/internal/classes/errors"
	"blackyoga/internal/classes/repository"
	"blackyoga/internal/classes/validator"
	userserrors "blackyoga/internal/users/errors"
	usersrepo "blackyoga/internal/users/repository"
	"blackyoga/pkg/config"
	"blackyoga/pkg/db"
	apperrors "blackyoga/pkg/errors"
	"blackyoga/pkg/model"
	"blackyoga/pkg/sanitizer"
	"blackyoga/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const rosterLookupConcurrency = 8

type ClassService interface {
	Create(ctx context.Context, sess model.Session, input *model.ClassInput) (*model.Class, error)
	GetByID(ctx context.Context, id string) (*model.Class, error)
	GetUpcoming(ctx context.Context, limit int, offset int64) ([]*model.Class, int64, error)
	Update(ctx context.Context, sess model.Session, id string, update *model.ClassUpdate) (*model.Class, error)
	Delete(ctx context.Context, sess model.Session, id string) error
	GetRoster(ctx context.Context, sess model.Session, id string) ([]*model.RosterEntry, error)
}

type classService struct {
	repo      repository.ClassRepository
	bookings  bookingsrepo.BookingRepository
	users     usersrepo.UserRepository
	tx        db.TransactionManager
	validator *validator.ClassValidator
	cfg       *config.Config
}

func NewClassService(
	repo repository.ClassRepository,
	bookings bookingsrepo.BookingRepository,
	users usersrepo.UserRepository,
	tx db.TransactionManager,
	validator *validator.ClassValidator,
	cfg *config.Config,
) ClassService {
	return &classService{
		repo:      repo,
		bookings:  bookings,
		users:     users,
		tx:        tx,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *classService) Create(ctx context.Context, sess model.Session, input *model.ClassInput) (*model.Class, error) {
	if !sess.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can create classes")
	}

	s.sanitize(input)
	if err := s.validator.Validate(input); err != nil {
		s.cfg.Log.Warn("Class validation failed", "name", input.Name, "error", err)
		return nil, validationError("Class validation failed", err)
	}

	now := s.cfg.Now()
	class := &model.Class{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	if err := s.apply(class, input, now); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, class); err != nil {
		s.cfg.Log.Error("Failed to create class", "name", class.Name, "error", err)
		return nil, apperrors.Internal("Failed to create class", err)
	}

	s.cfg.Log.Info("Class created",
		"class_id", class.ID,
		"name", class.Name,
		"starts_at", class.StartsAt,
		"capacity", class.Capacity,
	)
	return class, nil
}

func (s *classService) GetByID(ctx context.Context, id string) (*model.Class, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Class ID cannot be empty")
	}

	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, classerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class", id)
		}
		return nil, apperrors.Internal("Failed to retrieve class", err)
	}
	return class, nil
}

// GetUpcoming lists classes from the start of today in the studio timezone,
// so classes earlier today stay visible.
func (s *classService) GetUpcoming(ctx context.Context, limit int, offset int64) ([]*model.Class, int64, error) {
	now := s.cfg.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var (
		classes []*model.Class
		count   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.CountUpcoming(gctx, from)
		return err
	})
	g.Go(func() error {
		var err error
		classes, err = s.repo.FindUpcoming(gctx, from, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list classes", "from", from, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve classes", err)
	}

	return classes, count, nil
}

func (s *classService) Update(ctx context.Context, sess model.Session, id string, update *model.ClassUpdate) (*model.Class, error) {
	if !sess.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can update classes")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Class ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		return nil, validationError("Class validation failed", err)
	}

	var class *model.Class
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var err error
		class, err = s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, classerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Class", id)
			}
			return apperrors.Internal("Failed to retrieve class", err)
		}

		input := merge(class, update)
		s.sanitize(input)
		if err := s.validator.Validate(input); err != nil {
			return validationError("Class validation failed", err)
		}
		if input.Capacity < class.BookedCount {
			return apperrors.Conflict("Capacity cannot be lower than the number of booked members").
				WithDetails(map[string]any{"bookedCount": class.BookedCount})
		}

		if err := s.apply(class, input, s.cfg.Now()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, class); err != nil {
			return apperrors.Internal("Failed to update class", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Class updated", "class_id", id, "admin_id", sess.UserID)
	return class, nil
}

// Delete refuses while members hold bookings; cancelling them first keeps
// their refunds in the ledger.
func (s *classService) Delete(ctx context.Context, sess model.Session, id string) error {
	if !sess.IsAdmin() {
		return apperrors.Forbidden("Only admins can delete classes")
	}
	if id == "" {
		return apperrors.InvalidInput("Class ID cannot be empty")
	}

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		class, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, classerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Class", id)
			}
			return apperrors.Internal("Failed to retrieve class", err)
		}
		if class.BookedCount > 0 {
			return apperrors.Conflict("Class still has active bookings").
				WithDetails(map[string]any{"bookedCount": class.BookedCount})
		}

		if err := s.repo.Delete(ctx, id); err != nil {
			return apperrors.Internal("Failed to delete class", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Class deleted", "class_id", id, "admin_id", sess.UserID)
	return nil
}

func (s *classService) GetRoster(ctx context.Context, sess model.Session, id string) ([]*model.RosterEntry, error) {
	if !sess.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can view class rosters")
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	bookings, err := s.bookings.FindByClass(ctx, id, model.BookingStatusConfirmed)
	if err != nil {
		s.cfg.Log.Error("Failed to list class bookings", "class_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve class roster", err)
	}

	roster := make([]*model.RosterEntry, len(bookings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rosterLookupConcurrency)
	for i, booking := range bookings {
		roster[i] = &model.RosterEntry{Booking: booking}
		g.Go(func() error {
			user, err := s.users.FindByID(gctx, booking.UserID)
			if err != nil {
				if errors.Is(err, userserrors.ErrNotFound) {
					return nil
				}
				return err
			}
			roster[i].Member = user
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to load roster members", "class_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve class roster", err)
	}

	return roster, nil
}

func (s *classService) sanitize(input *model.ClassInput) {
	input.Name = sanitizer.SanitizeName(input.Name)
	input.Teacher = sanitizer.SanitizeName(input.Teacher)
	input.Description = sanitizer.SanitizeText(input.Description)
	input.Emoji = sanitizer.StripControl(input.Emoji)
	if input.Emoji == "" {
		input.Emoji = model.DefaultClassEmoji
	}
	if input.Capacity == 0 {
		input.Capacity = model.DefaultClassCapacity
	}
}

// apply copies a validated input onto class and derives the schedule fields.
func (s *classService) apply(class *model.Class, input *model.ClassInput, now time.Time) error {
	startsAt, endsAt, err := validator.Schedule(s.location(), input.Date, input.StartTime, input.EndTime)
	if err != nil {
		return apperrors.InvalidInput("Invalid class schedule: " + err.Error())
	}

	duration := input.DurationMinutes
	if duration == 0 {
		duration = int(endsAt.Sub(startsAt).Minutes())
	}
	if duration <= 0 {
		duration = model.DefaultClassDuration
	}

	class.Name = input.Name
	class.Teacher = input.Teacher
	class.Description = input.Description
	class.Emoji = input.Emoji
	class.Date = input.Date
	class.StartTime = input.StartTime
	class.EndTime = input.EndTime
	class.DurationMinutes = duration
	class.Capacity = input.Capacity
	class.IsFull = class.BookedCount >= class.Capacity
	class.StartsAt = startsAt
	class.EndsAt = endsAt
	class.UpdatedAt = now
	return nil
}

func (s *classService) location() *time.Location {
	if s.cfg.Location != nil {
		return s.cfg.Location
	}
	return time.UTC
}

// merge builds the full input a class would have after update. A changed
// schedule without an explicit duration gets its duration re-derived.
func merge(class *model.Class, update *model.ClassUpdate) *model.ClassInput {
	input := &model.ClassInput{
		Name:            class.Name,
		Teacher:         class.Teacher,
		Description:     class.Description,
		Emoji:           class.Emoji,
		Date:            class.Date,
		StartTime:       class.StartTime,
		EndTime:         class.EndTime,
		DurationMinutes: class.DurationMinutes,
		Capacity:        class.Capacity,
	}

	if update.Name != nil {
		input.Name = *update.Name
	}
	if update.Teacher != nil {
		input.Teacher = *update.Teacher
	}
	if update.Description != nil {
		input.Description = *update.Description
	}
	if update.Emoji != nil {
		input.Emoji = *update.Emoji
	}
	if update.Date != nil {
		input.Date = *update.Date
	}
	if update.StartTime != nil || update.EndTime != nil {
		input.DurationMinutes = 0
	}
	if update.StartTime != nil {
		input.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		input.EndTime = *update.EndTime
	}
	if update.DurationMinutes != nil {
		input.DurationMinutes = *update.DurationMinutes
	}
	if update.Capacity != nil {
		input.Capacity = *update.Capacity
	}
	return input
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
