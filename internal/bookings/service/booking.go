package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	bookingerrors "blackyoga/internal/bookings/errors"
	"blackyoga/internal/bookings/repository"
	classerrors "blackyoga/internal/classes/errors"
	classesrepo "blackyoga/internal/classes/repository"
	"blackyoga/internal/events"
	pointserrors "blackyoga/internal/points/errors"
	pointsservice "blackyoga/internal/points/service"
	userserrors "blackyoga/internal/users/errors"
	usersrepo "blackyoga/internal/users/repository"
	"blackyoga/pkg/config"
	"blackyoga/pkg/db"
	apperrors "blackyoga/pkg/errors"
	"blackyoga/pkg/metrics"
	"blackyoga/pkg/model"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	bookDescriptionPrefix   = "จองคลาส "
	refundDescriptionPrefix = "คืนเครดิตจากการยกเลิกคลาส "

	classLookupConcurrency = 8
)

type BookingService interface {
	Book(ctx context.Context, sess model.Session, classID string) (*model.Booking, error)
	Cancel(ctx context.Context, sess model.Session, bookingID string) (*model.Booking, error)
	GetMine(ctx context.Context, sess model.Session, limit int, offset int64) ([]*model.BookingView, int64, error)
	GetByID(ctx context.Context, sess model.Session, id string) (*model.BookingView, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	claims    repository.ClaimRepository
	classes   classesrepo.ClassRepository
	users     usersrepo.UserRepository
	ledger    *pointsservice.Ledger
	tx        db.TransactionManager
	policy    EligibilityPolicy
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	claims repository.ClaimRepository,
	classes classesrepo.ClassRepository,
	users usersrepo.UserRepository,
	ledger *pointsservice.Ledger,
	tx db.TransactionManager,
	policy EligibilityPolicy,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		claims:    claims,
		classes:   classes,
		users:     users,
		ledger:    ledger,
		tx:        tx,
		policy:    policy,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Book reserves a seat for the session user. Every check and write runs in
// one transaction, which is what keeps bookedCount within capacity when
// members race for the last seat.
func (s *bookingService) Book(ctx context.Context, sess model.Session, classID string) (*model.Booking, error) {
	if sess.IsZero() {
		return nil, apperrors.Unauthorized("Login required")
	}
	if classID == "" {
		return nil, apperrors.InvalidInput("Class ID cannot be empty")
	}

	var (
		booking *model.Booking
		class   *model.Class
		user    *model.User
	)
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		now := s.cfg.Now()

		var err error
		class, err = s.findClass(ctx, classID)
		if err != nil {
			return err
		}
		user, err = s.findUser(ctx, sess.UserID)
		if err != nil {
			return err
		}

		_, err = s.claims.Find(ctx, class.ID, user.ID)
		if err == nil {
			return bookingerrors.DuplicateBooking()
		}
		if !errors.Is(err, bookingerrors.ErrClaimNotFound) {
			return apperrors.Internal("Failed to check existing booking", err)
		}

		if !s.withinBookingWindow(class.StartsAt, now) {
			return bookingerrors.OutsideBookingWindow(formatWindow(s.cfg.BookingWindow))
		}
		if class.BookedCount >= class.Capacity {
			return bookingerrors.ClassFull()
		}
		if err := s.policy.Check(user, now); err != nil {
			return notEligible(err)
		}

		booking = &model.Booking{
			ID:            uuid.NewString(),
			UserID:        user.ID,
			ClassID:       class.ID,
			Status:        model.BookingStatusConfirmed,
			PointsCharged: s.policy.Cost(),
			ClassName:     class.Name,
			ClassStartsAt: class.StartsAt,
			CreatedAt:     now,
		}
		return s.applyBooking(ctx, booking, class, user, now)
	})
	if err != nil {
		s.record(metrics.BookingsTotal, err)
		s.logFailure("Booking rejected", err, "class_id", classID, "user_id", sess.UserID)
		return nil, err
	}

	metrics.BookingsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	if booking.PointsCharged > 0 {
		metrics.PointsMovedTotal.WithLabelValues(model.PointsTypeUsed).Add(float64(booking.PointsCharged))
	}
	s.cfg.Log.Info("Booking confirmed",
		"booking_id", booking.ID,
		"class_id", class.ID,
		"user_id", user.ID,
		"booked_count", class.BookedCount,
		"capacity", class.Capacity,
		"points_balance", user.Points,
	)
	s.publish(ctx, events.TypeBookingConfirmed, booking, user, -booking.PointsCharged)
	return booking, nil
}

func (s *bookingService) applyBooking(ctx context.Context, booking *model.Booking, class *model.Class, user *model.User, now time.Time) error {
	if err := s.repo.Create(ctx, booking); err != nil {
		return apperrors.Internal("Failed to create booking", err)
	}

	err := s.claims.Create(ctx, &model.BookingClaim{
		ID:        model.BookingClaimID(class.ID, user.ID),
		BookingID: booking.ID,
		ClassID:   class.ID,
		UserID:    user.ID,
		CreatedAt: now,
	})
	if err != nil {
		if errors.Is(err, bookingerrors.ErrClaimExists) {
			return bookingerrors.DuplicateBooking()
		}
		return apperrors.Internal("Failed to create booking claim", err)
	}

	if err := s.classes.AdjustBookedCount(ctx, class, 1, now); err != nil {
		if errors.Is(err, classerrors.ErrCountChanged) {
			return bookingerrors.ClassFull()
		}
		return apperrors.Internal("Failed to update class capacity", err)
	}

	if booking.PointsCharged > 0 {
		_, err := s.ledger.Debit(ctx, user, pointsservice.Entry{
			Points:      booking.PointsCharged,
			Description: bookDescriptionPrefix + class.Name,
			BookingID:   booking.ID,
			At:          now,
		})
		if err != nil {
			if errors.Is(err, pointserrors.ErrInsufficientPoints) {
				return notEligible(err)
			}
			return apperrors.Internal("Failed to charge points", err)
		}
	}
	return nil
}

// Cancel cancels the session user's booking and refunds what it was charged,
// atomically with releasing the seat.
func (s *bookingService) Cancel(ctx context.Context, sess model.Session, bookingID string) (*model.Booking, error) {
	if sess.IsZero() {
		return nil, apperrors.Unauthorized("Login required")
	}
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var (
		booking *model.Booking
		user    *model.User
	)
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		now := s.cfg.Now()

		var err error
		booking, err = s.repo.FindByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, bookingerrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", bookingID)
			}
			return apperrors.Internal("Failed to retrieve booking", err)
		}
		if booking.UserID != sess.UserID {
			return apperrors.Forbidden("You can only cancel your own bookings")
		}
		if booking.IsCancelled() {
			return bookingerrors.AlreadyCancelled()
		}

		// A deleted class still lets the member cancel and get a refund.
		class, err := s.classes.FindByID(ctx, booking.ClassID)
		if err != nil && !errors.Is(err, classerrors.ErrNotFound) {
			return apperrors.Internal("Failed to retrieve class", err)
		}
		user, err = s.findUser(ctx, booking.UserID)
		if err != nil {
			return err
		}

		startsAt := booking.ClassStartsAt
		if class != nil {
			startsAt = class.StartsAt
		}
		if startsAt.Sub(now) <= s.cfg.CancellationCutoff {
			return bookingerrors.OutsideCancellationWindow(formatWindow(s.cfg.CancellationCutoff))
		}

		return s.applyCancellation(ctx, booking, class, user, now)
	})
	if err != nil {
		s.record(metrics.CancellationsTotal, err)
		s.logFailure("Cancellation rejected", err, "booking_id", bookingID, "user_id", sess.UserID)
		return nil, err
	}

	metrics.CancellationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	if booking.PointsCharged > 0 {
		metrics.PointsMovedTotal.WithLabelValues(model.PointsTypeAdded).Add(float64(booking.PointsCharged))
	}
	s.cfg.Log.Info("Booking cancelled",
		"booking_id", booking.ID,
		"class_id", booking.ClassID,
		"user_id", user.ID,
		"refunded", booking.PointsCharged,
		"points_balance", user.Points,
	)
	s.publish(ctx, events.TypeBookingCancelled, booking, user, booking.PointsCharged)
	return booking, nil
}

func (s *bookingService) applyCancellation(ctx context.Context, booking *model.Booking, class *model.Class, user *model.User, now time.Time) error {
	booking.Status = model.BookingStatusCancelled
	booking.CancelledAt = &now
	if err := s.repo.Update(ctx, booking); err != nil {
		return apperrors.Internal("Failed to cancel booking", err)
	}

	if err := s.claims.Delete(ctx, booking.ClassID, booking.UserID); err != nil {
		return apperrors.Internal("Failed to release booking claim", err)
	}

	if class != nil {
		if err := s.classes.AdjustBookedCount(ctx, class, -1, now); err != nil {
			return apperrors.Internal("Failed to update class capacity", err)
		}
	}

	if booking.PointsCharged > 0 {
		_, err := s.ledger.Credit(ctx, user, pointsservice.Entry{
			Points:      booking.PointsCharged,
			Description: refundDescriptionPrefix + booking.ClassName,
			BookingID:   booking.ID,
			At:          now,
		})
		if err != nil {
			return apperrors.Internal("Failed to refund points", err)
		}
	}
	return nil
}

func (s *bookingService) GetMine(ctx context.Context, sess model.Session, limit int, offset int64) ([]*model.BookingView, int64, error) {
	if sess.IsZero() {
		return nil, 0, apperrors.Unauthorized("Login required")
	}

	var (
		bookings []*model.Booking
		count    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.CountByUser(gctx, sess.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		bookings, err = s.repo.FindByUser(gctx, sess.UserID, limit, offset)
		return err
	})
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to list bookings", "user_id", sess.UserID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}

	views, err := s.withClasses(ctx, bookings)
	if err != nil {
		s.cfg.Log.Error("Failed to load booked classes", "user_id", sess.UserID, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", err)
	}
	return views, count, nil
}

func (s *bookingService) GetByID(ctx context.Context, sess model.Session, id string) (*model.BookingView, error) {
	if sess.IsZero() {
		return nil, apperrors.Unauthorized("Login required")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if booking.UserID != sess.UserID && !sess.IsAdmin() {
		return nil, apperrors.Forbidden("You can only view your own bookings")
	}

	views, err := s.withClasses(ctx, []*model.Booking{booking})
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve booked class", err)
	}
	return views[0], nil
}

// withClasses joins each booking with its class, fetching distinct classes
// concurrently. Bookings of deleted classes keep a nil Class.
func (s *bookingService) withClasses(ctx context.Context, bookings []*model.Booking) ([]*model.BookingView, error) {
	classes := make(map[string]*model.Class)
	for _, b := range bookings {
		classes[b.ClassID] = nil
	}

	ids := make([]string, 0, len(classes))
	for id := range classes {
		ids = append(ids, id)
	}
	found := make([]*model.Class, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(classLookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			class, err := s.classes.FindByID(gctx, id)
			if err != nil {
				if errors.Is(err, classerrors.ErrNotFound) {
					return nil
				}
				return err
			}
			found[i] = class
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, id := range ids {
		classes[id] = found[i]
	}

	views := make([]*model.BookingView, len(bookings))
	for i, b := range bookings {
		views[i] = &model.BookingView{Booking: b, Class: classes[b.ClassID]}
	}
	return views, nil
}

func (s *bookingService) findClass(ctx context.Context, id string) (*model.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, classerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Class", id)
		}
		return nil, apperrors.Internal("Failed to retrieve class", err)
	}
	return class, nil
}

func (s *bookingService) findUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("User account no longer exists")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return user, nil
}

// withinBookingWindow reports whether a class starting at startsAt is not in
// the past and starts within the booking window.
func (s *bookingService) withinBookingWindow(startsAt, now time.Time) bool {
	return !now.After(startsAt) && startsAt.Sub(now) <= s.cfg.BookingWindow
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking, user *model.User, delta int) {
	event := events.BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		ClassID:       booking.ClassID,
		ClassName:     booking.ClassName,
		ClassStartsAt: booking.ClassStartsAt,
		PointsDelta:   delta,
		PointsBalance: user.Points,
		OccurredAt:    s.cfg.Now(),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

// record counts a failed attempt under its error code.
func (s *bookingService) record(counter *prometheus.CounterVec, err error) {
	counter.WithLabelValues(apperrors.AsAppError(err).Code).Inc()
}

// logFailure logs rule rejections at warn and everything else at error.
func (s *bookingService) logFailure(msg string, err error, args ...any) {
	args = append(args, "error", err)
	if apperrors.AsAppError(err).StatusCode() >= http.StatusInternalServerError {
		s.cfg.Log.Error(msg, args...)
		return
	}
	s.cfg.Log.Warn(msg, args...)
}

func notEligible(err error) error {
	switch {
	case errors.Is(err, pointserrors.ErrInsufficientPoints):
		return bookingerrors.NotEligible("Not enough points to book this class")
	case errors.Is(err, bookingerrors.ErrMembershipInactive):
		return bookingerrors.NotEligible("An active membership is required to book this class")
	}
	return bookingerrors.NotEligible(err.Error())
}

// formatWindow renders whole-hour durations as "24h" rather than "24h0m0s".
func formatWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		return strconv.Itoa(int(d/time.Hour)) + "h"
	}
	return d.String()
}
