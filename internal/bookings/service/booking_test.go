package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bookingerrors "blackyoga/internal/bookings/errors"
	"blackyoga/internal/bookings/repository"
	classesrepo "blackyoga/internal/classes/repository"
	"blackyoga/internal/events"
	pointsrepo "blackyoga/internal/points/repository"
	pointsservice "blackyoga/internal/points/service"
	usersrepo "blackyoga/internal/users/repository"
	"blackyoga/pkg/config"
	"blackyoga/pkg/db/memory"
	apperrors "blackyoga/pkg/errors"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, event events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// flakyPointsRepository fails appends once armed, to abort a transaction
// after its other writes were made.
type flakyPointsRepository struct {
	pointsrepo.PointsRepository
	fail atomic.Bool
}

func (r *flakyPointsRepository) Append(ctx context.Context, entry *model.PointsTransaction) error {
	if r.fail.Load() {
		return errors.New("ledger unavailable")
	}
	return r.PointsRepository.Append(ctx, entry)
}

type fixture struct {
	svc       BookingService
	bookings  repository.BookingRepository
	claims    repository.ClaimRepository
	classes   classesrepo.ClassRepository
	users     usersrepo.UserRepository
	points    *flakyPointsRepository
	ledger    *pointsservice.Ledger
	publisher *capturingPublisher
	cfg       *config.Config
	now       time.Time
}

func newFixture(t *testing.T, policy EligibilityPolicy) *fixture {
	t.Helper()

	bangkok, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)

	f := &fixture{now: time.Date(2026, 3, 2, 10, 0, 0, 0, bangkok)}
	f.cfg = &config.Config{
		Location:           bangkok,
		BookingWindow:      24 * time.Hour,
		CancellationCutoff: 3 * time.Hour,
		Log:                logger.Discard(),
		Clock:              func() time.Time { return f.now },
	}

	store := memory.NewStore()
	f.bookings = repository.NewMemoryBookingRepository(store)
	f.claims = repository.NewMemoryClaimRepository(store)
	f.classes = classesrepo.NewMemoryClassRepository(store)
	f.users = usersrepo.NewMemoryUserRepository(store)
	f.points = &flakyPointsRepository{PointsRepository: pointsrepo.NewMemoryPointsRepository(store)}
	f.ledger = pointsservice.NewLedger(f.users, f.points)
	f.publisher = &capturingPublisher{}

	if policy == nil {
		policy = NewPointsPolicy(1)
	}
	f.svc = NewBookingService(f.bookings, f.claims, f.classes, f.users, f.ledger, store, policy, f.publisher, f.cfg)
	return f
}

// addUser creates a member whose opening balance is recorded in the ledger.
func (f *fixture) addUser(t *testing.T, id string, points int) model.Session {
	t.Helper()
	ctx := context.Background()

	user := &model.User{ID: id, LineID: id, Role: model.RoleMember, Points: points, CreatedAt: f.now}
	require.NoError(t, f.users.Create(ctx, user))
	if points > 0 {
		_, err := f.ledger.Record(ctx, user, model.PointsTypeAdded, pointsservice.Entry{Points: points, At: f.now.Add(-24 * time.Hour)})
		require.NoError(t, err)
	}
	return model.Session{UserID: id, Role: model.RoleMember}
}

func (f *fixture) addClass(t *testing.T, id string, startsIn time.Duration, capacity int) {
	t.Helper()

	startsAt := f.now.Add(startsIn)
	require.NoError(t, f.classes.Create(context.Background(), &model.Class{
		ID:        id,
		Name:      "Flow " + id,
		Date:      startsAt.Format(model.DateLayout),
		StartTime: startsAt.Format(model.ClockLayout),
		Capacity:  capacity,
		StartsAt:  startsAt,
		EndsAt:    startsAt.Add(time.Hour),
	}))
}

func (f *fixture) class(t *testing.T, id string) *model.Class {
	t.Helper()
	class, err := f.classes.FindByID(context.Background(), id)
	require.NoError(t, err)
	return class
}

func (f *fixture) balance(t *testing.T, id string) int {
	t.Helper()
	user, err := f.users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return user.Points
}

func (f *fixture) ledgerSum(t *testing.T, id string) int {
	t.Helper()
	entries, err := f.points.FindByUser(context.Background(), id, 0, 0)
	require.NoError(t, err)
	sum := 0
	for _, e := range entries {
		sum += e.Signed()
	}
	return sum
}

func code(err error) string {
	if err == nil {
		return ""
	}
	return apperrors.AsAppError(err).Code
}

func TestBook_Success(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.addUser(t, "U1", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)

	booking, err := f.svc.Book(context.Background(), sess, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 1, booking.PointsCharged)
	assert.Equal(t, "Flow c1", booking.ClassName)

	class := f.class(t, "c1")
	assert.Equal(t, 1, class.BookedCount)
	assert.False(t, class.IsFull)
	assert.Equal(t, 9, f.balance(t, "U1"))

	history, err := f.points.FindByUser(context.Background(), "U1", 1, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.PointsTypeUsed, history[0].Type)
	assert.Equal(t, "จองคลาส Flow c1", history[0].Description)
	assert.Equal(t, booking.ID, history[0].BookingID)

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, events.TypeBookingConfirmed, event.Type)
	assert.Equal(t, -1, event.PointsDelta)
	assert.Equal(t, 9, event.PointsBalance)
}

func TestBook_Window(t *testing.T) {
	tests := []struct {
		name     string
		startsIn time.Duration
		wantCode string
	}{
		{"in five hours", 5 * time.Hour, ""},
		{"exactly one day ahead", 24 * time.Hour, ""},
		{"starting now", 0, ""},
		{"more than one day ahead", 24*time.Hour + time.Minute, bookingerrors.CodeOutsideBookingWindow},
		{"already started", -time.Minute, bookingerrors.CodeOutsideBookingWindow},
		{"next week", 7 * 24 * time.Hour, bookingerrors.CodeOutsideBookingWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			sess := f.addUser(t, "U1", 10)
			f.addClass(t, "c1", tt.startsIn, 10)

			_, err := f.svc.Book(context.Background(), sess, "c1")
			assert.Equal(t, tt.wantCode, code(err))
			if tt.wantCode != "" {
				assert.Equal(t, 0, f.class(t, "c1").BookedCount)
				assert.Equal(t, 10, f.balance(t, "U1"))
			}
		})
	}
}

func TestBook_DuplicateThenRebookAfterCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.addUser(t, "U1", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)

	first, err := f.svc.Book(ctx, sess, "c1")
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, sess, "c1")
	assert.Equal(t, bookingerrors.CodeDuplicateBooking, code(err))
	assert.Equal(t, 1, f.class(t, "c1").BookedCount)
	assert.Equal(t, 9, f.balance(t, "U1"))

	_, err = f.svc.Cancel(ctx, sess, first.ID)
	require.NoError(t, err)

	second, err := f.svc.Book(ctx, sess, "c1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, f.class(t, "c1").BookedCount)
	assert.Equal(t, 9, f.balance(t, "U1"))
}

func TestBook_CheckOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holder := f.addUser(t, "U1", 10)
	broke := f.addUser(t, "U2", 0)
	f.addClass(t, "c1", 5*time.Hour, 1)
	f.addClass(t, "far", 48*time.Hour, 1)

	_, err := f.svc.Book(ctx, holder, "c1")
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, holder, "c1")
	assert.Equal(t, bookingerrors.CodeDuplicateBooking, code(err), "duplicate is reported before full")

	_, err = f.svc.Book(ctx, broke, "c1")
	assert.Equal(t, bookingerrors.CodeClassFull, code(err), "full is reported before eligibility")

	_, err = f.svc.Book(ctx, broke, "far")
	assert.Equal(t, bookingerrors.CodeOutsideBookingWindow, code(err), "window is reported before eligibility")

	_, err = f.svc.Book(ctx, broke, "missing")
	assert.Equal(t, apperrors.CodeNotFound, code(err))

	_, err = f.svc.Book(ctx, model.Session{UserID: "Ughost"}, "c1")
	assert.Equal(t, apperrors.CodeUnauthorized, code(err))

	_, err = f.svc.Book(ctx, model.Session{}, "c1")
	assert.Equal(t, apperrors.CodeUnauthorized, code(err))
}

func TestBook_ConcurrentLastSlot(t *testing.T) {
	f := newFixture(t, nil)
	f.addClass(t, "c1", 5*time.Hour, 1)

	sessions := []model.Session{f.addUser(t, "U1", 10), f.addUser(t, "U2", 10)}

	var wg sync.WaitGroup
	errs := make([]error, len(sessions))
	start := make(chan struct{})
	for i, sess := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Book(context.Background(), sess, "c1")
		}()
	}
	close(start)
	wg.Wait()

	var succeeded, full int
	for _, err := range errs {
		switch code(err) {
		case "":
			succeeded++
		case bookingerrors.CodeClassFull:
			full++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, full)

	class := f.class(t, "c1")
	assert.Equal(t, 1, class.BookedCount)
	assert.True(t, class.IsFull)
	assert.Equal(t, 19, f.balance(t, "U1")+f.balance(t, "U2"))
}

func TestBook_ManyMembersNeverOverbook(t *testing.T) {
	f := newFixture(t, nil)
	f.addClass(t, "c1", 5*time.Hour, 3)

	const members = 12
	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < members; i++ {
		sess := f.addUser(t, "U"+string(rune('a'+i)), 5)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Book(context.Background(), sess, "c1"); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, succeeded.Load())
	class := f.class(t, "c1")
	assert.Equal(t, 3, class.BookedCount)
	assert.LessOrEqual(t, class.BookedCount, class.Capacity)

	confirmed, err := f.bookings.FindByClass(context.Background(), "c1", model.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Len(t, confirmed, 3)
}

func TestBook_Eligibility(t *testing.T) {
	t.Run("points policy without points", func(t *testing.T) {
		f := newFixture(t, nil)
		sess := f.addUser(t, "U1", 0)
		f.addClass(t, "c1", 5*time.Hour, 10)

		_, err := f.svc.Book(context.Background(), sess, "c1")
		require.Error(t, err)
		appErr := apperrors.AsAppError(err)
		assert.Equal(t, bookingerrors.CodeNotEligible, appErr.Code)
		assert.Equal(t, 402, appErr.StatusCode())
		assert.Equal(t, 0, f.class(t, "c1").BookedCount)
	})

	t.Run("membership policy", func(t *testing.T) {
		f := newFixture(t, NewMembershipPolicy())
		ctx := context.Background()
		sess := f.addUser(t, "U1", 2)
		f.addClass(t, "c1", 5*time.Hour, 10)

		_, err := f.svc.Book(ctx, sess, "c1")
		assert.Equal(t, bookingerrors.CodeNotEligible, code(err))

		user, err := f.users.FindByID(ctx, "U1")
		require.NoError(t, err)
		expires := f.now.Add(30 * 24 * time.Hour)
		user.MembershipExpiresAt = &expires
		require.NoError(t, f.users.Update(ctx, user))

		booking, err := f.svc.Book(ctx, sess, "c1")
		require.NoError(t, err)
		assert.Zero(t, booking.PointsCharged)
		assert.Equal(t, 2, f.balance(t, "U1"))

		_, err = f.svc.Cancel(ctx, sess, booking.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, f.balance(t, "U1"))
	})
}

func TestCancel_RefundsAndReleasesSeat(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.addUser(t, "U1", 10)
	f.addClass(t, "c1", 5*time.Hour, 1)

	booking, err := f.svc.Book(ctx, sess, "c1")
	require.NoError(t, err)
	require.True(t, f.class(t, "c1").IsFull)

	f.now = f.now.Add(time.Hour)
	cancelled, err := f.svc.Cancel(ctx, sess, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, f.now, *cancelled.CancelledAt)

	class := f.class(t, "c1")
	assert.Equal(t, 0, class.BookedCount)
	assert.False(t, class.IsFull)
	assert.Equal(t, 10, f.balance(t, "U1"))

	history, err := f.points.FindByUser(ctx, "U1", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, model.PointsTypeAdded, history[0].Type)
	assert.Equal(t, "คืนเครดิตจากการยกเลิกคลาส Flow c1", history[0].Description)

	_, err = f.claims.Find(ctx, "c1", "U1")
	assert.ErrorIs(t, err, bookingerrors.ErrClaimNotFound)

	assert.Equal(t, []string{events.TypeBookingConfirmed, events.TypeBookingCancelled}, f.publisher.types())
}

func TestCancel_Cutoff(t *testing.T) {
	tests := []struct {
		name     string
		startsIn time.Duration
		wantCode string
	}{
		{"four hours ahead", 4 * time.Hour, ""},
		{"just over three hours", 3*time.Hour + time.Minute, ""},
		{"exactly three hours", 3 * time.Hour, bookingerrors.CodeOutsideCancelWindow},
		{"one hour ahead", time.Hour, bookingerrors.CodeOutsideCancelWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			sess := f.addUser(t, "U1", 10)
			f.addClass(t, "c1", tt.startsIn, 10)

			booking, err := f.svc.Book(ctx, sess, "c1")
			require.NoError(t, err)

			_, err = f.svc.Cancel(ctx, sess, booking.ID)
			assert.Equal(t, tt.wantCode, code(err))
			if tt.wantCode != "" {
				stored, err := f.bookings.FindByID(ctx, booking.ID)
				require.NoError(t, err)
				assert.Equal(t, model.BookingStatusConfirmed, stored.Status)
				assert.Equal(t, 9, f.balance(t, "U1"))
			}
		})
	}
}

func TestCancel_Twice(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.addUser(t, "U1", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)

	booking, err := f.svc.Book(ctx, sess, "c1")
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, sess, booking.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, sess, booking.ID)
	assert.Equal(t, bookingerrors.CodeAlreadyCancelled, code(err))

	stored, err := f.bookings.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, stored.Status)
	assert.Equal(t, 10, f.balance(t, "U1"), "second cancel must not refund again")
	assert.Equal(t, 0, f.class(t, "c1").BookedCount)
}

func TestCancel_Authorization(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.addUser(t, "U1", 10)
	other := f.addUser(t, "U2", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)

	booking, err := f.svc.Book(ctx, owner, "c1")
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, other, booking.ID)
	assert.Equal(t, apperrors.CodeForbidden, code(err))

	_, err = f.svc.Cancel(ctx, owner, "missing")
	assert.Equal(t, apperrors.CodeNotFound, code(err))
}

func TestCancel_AtomicWhenRefundFails(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.addUser(t, "U1", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)

	booking, err := f.svc.Book(ctx, sess, "c1")
	require.NoError(t, err)

	f.points.fail.Store(true)
	_, err = f.svc.Cancel(ctx, sess, booking.ID)
	assert.Equal(t, apperrors.CodeInternal, code(err))
	f.points.fail.Store(false)

	stored, err := f.bookings.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, stored.Status)
	assert.Nil(t, stored.CancelledAt)
	assert.Equal(t, 1, f.class(t, "c1").BookedCount)
	assert.Equal(t, 9, f.balance(t, "U1"))
	_, err = f.claims.Find(ctx, "c1", "U1")
	assert.NoError(t, err)
	assert.Equal(t, []string{events.TypeBookingConfirmed}, f.publisher.types())

	_, err = f.svc.Cancel(ctx, sess, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.balance(t, "U1"))
}

func TestBook_AtomicWhenChargeFails(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.addUser(t, "U1", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)

	f.points.fail.Store(true)
	_, err := f.svc.Book(ctx, sess, "c1")
	assert.Equal(t, apperrors.CodeInternal, code(err))

	assert.Equal(t, 0, f.class(t, "c1").BookedCount)
	assert.Equal(t, 10, f.balance(t, "U1"))
	count, err := f.bookings.CountByUser(ctx, "U1")
	require.NoError(t, err)
	assert.Zero(t, count)
	_, err = f.claims.Find(ctx, "c1", "U1")
	assert.ErrorIs(t, err, bookingerrors.ErrClaimNotFound)
}

func TestCancel_DeletedClassStillRefunds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.addUser(t, "U1", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)

	booking, err := f.svc.Book(ctx, sess, "c1")
	require.NoError(t, err)
	require.NoError(t, f.classes.Delete(ctx, "c1"))

	_, err = f.svc.Cancel(ctx, sess, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, f.balance(t, "U1"))
}

func TestBalanceMatchesLedger(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.addUser(t, "U1", 3)
	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		f.addClass(t, id, 6*time.Hour, 5)
	}

	var booked []*model.Booking
	for _, id := range []string{"c1", "c2", "c3", "c4"} {
		if b, err := f.svc.Book(ctx, sess, id); err == nil {
			booked = append(booked, b)
		}
		assert.Equal(t, f.ledgerSum(t, "U1"), f.balance(t, "U1"))
	}
	require.Len(t, booked, 3, "the fourth booking runs out of points")

	_, err := f.svc.Cancel(ctx, sess, booked[1].ID)
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, sess, "c4")
	require.NoError(t, err)

	assert.Equal(t, f.ledgerSum(t, "U1"), f.balance(t, "U1"))
	assert.GreaterOrEqual(t, f.balance(t, "U1"), 0)
}

func TestPublishFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("kafka down")
	sess := f.addUser(t, "U1", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)

	_, err := f.svc.Book(context.Background(), sess, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.class(t, "c1").BookedCount)
}

func TestGetMineAndGetByID(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.addUser(t, "U1", 10)
	other := f.addUser(t, "U2", 10)
	f.addClass(t, "c1", 5*time.Hour, 10)
	f.addClass(t, "c2", 6*time.Hour, 10)

	first, err := f.svc.Book(ctx, sess, "c1")
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.svc.Book(ctx, sess, "c2")
	require.NoError(t, err)
	require.NoError(t, f.classes.Delete(ctx, "c1"))

	views, total, err := f.svc.GetMine(ctx, sess, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, views, 2)
	assert.Equal(t, "c2", views[0].ClassID)
	require.NotNil(t, views[0].Class)
	assert.Equal(t, "Flow c2", views[0].Class.Name)
	assert.Nil(t, views[1].Class)

	view, err := f.svc.GetByID(ctx, sess, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, view.ID)

	_, err = f.svc.GetByID(ctx, other, first.ID)
	assert.Equal(t, apperrors.CodeForbidden, code(err))

	_, err = f.svc.GetByID(ctx, model.Session{UserID: "Uadmin", Role: model.RoleAdmin}, first.ID)
	assert.NoError(t, err)
}
