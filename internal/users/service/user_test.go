package service

import (
	"context"
	"sync"
	"testing"
	"time"

	pointsrepo "blackyoga/internal/points/repository"
	pointsservice "blackyoga/internal/points/service"
	"blackyoga/internal/users/repository"
	"blackyoga/pkg/config"
	"blackyoga/pkg/db/memory"
	apperrors "blackyoga/pkg/errors"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/model"
	"blackyoga/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    UserService
	users  repository.UserRepository
	points pointsrepo.PointsRepository
	cfg    *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		InitialPoints: 10,
		AdminLineIDs:  []string{"Uadmin"},
		Log:           logger.Discard(),
		Clock:         func() time.Time { return testNow },
	}
	store := memory.NewStore()
	users := repository.NewMemoryUserRepository(store)
	points := pointsrepo.NewMemoryPointsRepository(store)
	ledger := pointsservice.NewLedger(users, points)

	return &fixture{
		svc:    NewUserService(users, ledger, store, validation.New(cfg.Log), cfg),
		users:  users,
		points: points,
		cfg:    cfg,
	}
}

func lineProfile(id string) *model.LineProfile {
	return &model.LineProfile{
		LineID:      id,
		DisplayName: "  Mali  ",
		PictureURL:  "https://profile.line-scdn.net/abc",
	}
}

func TestFindOrCreate_NewUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, created, err := f.svc.FindOrCreate(ctx, lineProfile("U1"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "U1", user.ID)
	assert.Equal(t, "Mali", user.DisplayName)
	assert.Equal(t, model.RoleMember, user.Role)
	assert.Equal(t, 10, user.Points)
	assert.True(t, user.IsNewUser)
	assert.Equal(t, "U1@line.me", user.Email)
	assert.Equal(t, testNow, user.LastLoginAt)

	history, err := f.points.FindByUser(ctx, "U1", 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.PointsTypeAdded, history[0].Type)
	assert.Equal(t, 10, history[0].Points)
	assert.Equal(t, 10, history[0].BalanceAfter)
	assert.Equal(t, WelcomeDescription, history[0].Description)
}

func TestFindOrCreate_ZeroInitialPointsSkipsLedger(t *testing.T) {
	f := newFixture(t)
	f.cfg.InitialPoints = 0
	ctx := context.Background()

	_, created, err := f.svc.FindOrCreate(ctx, lineProfile("U1"))
	require.NoError(t, err)
	assert.True(t, created)

	count, err := f.points.CountByUser(ctx, "U1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFindOrCreate_ExistingUserKeepsBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.FindOrCreate(ctx, lineProfile("U1"))
	require.NoError(t, err)

	stored, err := f.users.FindByID(ctx, "U1")
	require.NoError(t, err)
	stored.Points = 3
	stored.FirstName = "Mali"
	require.NoError(t, f.users.Update(ctx, stored))

	later := testNow.Add(time.Hour)
	f.cfg.Clock = func() time.Time { return later }

	profile := lineProfile("U1")
	profile.DisplayName = "Mali Yoga"
	user, created, err := f.svc.FindOrCreate(ctx, profile)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 3, user.Points)
	assert.Equal(t, "Mali", user.FirstName)
	assert.Equal(t, "Mali Yoga", user.DisplayName)
	assert.Equal(t, later, user.LastLoginAt)
	assert.Equal(t, testNow, user.CreatedAt)

	count, err := f.points.CountByUser(ctx, "U1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFindOrCreate_PromotesConfiguredAdmins(t *testing.T) {
	f := newFixture(t)

	user, _, err := f.svc.FindOrCreate(context.Background(), lineProfile("Uadmin"))
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
}

func TestFindOrCreate_RejectsInvalidProfile(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.FindOrCreate(context.Background(), &model.LineProfile{LineID: "U1"})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
}

func TestFindOrCreate_ConcurrentFirstLoginCreatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.svc.FindOrCreate(ctx, lineProfile("U1"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := f.points.CountByUser(ctx, "U1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.FindOrCreate(ctx, lineProfile("U1"))
	require.NoError(t, err)
	sess := model.Session{UserID: "U1", Role: model.RoleMember}

	view, err := f.svc.UpdateProfile(ctx, sess, &model.ProfileUpdate{
		FirstName: " Mali ",
		Phone:     "081-234-5678",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mali", view.FirstName)
	assert.Equal(t, "+66812345678", view.Phone)
	assert.False(t, view.IsNewUser)
	assert.False(t, view.NeedsOnboarding)
}

func TestUpdateProfile_PartialKeepsNeedsOnboarding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.FindOrCreate(ctx, lineProfile("U1"))
	require.NoError(t, err)

	view, err := f.svc.UpdateProfile(ctx, model.Session{UserID: "U1"}, &model.ProfileUpdate{Nickname: "Ml"})
	require.NoError(t, err)
	assert.False(t, view.IsNewUser)
	assert.True(t, view.NeedsOnboarding)
}

func TestUpdateProfile_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.FindOrCreate(ctx, lineProfile("U1"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		sess     model.Session
		update   *model.ProfileUpdate
		wantCode string
	}{
		{"anonymous", model.Session{}, &model.ProfileUpdate{FirstName: "A"}, apperrors.CodeUnauthorized},
		{"empty update", model.Session{UserID: "U1"}, &model.ProfileUpdate{FirstName: "   "}, apperrors.CodeInvalidInput},
		{"bad phone", model.Session{UserID: "U1"}, &model.ProfileUpdate{Phone: "12"}, apperrors.CodeValidation},
		{"bad email", model.Session{UserID: "U1"}, &model.ProfileUpdate{Email: "nope"}, apperrors.CodeValidation},
		{"deleted account", model.Session{UserID: "U404"}, &model.ProfileUpdate{FirstName: "A"}, apperrors.CodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateProfile(ctx, tt.sess, tt.update)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.AsAppError(err).Code)
		})
	}
}

func TestGetAll_AdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"U1", "U2", "U3"} {
		_, _, err := f.svc.FindOrCreate(ctx, lineProfile(id))
		require.NoError(t, err)
	}

	_, _, err := f.svc.GetAll(ctx, model.Session{UserID: "U1", Role: model.RoleMember}, 10, 0)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)

	users, total, err := f.svc.GetAll(ctx, model.Session{UserID: "Uadmin", Role: model.RoleAdmin}, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 2)
}

func TestSetMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _, err := f.svc.FindOrCreate(ctx, lineProfile("U1"))
	require.NoError(t, err)
	admin := model.Session{UserID: "Uadmin", Role: model.RoleAdmin}

	expires := testNow.Add(30 * 24 * time.Hour)
	view, err := f.svc.SetMembership(ctx, admin, "U1", &model.MembershipUpdate{ExpiresAt: &expires})
	require.NoError(t, err)
	require.NotNil(t, view.MembershipExpiresAt)
	assert.True(t, view.HasActiveMembership(testNow))

	view, err = f.svc.SetMembership(ctx, admin, "U1", &model.MembershipUpdate{})
	require.NoError(t, err)
	assert.Nil(t, view.MembershipExpiresAt)

	_, err = f.svc.SetMembership(ctx, admin, "U404", &model.MembershipUpdate{})
	assert.Equal(t, apperrors.CodeNotFound, apperrors.AsAppError(err).Code)

	_, err = f.svc.SetMembership(ctx, model.Session{UserID: "U1"}, "U1", &model.MembershipUpdate{ExpiresAt: &expires})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.AsAppError(err).Code)
}
