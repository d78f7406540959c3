package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"blackyoga/pkg/logger"
	"blackyoga/pkg/model"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingHandler(calls *atomic.Int32, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]int32{"call": n})
	})
}

func bookRequest(userID, key string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/classes/id/c1/book", nil)
	if key != "" {
		r.Header.Set(DefaultIdempotencyHeader, key)
	}
	return r.WithContext(WithSession(r.Context(), model.Session{UserID: userID}))
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	handler := Idempotency(store, "", logger.Discard())(countingHandler(&calls, http.StatusCreated))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, bookRequest("u1", "k1"))
	second := httptest.NewRecorder()
	handler.ServeHTTP(second, bookRequest("u1", "k1"))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_ScopedPerUser(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	handler := Idempotency(store, "", logger.Discard())(countingHandler(&calls, http.StatusCreated))

	handler.ServeHTTP(httptest.NewRecorder(), bookRequest("u1", "same"))
	handler.ServeHTTP(httptest.NewRecorder(), bookRequest("u2", "same"))

	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_SkipsFailuresAndMissingKey(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	handler := Idempotency(store, "", logger.Discard())(countingHandler(&calls, http.StatusConflict))

	handler.ServeHTTP(httptest.NewRecorder(), bookRequest("u1", "k1"))
	handler.ServeHTTP(httptest.NewRecorder(), bookRequest("u1", "k1"))
	handler.ServeHTTP(httptest.NewRecorder(), bookRequest("u1", ""))

	assert.Equal(t, int32(3), calls.Load())
}

func TestIdempotency_ConcurrentRepeatGetsConflict(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	entered := make(chan struct{})
	proceed := make(chan struct{})
	handler := Idempotency(store, "", logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(entered)
		<-proceed
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"points":5}}`))
	}))

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(first, bookRequest("admin", "grant-1"))
	}()
	<-entered

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, bookRequest("admin", "grant-1"))
	assert.Equal(t, http.StatusConflict, second.Code)

	close(proceed)
	<-done
	assert.Equal(t, http.StatusCreated, first.Code)

	third := httptest.NewRecorder()
	handler.ServeHTTP(third, bookRequest("admin", "grant-1"))
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, "true", third.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_FailureReleasesReservation(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	handler := Idempotency(store, "", logger.Discard())(countingHandler(&calls, http.StatusUnprocessableEntity))
	handler.ServeHTTP(httptest.NewRecorder(), bookRequest("u1", "k1"))

	assert.True(t, store.Reserve(context.Background(), scopedIdempotencyKey(bookRequest("u1", "k1"), "k1")))
}

func TestInMemoryIdempotencyStore_Reserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	ctx := context.Background()
	assert.True(t, store.Reserve(ctx, "k"))
	assert.False(t, store.Reserve(ctx, "k"))

	store.Set(ctx, "k", &CachedResponse{StatusCode: http.StatusCreated})
	assert.True(t, store.Reserve(ctx, "k"))
	store.Release(ctx, "k")
	assert.True(t, store.Reserve(ctx, "k"))
}

func TestInMemoryIdempotencyStore_Expires(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Millisecond)
	defer store.Stop()

	ctx := context.Background()
	store.Set(ctx, "k", &CachedResponse{StatusCode: http.StatusOK})
	time.Sleep(5 * time.Millisecond)

	_, found := store.Get(ctx, "k")
	assert.False(t, found)
}

func TestRedisIdempotencyStore_Get(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisIdempotencyStore(client, time.Hour, logger.Discard())

	cached := CachedResponse{StatusCode: http.StatusCreated, Body: []byte(`{"data":{}}`)}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)

	mock.ExpectGet(idempotencyKeyPrefix + "hit").SetVal(string(raw))
	mock.ExpectGet(idempotencyKeyPrefix + "miss").RedisNil()
	mock.ExpectGet(idempotencyKeyPrefix + "corrupt").SetVal("{not json")

	ctx := context.Background()
	got, found := store.Get(ctx, "hit")
	require.True(t, found)
	assert.Equal(t, http.StatusCreated, got.StatusCode)
	assert.JSONEq(t, `{"data":{}}`, string(got.Body))

	_, found = store.Get(ctx, "miss")
	assert.False(t, found)

	_, found = store.Get(ctx, "corrupt")
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisIdempotencyStore_Reserve(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisIdempotencyStore(client, time.Hour, logger.Discard())

	mock.ExpectSetNX(reservationKeyPrefix+"k", "1", ReservationTTL).SetVal(true)
	mock.ExpectSetNX(reservationKeyPrefix+"k", "1", ReservationTTL).SetVal(false)
	mock.ExpectDel(reservationKeyPrefix + "k").SetVal(1)
	mock.ExpectSetNX(reservationKeyPrefix+"down", "1", ReservationTTL).SetErr(errors.New("connection refused"))

	ctx := context.Background()
	assert.True(t, store.Reserve(ctx, "k"))
	assert.False(t, store.Reserve(ctx, "k"))
	store.Release(ctx, "k")
	assert.True(t, store.Reserve(ctx, "down"), "a Redis outage must not block writes")

	assert.NoError(t, mock.ExpectationsWereMet())
}
