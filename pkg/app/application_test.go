package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"blackyoga/pkg/client"
	"blackyoga/pkg/config"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/middleware"
	"blackyoga/pkg/model"
	"blackyoga/pkg/session"

	"github.com/julienschmidt/httprouter"
)

const loginPath = "/api/v1/auth/line"

type healthRoutes struct{}

func (healthRoutes) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})
}

type apiRoutes struct {
	bookings atomic.Int32
}

func (h *apiRoutes) RegisterRoutes(router *httprouter.Router) {
	router.POST(loginPath, func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	})
	router.GET("/api/v1/me", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		_, _ = w.Write([]byte(middleware.SessionFrom(r.Context()).UserID))
	})
	router.POST("/api/v1/classes/id/:id/book", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		h.bookings.Add(1)
		w.WriteHeader(http.StatusCreated)
	})
}

func newTestApp(t *testing.T) (http.Handler, *apiRoutes, *session.Tokens) {
	t.Helper()

	cfg := &config.Config{
		Port:              "8080",
		Log:               logger.Discard(),
		Client:            client.NewClient(),
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    5 * time.Second,
		IdempotencyTTL:    time.Hour,
		MaxRequestSize:    1 << 20,
		ShutdownTimeout:   time.Second,
	}
	tokens := session.NewTokens(strings.Repeat("s", 32), time.Hour)
	api := &apiRoutes{}

	a := NewApplication(cfg)
	a.SetApp(healthRoutes{}, tokens, []string{loginPath}, api)
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a.Handler(), api, tokens
}

func bearer(t *testing.T, tokens *session.Tokens, userID string) string {
	t.Helper()
	raw, _, err := tokens.Issue(&model.User{ID: userID, Role: model.RoleMember})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + raw
}

func TestHealthSkipsAuthentication(t *testing.T) {
	handler, _, _ := newTestApp(t)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthentication(t *testing.T) {
	handler, _, tokens := newTestApp(t)

	tests := []struct {
		name       string
		method     string
		path       string
		auth       string
		wantStatus int
	}{
		{"login is public", http.MethodPost, loginPath, "", http.StatusOK},
		{"api requires token", http.MethodGet, "/api/v1/me", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/me", "Bearer nope", http.StatusUnauthorized},
		{"valid token", http.MethodGet, "/api/v1/me", bearer(t, tokens, "U1"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestSessionReachesHandler(t *testing.T) {
	handler, _, tokens := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", bearer(t, tokens, "U42"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Body.String() != "U42" {
		t.Errorf("expected session user U42, got %q", w.Body.String())
	}
}

func TestIdempotentBookingReplays(t *testing.T) {
	handler, api, tokens := newTestApp(t)
	auth := bearer(t, tokens, "U1")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/classes/id/c1/book", nil)
		req.Header.Set("Authorization", auth)
		req.Header.Set(middleware.DefaultIdempotencyHeader, "retry-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201, got %d", i+1, w.Code)
		}
	}

	if got := api.bookings.Load(); got != 1 {
		t.Errorf("expected the booking handler to run once, ran %d times", got)
	}
}
