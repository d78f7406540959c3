package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blackyoga/pkg/logger"
	"blackyoga/pkg/model"
	"blackyoga/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func sessionEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		w.Header().Set("X-User", sess.UserID)
		w.Header().Set("X-Role", sess.Role)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthentication(t *testing.T) {
	tokens := session.NewTokens(testSecret, time.Hour)
	token, _, err := tokens.Issue(&model.User{ID: "u1", Role: model.RoleAdmin, DisplayName: "Ploy"})
	require.NoError(t, err)

	handler := Authentication(tokens, logger.Discard(), "/health", "/api/v1/auth/line")(sessionEcho())

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid token", "/api/v1/me", "Bearer " + token, http.StatusOK, "u1"},
		{"lowercase scheme", "/api/v1/me", "bearer " + token, http.StatusOK, "u1"},
		{"missing header", "/api/v1/me", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "/api/v1/me", "Basic " + token, http.StatusUnauthorized, ""},
		{"garbage token", "/api/v1/me", "Bearer nope", http.StatusUnauthorized, ""},
		{"public path", "/health", "", http.StatusOK, ""},
		{"login path", "/api/v1/auth/line", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantUser, w.Header().Get("X-User"))
		})
	}
}

func TestAuthentication_CarriesRole(t *testing.T) {
	tokens := session.NewTokens(testSecret, time.Hour)
	token, _, err := tokens.Issue(&model.User{ID: "u2", Role: model.RoleMember})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/points", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	Authentication(tokens, logger.Discard())(sessionEcho()).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RoleMember, w.Header().Get("X-Role"))
}

func TestSessionFrom_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, SessionFrom(r.Context()).IsZero())
}
