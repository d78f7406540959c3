package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	apperrors "blackyoga/pkg/errors"
	httputil "blackyoga/pkg/http"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/model"
	"blackyoga/pkg/session"
)

type sessionKey struct{}

type TokenParser interface {
	Parse(raw string) (model.Session, error)
}

// Authentication resolves the bearer token into a model.Session. Requests to
// publicPaths pass through without a session.
func Authentication(tokens TokenParser, log *logger.Logger, publicPaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(publicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
				return
			}

			sess, err := tokens.Parse(raw)
			if err != nil {
				log.Warn("Rejected session token",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				msg := "Invalid session token"
				if errors.Is(err, session.ErrExpiredToken) {
					msg = "Session expired"
				}
				_ = httputil.WriteError(w, apperrors.Unauthorized(msg))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithSession(ctx context.Context, sess model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFrom returns the caller's session. The zero Session is returned for
// unauthenticated requests.
func SessionFrom(ctx context.Context) model.Session {
	sess, _ := ctx.Value(sessionKey{}).(model.Session)
	return sess
}
