package service

import (
	"context"
	"errors"
	"time"

	autherrors "blackyoga/internal/auth/errors"
	usersservice "blackyoga/internal/users/service"
	"blackyoga/pkg/config"
	apperrors "blackyoga/pkg/errors"
	"blackyoga/pkg/line"
	"blackyoga/pkg/metrics"
	"blackyoga/pkg/model"
)

const (
	outcomeCreated   = "created"
	outcomeReturning = "returning"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
)

type LineVerifier interface {
	VerifyAccessToken(ctx context.Context, token, channelID string) error
	GetProfile(ctx context.Context, token string) (*line.Profile, error)
}

type TokenIssuer interface {
	Issue(user *model.User) (string, time.Time, error)
}

type AuthService interface {
	Login(ctx context.Context, profile *model.LineProfile) (*model.AuthResult, error)
}

type authService struct {
	users  usersservice.UserService
	line   LineVerifier
	tokens TokenIssuer
	cfg    *config.Config
}

// NewAuthService builds the login flow. A nil verifier, or an empty
// LINE_CHANNEL_ID, means the submitted profile is trusted as is.
func NewAuthService(users usersservice.UserService, verifier LineVerifier, tokens TokenIssuer, cfg *config.Config) AuthService {
	if !cfg.LineVerificationEnabled() {
		verifier = nil
	}
	return &authService{
		users:  users,
		line:   verifier,
		tokens: tokens,
		cfg:    cfg,
	}
}

func (s *authService) Login(ctx context.Context, profile *model.LineProfile) (*model.AuthResult, error) {
	if s.line != nil {
		if err := s.verify(ctx, profile); err != nil {
			metrics.LoginsTotal.WithLabelValues(outcomeRejected).Inc()
			return nil, err
		}
	}

	user, created, err := s.users.FindOrCreate(ctx, profile)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(outcomeError).Inc()
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(outcomeError).Inc()
		s.cfg.Log.Error("Failed to issue session token", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue session", err)
	}

	outcome := outcomeReturning
	if created {
		outcome = outcomeCreated
	}
	metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	s.cfg.Log.Info("User logged in", "user_id", user.ID, "role", user.Role, "new_user", created)

	return &model.AuthResult{
		User:      usersservice.View(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// verify replaces the submitted identity with the one LINE reports for the
// access token. Only the email is kept from the payload, since the profile
// endpoint does not return it.
func (s *authService) verify(ctx context.Context, profile *model.LineProfile) error {
	if profile.AccessToken == "" {
		return apperrors.Unauthorized(autherrors.ErrMissingAccessToken.Error())
	}

	if err := s.line.VerifyAccessToken(ctx, profile.AccessToken, s.cfg.LineChannelID); err != nil {
		return s.lineError("verify", err)
	}

	verified, err := s.line.GetProfile(ctx, profile.AccessToken)
	if err != nil {
		return s.lineError("profile", err)
	}
	if profile.LineID != "" && profile.LineID != verified.UserID {
		s.cfg.Log.Warn("LINE identity mismatch", "submitted", profile.LineID, "verified", verified.UserID)
		return apperrors.Unauthorized(autherrors.ErrIdentityMismatch.Error())
	}

	profile.LineID = verified.UserID
	profile.DisplayName = verified.DisplayName
	profile.PictureURL = verified.PictureURL
	profile.StatusMessage = verified.StatusMessage
	return nil
}

func (s *authService) lineError(step string, err error) error {
	if errors.Is(err, line.ErrInvalidToken) || errors.Is(err, line.ErrChannelMismatch) {
		s.cfg.Log.Warn("LINE access token rejected", "step", step, "error", err)
		return apperrors.Unauthorized("Invalid LINE access token")
	}
	s.cfg.Log.Error("LINE API call failed", "step", step, "error", err)
	return apperrors.Unavailable("LINE").WithDetails(map[string]any{"step": step})
}
