package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "class not found"},
			expected: "NOT_FOUND: class not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("firestore unavailable"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: firestore unavailable)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFound("Class"), CodeNotFound, http.StatusNotFound},
		{"not found with id", NotFoundWithID("Booking", "b-1"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"unauthorized", Unauthorized("login"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("admin only"), CodeForbidden, http.StatusForbidden},
		{"conflict", Conflict("exists"), CodeConflict, http.StatusConflict},
		{"internal", Internal("oops", cause), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("LINE"), CodeUnavailable, http.StatusServiceUnavailable},
		{"rate limited", RateLimited("slow down"), CodeRateLimited, http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Booking", "b-1")

	if err.Message != "Booking not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "b-1" || err.Details["resource"] != "Booking" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	original := errors.New("original error")
	appErr := Wrap(original, CodeInternal, "wrapped", http.StatusInternalServerError)

	if !errors.Is(appErr, original) {
		t.Errorf("errors.Is should find the wrapped cause")
	}
}

func TestAppError_IsMatchesCode(t *testing.T) {
	sentinel := New("CLASS_FULL", "Class is full", http.StatusConflict)
	other := New("CLASS_FULL", "different message", http.StatusConflict)

	if !errors.Is(other, sentinel) {
		t.Errorf("errors with the same code should match")
	}
	if errors.Is(Conflict("x"), sentinel) {
		t.Errorf("errors with different codes should not match")
	}
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	base := Validation("validation failed", nil)
	withDetails := base.WithDetails(map[string]any{"field": "capacity"})

	if base.Details != nil {
		t.Errorf("original should keep nil details, got %v", base.Details)
	}
	if withDetails.Details["field"] != "capacity" {
		t.Errorf("expected field detail, got %v", withDetails.Details)
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(NotFound("User")) {
		t.Errorf("IsAppError() should return true for AppError")
	}
	if !IsAppError(fmt.Errorf("transaction failed: %w", Forbidden("no"))) {
		t.Errorf("IsAppError() should see through wrapping")
	}
	if IsAppError(errors.New("regular error")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("User")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	if got := AsAppError(fmt.Errorf("tx: %w", appErr)); got != appErr {
		t.Errorf("AsAppError() should unwrap to the inner AppError")
	}

	regular := errors.New("regular error")
	result := AsAppError(regular)
	if result.Code != CodeInternal || result.Err != regular {
		t.Errorf("AsAppError() should wrap regular error as internal error, got %+v", result)
	}
}

func TestAppError_ToJSON(t *testing.T) {
	body := string(NotFoundWithID("User", "12345").ToJSON())

	for _, want := range []string{`"code":"NOT_FOUND"`, `"message":"User not found"`, `"id":"12345"`} {
		if !strings.Contains(body, want) {
			t.Errorf("ToJSON() = %s, missing %s", body, want)
		}
	}
}
