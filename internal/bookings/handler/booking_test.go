package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	bookingerrors "blackyoga/internal/bookings/errors"
	apperrors "blackyoga/pkg/errors"
	"blackyoga/pkg/logger"
	"blackyoga/pkg/middleware"
	"blackyoga/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	bookFunc    func(ctx context.Context, sess model.Session, classID string) (*model.Booking, error)
	cancelFunc  func(ctx context.Context, sess model.Session, bookingID string) (*model.Booking, error)
	getMineFunc func(ctx context.Context, sess model.Session, limit int, offset int64) ([]*model.BookingView, int64, error)
}

func (m *mockBookingService) Book(ctx context.Context, sess model.Session, classID string) (*model.Booking, error) {
	return m.bookFunc(ctx, sess, classID)
}

func (m *mockBookingService) Cancel(ctx context.Context, sess model.Session, bookingID string) (*model.Booking, error) {
	return m.cancelFunc(ctx, sess, bookingID)
}

func (m *mockBookingService) GetMine(ctx context.Context, sess model.Session, limit int, offset int64) ([]*model.BookingView, int64, error) {
	return m.getMineFunc(ctx, sess, limit, offset)
}

func (m *mockBookingService) GetByID(ctx context.Context, sess model.Session, id string) (*model.BookingView, error) {
	return nil, apperrors.NotFoundWithID("Booking", id)
}

var member = model.Session{UserID: "U1", Role: model.RoleMember}

func serve(svc *mockBookingService, method, target string) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(middleware.WithSession(req.Context(), member))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBook_Created(t *testing.T) {
	var gotClass string
	var gotSession model.Session
	svc := &mockBookingService{bookFunc: func(_ context.Context, sess model.Session, classID string) (*model.Booking, error) {
		gotClass, gotSession = classID, sess
		return &model.Booking{ID: "b1", ClassID: classID, Status: model.BookingStatusConfirmed}, nil
	}}

	w := serve(svc, http.MethodPost, "/api/v1/classes/id/c1/book")

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if gotClass != "c1" || gotSession.UserID != "U1" {
		t.Errorf("unexpected call: class=%q session=%+v", gotClass, gotSession)
	}

	var response struct {
		Data model.Booking `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Data.ID != "b1" {
		t.Errorf("expected booking b1, got %+v", response.Data)
	}
}

func TestBook_RuleViolations(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"class full", bookingerrors.ClassFull(), http.StatusConflict, bookingerrors.CodeClassFull},
		{"duplicate", bookingerrors.DuplicateBooking(), http.StatusConflict, bookingerrors.CodeDuplicateBooking},
		{"outside window", bookingerrors.OutsideBookingWindow("24h"), http.StatusUnprocessableEntity, bookingerrors.CodeOutsideBookingWindow},
		{"not eligible", bookingerrors.NotEligible("Not enough points"), http.StatusPaymentRequired, bookingerrors.CodeNotEligible},
		{"missing class", apperrors.NotFoundWithID("Class", "c1"), http.StatusNotFound, apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockBookingService{bookFunc: func(context.Context, model.Session, string) (*model.Booking, error) {
				return nil, tt.err
			}}

			w := serve(svc, http.MethodPost, "/api/v1/classes/id/c1/book")

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			var response apperrors.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, response.Code)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	var gotID string
	svc := &mockBookingService{cancelFunc: func(_ context.Context, _ model.Session, id string) (*model.Booking, error) {
		gotID = id
		return &model.Booking{ID: id, Status: model.BookingStatusCancelled}, nil
	}}

	w := serve(svc, http.MethodPost, "/api/v1/bookings/id/b1/cancel")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotID != "b1" {
		t.Errorf("expected booking b1, got %q", gotID)
	}
}

func TestCancel_TooLate(t *testing.T) {
	svc := &mockBookingService{cancelFunc: func(context.Context, model.Session, string) (*model.Booking, error) {
		return nil, bookingerrors.OutsideCancellationWindow("3h")
	}}

	w := serve(svc, http.MethodPost, "/api/v1/bookings/id/b1/cancel")

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestGetMine_Paginated(t *testing.T) {
	var gotLimit int
	svc := &mockBookingService{getMineFunc: func(_ context.Context, _ model.Session, limit int, _ int64) ([]*model.BookingView, int64, error) {
		gotLimit = limit
		return []*model.BookingView{{Booking: &model.Booking{ID: "b1"}}}, 7, nil
	}}

	w := serve(svc, http.MethodGet, "/api/v1/bookings?limit=1")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotLimit != 1 {
		t.Errorf("expected limit 1, got %d", gotLimit)
	}
	var response struct {
		TotalCount int64 `json:"total_count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.TotalCount != 7 {
		t.Errorf("expected total 7, got %d", response.TotalCount)
	}
}

func TestGetMine_BadPagination(t *testing.T) {
	svc := &mockBookingService{}

	w := serve(svc, http.MethodGet, "/api/v1/bookings?limit=many")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
