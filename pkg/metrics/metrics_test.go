package metrics

import "testing"

func TestRoutePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1/classes", "/api/v1/classes"},
		{"/api/v1/classes/id/abc-123", "/api/v1/classes/id/:id"},
		{"/api/v1/classes/id/abc-123/book", "/api/v1/classes/id/:id/book"},
		{"/api/v1/bookings/id/b-9/cancel", "/api/v1/bookings/id/:id/cancel"},
		{"/api/v1/users/id/Uf00/points", "/api/v1/users/id/:id/points"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := RoutePattern(tt.in); got != tt.want {
			t.Errorf("RoutePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
