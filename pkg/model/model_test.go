package model

import (
	"testing"
	"time"
)

func TestPointsTransactionSigned(t *testing.T) {
	added := PointsTransaction{Type: PointsTypeAdded, Points: 3}
	used := PointsTransaction{Type: PointsTypeUsed, Points: 2}

	if got := added.Signed() + used.Signed(); got != 1 {
		t.Errorf("expected net 1, got %d", got)
	}
}

func TestClassSpotsLeft(t *testing.T) {
	tests := []struct {
		capacity, booked, want int
	}{
		{10, 3, 7},
		{10, 10, 0},
		{5, 7, 0},
	}
	for _, tt := range tests {
		c := Class{Capacity: tt.capacity, BookedCount: tt.booked}
		if got := c.SpotsLeft(); got != tt.want {
			t.Errorf("SpotsLeft(%d/%d) = %d, want %d", tt.booked, tt.capacity, got, tt.want)
		}
	}
}

func TestUserNeedsOnboarding(t *testing.T) {
	complete := User{FirstName: "Ploy", Phone: "+66812345678"}
	if complete.NeedsOnboarding() {
		t.Error("complete profile should not need onboarding")
	}

	fresh := complete
	fresh.IsNewUser = true
	if !fresh.NeedsOnboarding() {
		t.Error("new users always need onboarding")
	}

	noPhone := complete
	noPhone.Phone = ""
	if !noPhone.NeedsOnboarding() {
		t.Error("missing phone should need onboarding")
	}
}

func TestUserHasActiveMembership(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	tomorrow := now.Add(24 * time.Hour)

	if (&User{}).HasActiveMembership(now) {
		t.Error("no membership should be inactive")
	}
	if !(&User{MembershipExpiresAt: &tomorrow}).HasActiveMembership(now) {
		t.Error("future expiry should be active")
	}
	if (&User{MembershipExpiresAt: &tomorrow}).HasActiveMembership(tomorrow) {
		t.Error("membership should lapse at its expiry")
	}
}

func TestBookingClaimID(t *testing.T) {
	if got := BookingClaimID("c1", "U1"); got != "c1_U1" {
		t.Errorf("unexpected claim id %q", got)
	}
}

func TestBookingIsCancelled(t *testing.T) {
	if (&Booking{Status: BookingStatusConfirmed}).IsCancelled() {
		t.Error("confirmed booking reported as cancelled")
	}
	if !(&Booking{Status: BookingStatusCancelled}).IsCancelled() {
		t.Error("cancelled booking not reported as cancelled")
	}
}
