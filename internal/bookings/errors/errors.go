package errors

import (
	"errors"
	"net/http"

	apperrors "blackyoga/pkg/errors"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrClaimNotFound = errors.New("booking claim not found")

	// ErrClaimExists means the member already holds an active booking for
	// the class.
	ErrClaimExists = errors.New("booking claim already exists")

	ErrMembershipInactive = errors.New("membership is not active")
)

const (
	CodeClassFull            = "CLASS_FULL"
	CodeDuplicateBooking     = "DUPLICATE_BOOKING"
	CodeOutsideBookingWindow = "OUTSIDE_BOOKING_WINDOW"
	CodeOutsideCancelWindow  = "OUTSIDE_CANCELLATION_WINDOW"
	CodeAlreadyCancelled     = "ALREADY_CANCELLED"
	CodeNotEligible          = "NOT_ELIGIBLE"
)

func ClassFull() *apperrors.AppError {
	return apperrors.New(CodeClassFull, "This class is fully booked", http.StatusConflict)
}

func DuplicateBooking() *apperrors.AppError {
	return apperrors.New(CodeDuplicateBooking, "You have already booked this class", http.StatusConflict)
}

func OutsideBookingWindow(window string) *apperrors.AppError {
	return apperrors.New(CodeOutsideBookingWindow,
		"Classes can only be booked within "+window+" before they start",
		http.StatusUnprocessableEntity,
	)
}

func OutsideCancellationWindow(cutoff string) *apperrors.AppError {
	return apperrors.New(CodeOutsideCancelWindow,
		"Bookings can only be cancelled more than "+cutoff+" before the class starts",
		http.StatusUnprocessableEntity,
	)
}

func AlreadyCancelled() *apperrors.AppError {
	return apperrors.New(CodeAlreadyCancelled, "This booking has already been cancelled", http.StatusConflict)
}

func NotEligible(reason string) *apperrors.AppError {
	return apperrors.New(CodeNotEligible, reason, http.StatusPaymentRequired)
}
