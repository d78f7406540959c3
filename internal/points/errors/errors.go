package errors

import "errors"

var (
	ErrInsufficientPoints = errors.New("insufficient points")

	ErrInvalidAmount = errors.New("points amount must be positive")
)
