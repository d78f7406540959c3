package errors

import "errors"

var (
	ErrMissingAccessToken = errors.New("LINE access token is required")
	ErrIdentityMismatch   = errors.New("LINE profile does not match the submitted user")
)
