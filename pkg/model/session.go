package model

import "time"

// Session identifies the caller of a request. It is built from a verified
// token by the authentication middleware and passed explicitly to services.
type Session struct {
	UserID      string `json:"userId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName,omitempty"`
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s Session) IsZero() bool {
	return s.UserID == ""
}

// AuthResult is returned by the login endpoint.
type AuthResult struct {
	User      *UserView `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
