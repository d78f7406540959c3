package model

import "time"

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID                  string     `json:"id" bson:"_id" firestore:"-"`
	LineID              string     `json:"lineId" bson:"line_id" firestore:"lineId"`
	DisplayName         string     `json:"displayName" bson:"display_name" firestore:"displayName"`
	PictureURL          string     `json:"pictureUrl,omitempty" bson:"picture_url,omitempty" firestore:"pictureUrl"`
	StatusMessage       string     `json:"statusMessage,omitempty" bson:"status_message,omitempty" firestore:"statusMessage"`
	Email               string     `json:"email" bson:"email" firestore:"email"`
	Role                string     `json:"role" bson:"role" firestore:"role"`
	Points              int        `json:"points" bson:"points" firestore:"points"`
	MembershipExpiresAt *time.Time `json:"membershipExpiresAt,omitempty" bson:"membership_expires_at,omitempty" firestore:"membershipExpiresAt"`
	Nickname            string     `json:"nickname" bson:"nickname" firestore:"nickname"`
	FirstName           string     `json:"firstName" bson:"first_name" firestore:"firstName"`
	LastName            string     `json:"lastName" bson:"last_name" firestore:"lastName"`
	Phone               string     `json:"phone" bson:"phone" firestore:"phone"`
	IsNewUser           bool       `json:"isNewUser" bson:"is_new_user" firestore:"isNewUser"`
	CreatedAt           time.Time  `json:"createdAt" bson:"created_at" firestore:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt" bson:"updated_at" firestore:"updatedAt"`
	LastLoginAt         time.Time  `json:"lastLoginAt" bson:"last_login_at" firestore:"lastLoginAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NeedsOnboarding reports whether the member still has to complete the profile form.
func (u *User) NeedsOnboarding() bool {
	return u.IsNewUser || u.FirstName == "" || u.Phone == ""
}

// HasActiveMembership reports whether the membership is valid at now.
func (u *User) HasActiveMembership(now time.Time) bool {
	return u.MembershipExpiresAt != nil && u.MembershipExpiresAt.After(now)
}

// LineProfile is the identity payload sent by the LIFF client on login.
type LineProfile struct {
	LineID        string `json:"lineId" validate:"required,max=64"`
	DisplayName   string `json:"displayName" validate:"required,max=100"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	PictureURL    string `json:"pictureUrl,omitempty" validate:"omitempty,url"`
	StatusMessage string `json:"statusMessage,omitempty" validate:"omitempty,max=500"`
	AccessToken   string `json:"accessToken,omitempty"`
}

// ProfileUpdate carries the member-editable fields. Empty values are ignored.
type ProfileUpdate struct {
	Nickname  string `json:"nickname,omitempty" validate:"omitempty,max=50"`
	FirstName string `json:"firstName,omitempty" validate:"omitempty,max=50"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,max=50"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

func (p *ProfileUpdate) IsEmpty() bool {
	return p.Nickname == "" && p.FirstName == "" && p.LastName == "" && p.Phone == "" && p.Email == ""
}

type MembershipUpdate struct {
	ExpiresAt *time.Time `json:"expiresAt"`
}

type UserView struct {
	*User
	NeedsOnboarding bool `json:"needsOnboarding"`
}
