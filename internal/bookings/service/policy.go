package service

import (
	"fmt"
	"time"

	bookingerrors "blackyoga/internal/bookings/errors"
	pointserrors "blackyoga/internal/points/errors"
	"blackyoga/pkg/config"
	"blackyoga/pkg/model"
)

// EligibilityPolicy decides whether a member may book and what a booking
// costs in points. It is chosen once at startup.
type EligibilityPolicy interface {
	Name() string
	Check(user *model.User, now time.Time) error
	Cost() int
}

// PointsPolicy admits members holding at least Cost points.
type PointsPolicy struct {
	cost int
}

func NewPointsPolicy(cost int) *PointsPolicy {
	return &PointsPolicy{cost: cost}
}

func (p *PointsPolicy) Name() string { return config.PolicyPoints }

func (p *PointsPolicy) Cost() int { return p.cost }

func (p *PointsPolicy) Check(user *model.User, _ time.Time) error {
	if user.Points < p.cost {
		return pointserrors.ErrInsufficientPoints
	}
	return nil
}

// MembershipPolicy admits members whose membership has not expired. Bookings
// are free.
type MembershipPolicy struct{}

func NewMembershipPolicy() *MembershipPolicy {
	return &MembershipPolicy{}
}

func (p *MembershipPolicy) Name() string { return config.PolicyMembership }

func (p *MembershipPolicy) Cost() int { return 0 }

func (p *MembershipPolicy) Check(user *model.User, now time.Time) error {
	if !user.HasActiveMembership(now) {
		return bookingerrors.ErrMembershipInactive
	}
	return nil
}

func NewPolicy(name string, cost int) (EligibilityPolicy, error) {
	switch name {
	case config.PolicyPoints:
		return NewPointsPolicy(cost), nil
	case config.PolicyMembership:
		return NewMembershipPolicy(), nil
	}
	return nil, fmt.Errorf("unknown eligibility policy %q", name)
}
