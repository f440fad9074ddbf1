package domain

import "time"

// PremiumPlan is the subscription tier.
type PremiumPlan string

const (
	PlanBasic    PremiumPlan = "basic"
	PlanStandard PremiumPlan = "standard"
	PlanPremium  PremiumPlan = "premium"
	PlanVIP      PremiumPlan = "vip"
	PlanLifetime PremiumPlan = "lifetime"
)

// ParsePremiumPlan returns the plan for s and whether it is known.
func ParsePremiumPlan(s string) (PremiumPlan, bool) {
	p := PremiumPlan(s)

	switch p {
	case PlanBasic, PlanStandard, PlanPremium, PlanVIP, PlanLifetime:
		return p, true
	default:
		return "", false
	}
}

// PremiumStatus is the state of a subscription record.
type PremiumStatus string

const (
	PremiumActive    PremiumStatus = "active"
	PremiumExpired   PremiumStatus = "expired"
	PremiumCancelled PremiumStatus = "cancelled"
	PremiumSuspended PremiumStatus = "suspended"
	PremiumPending   PremiumStatus = "pending"
)

// Premium is a user's subscription.
type Premium struct {
	UserID     int64
	Plan       PremiumPlan
	Status     PremiumStatus
	IsLifetime bool
	ExpiresAt  time.Time
	GrantedBy  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive reports whether the subscription grants premium access at now.
// Cancelled and suspended always win, lifetime ignores expiry, anything else
// needs a future expiry and a status that is not expired or pending.
func (p *Premium) IsActive(now time.Time) bool {
	if p == nil {
		return false
	}

	switch p.Status {
	case PremiumCancelled, PremiumSuspended:
		return false
	}

	if p.IsLifetime {
		return true
	}

	if p.Status == PremiumExpired || p.Status == PremiumPending {
		return false
	}

	return !p.ExpiresAt.IsZero() && p.ExpiresAt.After(now)
}

// User is a bot user.
type User struct {
	ID          int64
	Username    string
	FirstName   string
	IsVerified  bool
	IsBanned    bool
	VerifiedAt  time.Time
	SearchCount int64
	CreatedAt   time.Time
	LastSeenAt  time.Time
}

// AccessProfile is the subset of user state consulted by access gating.
// The zero value means no entitlement and not verified.
type AccessProfile struct {
	Premium  *Premium
	Verified bool
}
