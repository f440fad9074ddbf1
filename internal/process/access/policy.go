// Package access decides how an indexed item may be presented to a user.
package access

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/media-search-bot/internal/core/domain"
	"github.com/lueurxax/media-search-bot/internal/core/errors"
)

// ProfileReader loads the gating-relevant state of a user.
type ProfileReader interface {
	GetAccessProfile(ctx context.Context, userID int64) (domain.AccessProfile, error)
}

// Policy applies premium and verification gating.
type Policy struct {
	profiles       ProfileReader
	premiumEnabled bool
	now            func() time.Time
	logger         *zerolog.Logger
}

// NewPolicy returns a Policy. With premiumEnabled false the premium gate is skipped.
func NewPolicy(profiles ProfileReader, premiumEnabled bool, logger *zerolog.Logger) *Policy {
	return &Policy{
		profiles:       profiles,
		premiumEnabled: premiumEnabled,
		now:            time.Now,
		logger:         logger,
	}
}

// Profile loads the requester profile. Any failure, including a missing
// user, yields the zero profile: no entitlement and not verified.
func (p *Policy) Profile(ctx context.Context, userID int64) domain.AccessProfile {
	if p.profiles == nil || userID == 0 {
		return domain.AccessProfile{}
	}

	profile, err := p.profiles.GetAccessProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) && p.logger != nil {
			p.logger.Warn().Err(err).Int64("user_id", userID).Msg("access profile unavailable, gating closed")
		}

		return domain.AccessProfile{}
	}

	return profile
}

// Decide returns the decision for one item.
func (p *Policy) Decide(profile domain.AccessProfile, item *domain.IndexedItem) domain.AccessDecision {
	return Decide(profile, item, p.now(), p.premiumEnabled)
}

// Decide evaluates the gates in order. The premium gate comes first so a
// premium item never reveals a verification requirement to a non-premium user.
func Decide(profile domain.AccessProfile, item *domain.IndexedItem, now time.Time, premiumEnabled bool) domain.AccessDecision {
	if premiumEnabled && item.IsPremium && !profile.Premium.IsActive(now) {
		return domain.AccessPremiumRequired
	}

	if item.VerificationRequired && !profile.Verified {
		return domain.AccessVerificationRequired
	}

	return domain.AccessAllow
}
