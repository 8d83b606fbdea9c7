package services

import (
	"context"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"pointflow/internal/models"
)

// TierService resolves a user's subscription tier and the limits it
// carries. Lookups are cached with a short TTL so every request does not
// hit the users table.
type TierService struct {
	users  *UserStore
	limits map[string]models.TierLimits
	cache  *gocache.Cache
}

// NewTierService creates a new tier service. limits usually comes from
// config.LoadTierLimits; nil falls back to the built-in table.
func NewTierService(users *UserStore, limits map[string]models.TierLimits) *TierService {
	if limits == nil {
		limits = models.DefaultTierLimits
	}
	return &TierService{
		users:  users,
		limits: limits,
		cache:  gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// GetUserTier returns the subscription tier for a user, defaulting to free
// when the user cannot be resolved.
func (s *TierService) GetUserTier(ctx context.Context, userID string) string {
	if tier, ok := s.cache.Get(userID); ok {
		return tier.(string)
	}

	tier := models.TierFree
	if s.users != nil {
		user, err := s.users.GetByID(ctx, userID)
		if err == nil && user.Tier != "" {
			tier = user.Tier
		}
	}

	s.cache.SetDefault(userID, tier)
	return tier
}

// GetLimits returns the limits for a user based on their tier.
func (s *TierService) GetLimits(ctx context.Context, userID string) models.TierLimits {
	return s.LimitsForTier(s.GetUserTier(ctx, userID))
}

// LimitsForTier returns the limit table entry for a tier, falling back to
// free for unknown tiers.
func (s *TierService) LimitsForTier(tier string) models.TierLimits {
	if limits, ok := s.limits[tier]; ok {
		return limits
	}
	return s.limits[models.TierFree]
}

// InvalidateCache removes a user from the cache (call when tier changes).
func (s *TierService) InvalidateCache(userID string) {
	s.cache.Delete(userID)
	log.Printf("🔄 [TIER] Invalidated cache for user %s", userID)
}
