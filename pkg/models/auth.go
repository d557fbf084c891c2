package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tier is a caller's rate-limit class.
type Tier string

const (
	TierFree       Tier = "free"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// ParseTier maps a configured or claimed tier name to a known Tier. Unknown and empty
// names are TierFree.
func ParseTier(name string) Tier {
	switch tier := Tier(strings.ToLower(strings.TrimSpace(name))); tier {
	case TierPremium, TierEnterprise:
		return tier
	default:
		return TierFree
	}
}

// JWTClaims are the claims of a token issued by the auth service. Subject mirrors UserID.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	APIKey   string `json:"api_key,omitempty"`
	UserTier Tier   `json:"user_tier"`
	jwt.RegisteredClaims
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserTier  Tier      `json:"user_tier"`
}

// RateLimitInfo describes a caller's window after counting the current request.
// ResetTime is a Unix timestamp in seconds.
type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

func (i *RateLimitInfo) Allowed() bool {
	return i.Remaining > 0
}

// RetryAfter is the whole number of seconds until the window resets, never less than one.
func (i *RateLimitInfo) RetryAfter(now time.Time) int {
	wait := i.ResetTime - now.Unix()
	if wait < 1 {
		return 1
	}
	return int(wait)
}
