package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		name string
		want Tier
	}{
		{"premium", TierPremium},
		{" Enterprise ", TierEnterprise},
		{"free", TierFree},
		{"", TierFree},
		{"gold", TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTier(tt.name))
		})
	}
}

func TestRateLimitInfo_RetryAfter(t *testing.T) {
	now := time.Unix(1700000000, 0)

	info := &RateLimitInfo{Limit: 10, Remaining: 0, ResetTime: now.Add(42 * time.Second).Unix()}
	assert.False(t, info.Allowed())
	assert.Equal(t, 42, info.RetryAfter(now))

	stale := &RateLimitInfo{Limit: 10, Remaining: 3, ResetTime: now.Add(-time.Minute).Unix()}
	assert.True(t, stale.Allowed())
	assert.Equal(t, 1, stale.RetryAfter(now))
}
