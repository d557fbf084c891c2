package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

// RateLimitService is a sliding-window limiter over Redis sorted sets, keyed per caller.
type RateLimitService struct {
	config      *config.RateLimitConfig
	logger      *logrus.Logger
	redisClient *redis.Client
	now         func() time.Time
}

func NewRateLimitService(cfg *config.RateLimitConfig, logger *logrus.Logger, redisClient *redis.Client) *RateLimitService {
	return &RateLimitService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		now:         time.Now,
	}
}

func (s *RateLimitService) CheckLimit(ctx context.Context, callerID, userTier string) (*models.RateLimitInfo, error) {
	limit := s.limitForTier(userTier)
	window := s.config.Window
	now := s.now()
	resetTime := now.Add(window).Unix()

	key := fmt.Sprintf("rate_limit:caller:%s", callerID)
	windowStart := now.Add(-window)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipe := s.redisClient.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		// Fail open: a Redis outage must not take the API down.
		s.logger.WithError(err).Error("Failed to execute rate limit pipeline")
		return &models.RateLimitInfo{Limit: limit, Remaining: limit, ResetTime: resetTime}, nil
	}

	remaining := limit - int(countCmd.Val())
	if remaining < 0 {
		remaining = 0
	}

	return &models.RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		ResetTime: resetTime,
	}, nil
}

func (s *RateLimitService) IsAllowed(ctx context.Context, callerID, userTier string) (bool, *models.RateLimitInfo, error) {
	info, err := s.CheckLimit(ctx, callerID, userTier)
	if err != nil {
		return false, nil, err
	}
	return info.Allowed(), info, nil
}

// Reset clears the window for one caller.
func (s *RateLimitService) Reset(ctx context.Context, callerID string) error {
	return s.redisClient.Del(ctx, fmt.Sprintf("rate_limit:caller:%s", callerID)).Err()
}

func (s *RateLimitService) limitForTier(userTier string) int {
	switch models.ParseTier(userTier) {
	case models.TierPremium:
		return s.config.Premium
	case models.TierEnterprise:
		return s.config.Premium * 10
	default:
		return s.config.Default
	}
}
