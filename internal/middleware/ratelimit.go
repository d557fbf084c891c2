package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/pkg/models"
)

// RateLimiter is implemented by services.RateLimitService.
type RateLimiter interface {
	IsAllowed(ctx context.Context, callerID, userTier string) (bool, *models.RateLimitInfo, error)
}

func RateLimit(limiter RateLimiter, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID := c.GetString(ContextCallerID)
		if callerID == "" {
			logger.Error("Rate limit middleware called without caller context")
			c.Next()
			return
		}

		userTier := string(models.ParseTier(c.GetString(ContextUserTier)))

		allowed, info, err := limiter.IsAllowed(c.Request.Context(), callerID, userTier)
		if err != nil {
			logger.WithError(err).Error("Failed to check rate limit")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime, 10))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(info.RetryAfter(time.Now())))
			logger.WithFields(logrus.Fields{
				"caller_id": callerID,
				"user_tier": userTier,
				"limit":     info.Limit,
			}).Warn("Rate limit exceeded")

			abortWithError(c, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Rate limit exceeded. Please try again later.", info)
			return
		}

		c.Next()
	}
}
