package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/pkg/models"
)

// Context keys set by Auth.
const (
	ContextUserID   = "user_id"
	ContextUserTier = "user_tier"
	ContextAPIKey   = "api_key"
	ContextCallerID = "caller_id"
)

// Authenticator is implemented by services.AuthService.
type Authenticator interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
	ValidateAPIKey(apiKey string) (string, error)
}

// Auth accepts either a JWT or a bare API key as a bearer credential. API-key callers may
// act for a user through X-User-ID.
func Auth(auth Authenticator, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "MISSING_AUTHORIZATION", "Authorization header is required", nil)
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" || tokenParts[1] == "" {
			abortWithError(c, http.StatusUnauthorized, "INVALID_AUTHORIZATION_FORMAT",
				"Authorization header must be in format 'Bearer <token>'", nil)
			return
		}

		tokenString := tokenParts[1]

		// JWTs always carry dots; API keys never do.
		if !strings.Contains(tokenString, ".") {
			userTier, err := auth.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				abortWithError(c, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid API key", nil)
				return
			}

			userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
			if len(userID) > 128 {
				abortWithError(c, http.StatusBadRequest, "INVALID_USER_ID", "X-User-ID is too long", nil)
				return
			}

			callerID := "key:" + tokenString
			if userID != "" {
				callerID = userID
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextUserTier, userTier)
			c.Set(ContextAPIKey, tokenString)
			c.Set(ContextCallerID, callerID)
			c.Next()
			return
		}

		claims, err := auth.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserTier, string(claims.UserTier))
		c.Set(ContextAPIKey, claims.APIKey)
		c.Set(ContextCallerID, claims.UserID)
		c.Next()
	}
}

// GetUserFromContext returns the authenticated user id, tier and API key. Missing values are empty.
func GetUserFromContext(c *gin.Context) (string, string, string) {
	return c.GetString(ContextUserID), c.GetString(ContextUserTier), c.GetString(ContextAPIKey)
}
