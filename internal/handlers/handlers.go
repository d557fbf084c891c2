package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/middleware"
	"github.com/temcen/placerank/internal/services"
)

const maxUserIDLength = 128

type Handlers struct {
	Health   *HealthHandler
	Ranking  *RankingHandler
	Feedback *FeedbackHandler
	Weights  *WeightsHandler
	User     *UserHandler
	Behavior *BehaviorHandler
}

func New(logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(logger, services.Health),
		Ranking:  NewRankingHandler(logger, services.Ranking, services.Users),
		Feedback: NewFeedbackHandler(logger, services.Feedback),
		Weights:  NewWeightsHandler(logger, services.Weights),
		User:     NewUserHandler(logger, services.Users),
		Behavior: NewBehaviorHandler(logger, services.Behavior),
	}
}

func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	c.JSON(status, gin.H{"error": body})
}

// respondServiceError maps service sentinel errors onto the error envelope.
func respondServiceError(c *gin.Context, logger *logrus.Logger, err error, code, message string) {
	switch {
	case errors.Is(err, services.ErrMissingInput):
		respondError(c, http.StatusBadRequest, "MISSING_INPUT", "Required input is missing", nil)
	case errors.Is(err, services.ErrInvalidRating):
		respondError(c, http.StatusBadRequest, "INVALID_RATING", "Rating must be an integer between 1 and 5", nil)
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	default:
		logger.WithError(err).Error(message)
		respondError(c, http.StatusInternalServerError, code, message, nil)
	}
}

// pathUserID reads and checks the :userId parameter, writing the error response itself.
func pathUserID(c *gin.Context) (string, bool) {
	userID := strings.TrimSpace(c.Param("userId"))
	if userID == "" || len(userID) > maxUserIDLength {
		respondError(c, http.StatusBadRequest, "INVALID_USER_ID", "Invalid user ID", nil)
		return "", false
	}
	return userID, authorizeUser(c, userID)
}

// authorizeUser rejects callers acting for a different user. Callers authenticated without
// a user identity (service API keys) may act for anyone.
func authorizeUser(c *gin.Context, userID string) bool {
	caller, _, _ := middleware.GetUserFromContext(c)
	if caller != "" && caller != userID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Cannot act on behalf of another user", nil)
		return false
	}
	return true
}
