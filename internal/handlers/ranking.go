package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/services"
	"github.com/temcen/placerank/pkg/models"
)

type RankingHandler struct {
	logger  *logrus.Logger
	ranking services.RankingServiceInterface
	users   services.UserServiceInterface
}

func NewRankingHandler(
	logger *logrus.Logger,
	ranking services.RankingServiceInterface,
	users services.UserServiceInterface,
) *RankingHandler {
	return &RankingHandler{
		logger:  logger,
		ranking: ranking,
		users:   users,
	}
}

// Get ranks places for the user in the situation given by the query string.
func (h *RankingHandler) Get(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	rctx, err := parseRankContext(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_QUERY_PARAM", err.Error(), nil)
		return
	}

	user, err := h.users.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		// Users without declared traits still get behavior and popularity based rankings.
		if !errors.Is(err, services.ErrNotFound) {
			h.logger.WithError(err).WithField("user_id", userID).Warn("Failed to load user profile, ranking without traits")
		}
		user = &models.UserProfile{UserID: userID}
	}

	result, err := h.ranking.Rank(c.Request.Context(), user, rctx)
	if err != nil {
		respondServiceError(c, h.logger, err, "RANKING_FAILED", "Failed to rank places")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}

func parseRankContext(c *gin.Context) (models.RankContext, error) {
	rctx := models.RankContext{
		Now:     time.Now(),
		Mood:    strings.TrimSpace(c.Query("mood")),
		Weather: strings.TrimSpace(c.Query("weather")),
		Region:  strings.TrimSpace(c.Query("region")),
	}

	if at := c.Query("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return rctx, errors.New("at must be an RFC 3339 timestamp")
		}
		rctx.Now = parsed
	}

	latStr, lngStr := c.Query("lat"), c.Query("lng")
	if latStr == "" && lngStr == "" {
		return rctx, nil
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return rctx, errors.New("lat and lng must be given together as valid coordinates")
	}
	rctx.Location = &models.GeoPoint{Lat: lat, Lng: lng}

	return rctx, nil
}
