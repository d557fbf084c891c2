package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/services"
	"github.com/temcen/placerank/pkg/models"
)

type FeedbackHandler struct {
	logger    *logrus.Logger
	feedback  services.FeedbackServiceInterface
	validator *validator.Validate
}

func NewFeedbackHandler(logger *logrus.Logger, feedback services.FeedbackServiceInterface) *FeedbackHandler {
	return &FeedbackHandler{
		logger:    logger,
		feedback:  feedback,
		validator: validator.New(),
	}
}

// Record applies one explicit rating and returns the user's updated weights.
func (h *FeedbackHandler) Record(c *gin.Context) {
	var req models.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.PlaceID = strings.TrimSpace(req.PlaceID)

	if req.UserID == "" || req.PlaceID == "" {
		respondError(c, http.StatusBadRequest, "MISSING_INPUT", "user_id and place_id are required", nil)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		respondError(c, http.StatusBadRequest, "INVALID_RATING", "Rating must be an integer between 1 and 5", nil)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error())
		return
	}

	if !authorizeUser(c, req.UserID) {
		return
	}

	input := services.FeedbackInput{
		Rating: req.Rating,
		Tags:   req.Tags,
	}
	if req.Timestamp != nil {
		input.Timestamp = req.Timestamp.UTC()
	} else {
		input.Timestamp = time.Now().UTC()
	}

	result, err := h.feedback.RecordFeedback(c.Request.Context(), req.UserID, req.PlaceID, input)
	if err != nil {
		respondServiceError(c, h.logger, err, "FEEDBACK_FAILED", "Failed to record feedback")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}
