package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/services"
	"github.com/temcen/placerank/pkg/models"
)

type BehaviorHandler struct {
	logger    *logrus.Logger
	behavior  services.BehaviorServiceInterface
	validator *validator.Validate
}

func NewBehaviorHandler(logger *logrus.Logger, behavior services.BehaviorServiceInterface) *BehaviorHandler {
	return &BehaviorHandler{
		logger:    logger,
		behavior:  behavior,
		validator: validator.New(),
	}
}

func (h *BehaviorHandler) GetProfile(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	profile, err := h.behavior.GetBehaviorProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "BEHAVIOR_FAILED", "Failed to compute behavior profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": profile,
	})
}

func (h *BehaviorHandler) RecordVisit(c *gin.Context) {
	var req models.VisitRequest
	if !h.bind(c, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.PlaceID = strings.TrimSpace(req.PlaceID)
	if !authorizeUser(c, req.UserID) {
		return
	}

	visit, err := h.behavior.RecordVisit(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err, "VISIT_FAILED", "Failed to record visit")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": visit,
	})
}

func (h *BehaviorHandler) RecordSearch(c *gin.Context) {
	var req models.SearchRequest
	if !h.bind(c, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if !authorizeUser(c, req.UserID) {
		return
	}

	search, err := h.behavior.RecordSearch(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, h.logger, err, "SEARCH_FAILED", "Failed to record search")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data": search,
	})
}

func (h *BehaviorHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error())
		return false
	}
	return true
}
