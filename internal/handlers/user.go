package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/services"
	"github.com/temcen/placerank/pkg/models"
)

type UserHandler struct {
	logger    *logrus.Logger
	users     services.UserServiceInterface
	validator *validator.Validate
}

func NewUserHandler(logger *logrus.Logger, users services.UserServiceInterface) *UserHandler {
	return &UserHandler{
		logger:    logger,
		users:     users,
		validator: validator.New(),
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	profile, err := h.users.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "PROFILE_FAILED", "Failed to retrieve user profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": profile,
	})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req models.UserProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error())
		return
	}

	profile, err := h.users.UpsertUserProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, h.logger, err, "PROFILE_FAILED", "Failed to update user profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": profile,
	})
}
