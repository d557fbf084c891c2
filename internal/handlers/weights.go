package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/services"
)

type WeightsHandler struct {
	logger  *logrus.Logger
	weights services.WeightServiceInterface
}

func NewWeightsHandler(logger *logrus.Logger, weights services.WeightServiceInterface) *WeightsHandler {
	return &WeightsHandler{
		logger:  logger,
		weights: weights,
	}
}

func (h *WeightsHandler) Get(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	result, err := h.weights.GetWeights(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "WEIGHTS_FAILED", "Failed to load weights")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}
