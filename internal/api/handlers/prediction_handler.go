package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/forecast"
	"github.com/medstock/backend-go/internal/service"
)

type PredictionHandler struct {
	service *service.PredictionService
}

func NewPredictionHandler(service *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{service: service}
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	var input domain.PredictionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.service.Predict(c.Request.Context(), input)
	if err != nil {
		h.writePredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *PredictionHandler) BatchPredict(c *gin.Context) {
	var filter domain.BatchFilter
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	batch, err := h.service.BatchPredict(c.Request.Context(), filter)
	if err != nil {
		h.writePredictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, batch)
}

func (h *PredictionHandler) Train(c *gin.Context) {
	report, err := h.service.Train(c.Request.Context())
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "not enough training data", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "training failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

func (h *PredictionHandler) ModelStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ModelStatus())
}

func (h *PredictionHandler) writePredictionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, forecast.ErrModelUnavailable), errors.Is(err, forecast.ErrModelNotFound):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "model not trained yet", "details": err.Error()})
	case errors.Is(err, forecast.ErrInvalidObservation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid observation", "details": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed", "details": err.Error()})
	}
}
