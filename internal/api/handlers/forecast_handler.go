package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medstock/backend-go/internal/repository"
	"github.com/medstock/backend-go/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

type forecastRequest struct {
	InventoryID int64 `json:"inventory_id" binding:"required"`
	HorizonDays int   `json:"horizon_days"`
}

type runRequest struct {
	HospitalID int64 `json:"hospital_id"`
}

func (h *ForecastHandler) ForecastInventory(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.service.ForecastInventory(c.Request.Context(), req.InventoryID, req.HorizonDays)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "inventory not found", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast failed", "details": err.Error()})
		return
	}

	if result == nil {
		c.JSON(http.StatusOK, gin.H{
			"shortage_predicted": false,
			"message":            "no shortage predicted within horizon",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shortage_predicted": true,
		"forecast":           result,
	})
}

func (h *ForecastHandler) Run(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	alertIDs, err := h.service.Run(c.Request.Context(), req.HospitalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast run failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts_upserted": len(alertIDs),
		"alert_ids":       alertIDs,
	})
}
