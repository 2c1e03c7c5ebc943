package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"heritage-api/models"
	"heritage-api/statemachine"
)

// Health reports service and database liveness
func (h *Handler) Health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status, code, dbStatus = "degraded", http.StatusServiceUnavailable, "unreachable"
	}
	c.JSON(code, gin.H{
		"status":   status,
		"service":  "Heritage Documentation API",
		"database": dbStatus,
	})
}

// GetPillars returns the pillars with their conventional categories
func (h *Handler) GetPillars(c *gin.Context) {
	pillars := make([]gin.H, 0, len(models.Pillars))
	for _, p := range models.Pillars {
		pillars = append(pillars, gin.H{"name": p, "categories": models.PillarCategories[p]})
	}
	c.JSON(http.StatusOK, gin.H{"pillars": pillars})
}

// GetWorkflowInfo returns the submission state machine for documentation
func (h *Handler) GetWorkflowInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"initial_status": statemachine.InitialStatus,
		"statuses":       models.Statuses,
		"transitions":    statemachine.GetAllTransitions(),
	})
}
