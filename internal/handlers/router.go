package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/exam-platform/grading-service/internal/services"
	"github.com/exam-platform/grading-service/internal/validator"
)

// HandlerManager wires HTTP handlers to the service layer
type HandlerManager struct {
	serviceManager services.ServiceManager
	repairHandler  *RepairHandler
	logger         *slog.Logger
}

// NewHandlerManager creates a handler manager with all dependencies
func NewHandlerManager(serviceManager services.ServiceManager, validator *validator.Validator, logger *slog.Logger) *HandlerManager {
	return &HandlerManager{
		serviceManager: serviceManager,
		repairHandler:  NewRepairHandler(serviceManager.Repair(), validator, logger),
		logger:         logger,
	}
}

// SetupRoutes registers all routes on the router
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)
	router.GET("/ready", hm.readyCheck)

	internalGroup := router.Group("/internal")
	{
		internalGroup.POST("/repair", hm.repairHandler.RepairAll)
		internalGroup.POST("/repair/pair", hm.repairHandler.RepairPair)
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "grading-service"})
}

func (hm *HandlerManager) readyCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		hm.logger.Warn("Readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
