package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/exam-platform/grading-service/internal/services"
	"github.com/exam-platform/grading-service/internal/validator"
)

// RepairHandler exposes the operational repair pass for pairs that have
// answer records but no aggregate score.
type RepairHandler struct {
	repair    services.RepairService
	validator *validator.Validator
	logger    *slog.Logger
}

func NewRepairHandler(repair services.RepairService, validator *validator.Validator, logger *slog.Logger) *RepairHandler {
	return &RepairHandler{
		repair:    repair,
		validator: validator,
		logger:    logger,
	}
}

type repairPairRequest struct {
	StudentID uint `json:"student_id" validate:"required"`
	PageID    uint `json:"page_id" validate:"required"`
}

// RepairAll sweeps the store and repairs every inconsistent pair.
func (h *RepairHandler) RepairAll(c *gin.Context) {
	report, err := h.repair.RepairAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Repair sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "repair sweep failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// RepairPair repairs one (student, page) pair.
func (h *RepairHandler) RepairPair(c *gin.Context) {
	var req repairPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.repair.RepairPair(c.Request.Context(), req.StudentID, req.PageID)
	if err != nil {
		if errors.Is(err, services.ErrNoAnswersForPair) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Pair repair failed",
			"student_id", req.StudentID,
			"page_id", req.PageID,
			"error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "repair failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
