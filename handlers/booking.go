package handlers

import (
	"net/http"

	"driveschool/models"
	"driveschool/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the slot lifecycle endpoints.
type BookingHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

// NewBookingHandler creates a BookingHandler.
func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

type reserveRequest struct {
	InstructorID string             `json:"instructorId" binding:"required"`
	Key          models.SlotKey     `json:"slot" binding:"required"`
	Meta         models.BookingMeta `json:"details"`
}

// ReserveSlot handles POST /api/booking/reserve.
func (h *BookingHandler) ReserveSlot(c *gin.Context) {
	studentID := c.GetString("studentID")

	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Service.Reserve(c.Request.Context(), studentID, req.InstructorID, req.Key, req.Meta); err != nil {
		respondServiceError(c, err)
		return
	}

	invalidateScheduleCache(c.Request.Context(), req.InstructorID, req.Key.ScheduleKind, req.Key.Date)
	h.Logger.Info("slot reserved",
		zap.String("studentId", studentID),
		zap.String("instructorId", req.InstructorID),
		zap.String("date", req.Key.Date),
		zap.String("start", req.Key.Start))
	c.JSON(http.StatusOK, gin.H{
		"status": models.SlotStatusPending,
		"slot":   req.Key,
	})
}

type slotActionRequest struct {
	InstructorID string         `json:"instructorId" binding:"required"`
	Key          models.SlotKey `json:"slot" binding:"required"`
}

// CancelPending handles POST /api/booking/cancel.
func (h *BookingHandler) CancelPending(c *gin.Context) {
	studentID := c.GetString("studentID")

	var req slotActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Service.CancelPending(c.Request.Context(), req.InstructorID, req.Key, studentID); err != nil {
		respondServiceError(c, err)
		return
	}
	invalidateScheduleCache(c.Request.Context(), req.InstructorID, req.Key.ScheduleKind, req.Key.Date)
	c.JSON(http.StatusOK, gin.H{"status": models.SlotStatusAvailable, "slot": req.Key})
}

// ReleaseSlot handles POST /api/booking/release.
func (h *BookingHandler) ReleaseSlot(c *gin.Context) {
	studentID := c.GetString("studentID")

	var req slotActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Service.Release(c.Request.Context(), req.InstructorID, req.Key, studentID); err != nil {
		respondServiceError(c, err)
		return
	}
	invalidateScheduleCache(c.Request.Context(), req.InstructorID, req.Key.ScheduleKind, req.Key.Date)
	c.JSON(http.StatusOK, gin.H{"status": models.SlotStatusAvailable, "slot": req.Key})
}
