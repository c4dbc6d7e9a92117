package handlers

import (
	"net/http"

	instructorRepo "driveschool/database/repository/instructor"
	"driveschool/models"
	"driveschool/services/booking"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InstructorHandler exposes instructor administration endpoints.
type InstructorHandler struct {
	Repo    instructorRepo.InstructorRepository
	Booking booking.BookingService
	Logger  *zap.Logger
}

// NewInstructorHandler creates an InstructorHandler.
func NewInstructorHandler(repo instructorRepo.InstructorRepository, svc booking.BookingService, logger *zap.Logger) *InstructorHandler {
	return &InstructorHandler{Repo: repo, Booking: svc, Logger: logger}
}

// ListInstructors handles GET /api/admin/instructors.
func (h *InstructorHandler) ListInstructors(c *gin.Context) {
	instructors, err := h.Repo.ListInstructors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list instructors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instructors": instructors})
}

// GetInstructor handles GET /api/admin/instructors/:id.
func (h *InstructorHandler) GetInstructor(c *gin.Context) {
	instructor, err := h.Repo.GetInstructorByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "instructor not found"})
		return
	}
	c.JSON(http.StatusOK, instructor)
}

type createInstructorRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoUrl"`
}

// CreateInstructor handles POST /api/admin/instructors.
func (h *InstructorHandler) CreateInstructor(c *gin.Context) {
	var req createInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	instructor := &models.Instructor{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Email:    req.Email,
		PhotoURL: req.PhotoURL,
		Active:   true,
	}
	if err := h.Repo.CreateInstructor(c.Request.Context(), instructor); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create instructor"})
		return
	}
	c.JSON(http.StatusOK, instructor)
}

type setupSlotsRequest struct {
	Kind  string        `json:"kind" binding:"required"`
	Date  string        `json:"date" binding:"required"`
	Slots []models.Slot `json:"slots" binding:"required"`
}

// SetupDaySlots handles PUT /api/admin/instructors/:id/schedule. New slots always
// start available; within one day no two slots may share (start, end)
// for the same class type.
func (h *InstructorHandler) SetupDaySlots(c *gin.Context) {
	instructorID := c.Param("id")

	var req setupSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if models.ScheduleFieldFor(req.Kind) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown schedule kind"})
		return
	}

	type slotIdent struct{ start, end, classType string }
	seen := make(map[slotIdent]bool, len(req.Slots))
	for i := range req.Slots {
		ident := slotIdent{req.Slots[i].Start, req.Slots[i].End, req.Slots[i].ClassType}
		if seen[ident] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "duplicate slot interval in day"})
			return
		}
		seen[ident] = true
		req.Slots[i].Status = models.SlotStatusAvailable
		req.Slots[i].StudentID = ""
		req.Slots[i].Paid = false
	}

	if err := h.Repo.SetupDaySlots(c.Request.Context(), instructorID, req.Kind, req.Date, req.Slots); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set up slots", "details": err.Error()})
		return
	}

	invalidateScheduleCache(c.Request.Context(), instructorID, req.Kind, req.Date)
	h.Logger.Info("day slots configured",
		zap.String("instructorId", instructorID),
		zap.String("kind", req.Kind),
		zap.String("date", req.Date),
		zap.Int("count", len(req.Slots)))
	c.JSON(http.StatusOK, gin.H{"instructorId": instructorID, "kind": req.Kind, "date": req.Date, "slots": req.Slots})
}

type blockSlotRequest struct {
	Key models.SlotKey `json:"slot" binding:"required"`
}

// BlockSlot handles POST /api/admin/instructors/:id/block. Blocks an available
// slot (instructor blackout); booked slots must be released first.
func (h *InstructorHandler) BlockSlot(c *gin.Context) {
	instructorID := c.Param("id")

	var req blockSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := h.Booking.BlockSlot(c.Request.Context(), instructorID, req.Key); err != nil {
		respondServiceError(c, err)
		return
	}
	invalidateScheduleCache(c.Request.Context(), instructorID, req.Key.ScheduleKind, req.Key.Date)
	c.JSON(http.StatusOK, gin.H{"status": models.SlotStatusCancelled, "slot": req.Key})
}
