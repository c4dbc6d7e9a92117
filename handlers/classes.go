package handlers

import (
	"net/http"

	"driveschool/models"
	"driveschool/services/classes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClassHandler exposes group-class enrollment endpoints.
type ClassHandler struct {
	Service classes.ClassService
	Logger  *zap.Logger
}

// NewClassHandler creates a ClassHandler.
func NewClassHandler(svc classes.ClassService, logger *zap.Logger) *ClassHandler {
	return &ClassHandler{Service: svc, Logger: logger}
}

// ListClasses handles GET /api/classes.
func (h *ClassHandler) ListClasses(c *gin.Context) {
	list, err := h.Service.ListClasses(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": list})
}

// GetClass handles GET /api/classes/:id.
func (h *ClassHandler) GetClass(c *gin.Context) {
	class, err := h.Service.GetClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, class)
}

type enrollRequest struct {
	ProductID string `json:"productId"`
	OrderID   string `json:"orderId"`
}

// Enroll handles POST /api/classes/:id/enroll.
func (h *ClassHandler) Enroll(c *gin.Context) {
	studentID := c.GetString("studentID")
	classID := c.Param("id")

	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	entry := models.StudentEntry{
		StudentID: studentID,
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
	}
	if err := h.Service.Enroll(c.Request.Context(), studentID, classID, entry); err != nil {
		respondServiceError(c, err)
		return
	}
	h.Logger.Info("student enrolled", zap.String("studentId", studentID), zap.String("classId", classID))
	c.JSON(http.StatusOK, gin.H{"enrolled": true, "classId": classID})
}

// RequestEnrollment handles POST /api/classes/:id/request.
func (h *ClassHandler) RequestEnrollment(c *gin.Context) {
	studentID := c.GetString("studentID")
	classID := c.Param("id")

	if err := h.Service.RequestEnrollment(c.Request.Context(), studentID, classID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requested": true, "classId": classID})
}

// Unenroll handles DELETE /api/classes/:id/enroll.
func (h *ClassHandler) Unenroll(c *gin.Context) {
	studentID := c.GetString("studentID")
	classID := c.Param("id")

	if err := h.Service.Unenroll(c.Request.Context(), studentID, classID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrolled": false, "classId": classID})
}

// CancelRequest handles DELETE /api/classes/:id/request.
func (h *ClassHandler) CancelRequest(c *gin.Context) {
	studentID := c.GetString("studentID")
	classID := c.Param("id")

	if err := h.Service.CancelRequest(c.Request.Context(), studentID, classID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requested": false, "classId": classID})
}
