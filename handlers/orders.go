package handlers

import (
	"net/http"

	orderRepo "driveschool/database/repository/order"
	"driveschool/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderHandler exposes checkout order endpoints.
type OrderHandler struct {
	Repo   orderRepo.OrderRepository
	Logger *zap.Logger
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(repo orderRepo.OrderRepository, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{Repo: repo, Logger: logger}
}

type createOrderRequest struct {
	Items []models.OrderItem `json:"items" binding:"required,min=1"`
}

// CreateOrder handles POST /api/orders. The order id is returned to the
// client, which passes it as PaymentIntent metadata so the webhook can
// settle it.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	studentID := c.GetString("studentID")

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	var total float64
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order item"})
			return
		}
		total += item.UnitPrice * float64(item.Quantity)
	}

	order := &models.Order{
		ID:        uuid.New().String(),
		StudentID: studentID,
		Items:     req.Items,
		Total:     total,
	}
	if err := h.Repo.CreateOrder(c.Request.Context(), order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create order"})
		return
	}

	h.Logger.Info("order created",
		zap.String("orderId", order.ID),
		zap.String("studentId", studentID),
		zap.Float64("total", total))
	c.JSON(http.StatusOK, order)
}

// GetOrder handles GET /api/orders/:id. Students can only read their own
// orders.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	studentID := c.GetString("studentID")

	order, err := h.Repo.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	if order.StudentID != studentID {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /api/orders.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	studentID := c.GetString("studentID")

	orders, err := h.Repo.ListOrdersByStudent(c.Request.Context(), studentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
