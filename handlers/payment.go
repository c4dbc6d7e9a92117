package handlers

import (
	"io"
	"net/http"

	"driveschool/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler receives payment-gateway webhooks.
type PaymentHandler struct {
	Service payment.ReconciliationService
	Logger  *zap.Logger
}

// NewPaymentHandler creates a PaymentHandler.
func NewPaymentHandler(svc payment.ReconciliationService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Service: svc, Logger: logger}
}

// Webhook handles POST /api/payments/webhook. Always answers 200 for
// events we deliberately ignore; the gateway retries anything else.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read payload"})
		return
	}

	outcome, err := h.Service.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.Logger.Warn("rejected payment webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}
	if outcome == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	n, err := h.Service.Apply(c.Request.Context(), *outcome)
	if err != nil {
		// 500 makes the gateway retry; Apply is idempotent.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "slotsUpdated": n})
}
