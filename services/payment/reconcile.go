package payment

import (
	"context"
	"encoding/json"
	"fmt"

	orderRepo "driveschool/database/repository/order"
	"driveschool/models"
	"driveschool/services/booking"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// ReconciliationService turns payment-gateway outcomes into slot and
// order state. It consumes exactly two signals, success and failure, and
// exposes no gateway protocol detail beyond the webhook parser.
type ReconciliationService interface {
	// ParseWebhook verifies the Stripe signature and distills the event
	// into a PaymentOutcome. Returns (nil, nil) for event types the
	// reconciliation does not care about.
	ParseWebhook(payload []byte, signature string) (*models.PaymentOutcome, error)
	// Apply drives the outcome: confirm or revert pending slots and
	// settle the order. Idempotent end to end.
	Apply(ctx context.Context, outcome models.PaymentOutcome) (int64, error)
}

// DefaultReconciliationService implements ReconciliationService.
type DefaultReconciliationService struct {
	Booking       booking.BookingService
	Orders        orderRepo.OrderRepository
	WebhookSecret string
	Logger        *zap.Logger
}

// ParseWebhook verifies and distills a Stripe webhook event. The
// PaymentIntent metadata carries studentId, productId and orderId, set
// when the intent is created at checkout.
func (s *DefaultReconciliationService) ParseWebhook(payload []byte, signature string) (*models.PaymentOutcome, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signature: %w", err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		return nil, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}

	outcome := &models.PaymentOutcome{
		StudentID: intent.Metadata["studentId"],
		ProductID: intent.Metadata["productId"],
		OrderID:   intent.Metadata["orderId"],
		PaymentID: intent.ID,
		Succeeded: event.Type == "payment_intent.succeeded",
	}
	if outcome.StudentID == "" || outcome.ProductID == "" {
		return nil, fmt.Errorf("payment intent %s missing studentId/productId metadata", intent.ID)
	}
	return outcome, nil
}

// Apply finalizes or reverts the pending slots for the purchase and
// settles the order. Every step is conditionally guarded in the store, so
// replays are no-ops.
func (s *DefaultReconciliationService) Apply(ctx context.Context, outcome models.PaymentOutcome) (int64, error) {
	var (
		n   int64
		err error
	)
	if outcome.Succeeded {
		n, err = s.Booking.ConfirmPayment(ctx, outcome.StudentID, outcome.ProductID, outcome.PaymentID)
	} else {
		n, err = s.Booking.FailPayment(ctx, outcome.StudentID, outcome.ProductID)
	}
	if err != nil {
		return 0, err
	}

	if outcome.OrderID != "" {
		if outcome.Succeeded {
			if _, err := s.Orders.CompleteOrder(ctx, outcome.OrderID, outcome.PaymentID); err != nil {
				s.Logger.Error("failed to complete order",
					zap.String("orderId", outcome.OrderID), zap.Error(err))
			}
		} else {
			if _, err := s.Orders.FailOrder(ctx, outcome.OrderID); err != nil {
				s.Logger.Error("failed to mark order failed",
					zap.String("orderId", outcome.OrderID), zap.Error(err))
			}
		}
	}

	s.Logger.Info("payment outcome applied",
		zap.String("studentId", outcome.StudentID),
		zap.String("productId", outcome.ProductID),
		zap.Bool("succeeded", outcome.Succeeded),
		zap.Int64("slotsUpdated", n))
	return n, nil
}
