package orderRepo

import (
	"context"

	"driveschool/models"
)

// OrderRepository defines data access for checkout orders.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	ListOrdersByStudent(ctx context.Context, studentID string) ([]models.Order, error)
	// CompleteOrder transitions pending -> completed, stamping the payment
	// id. Returns false when the order was not pending (already settled).
	CompleteOrder(ctx context.Context, orderID, paymentID string) (bool, error)
	// FailOrder transitions pending -> failed. Returns false when the
	// order was not pending.
	FailOrder(ctx context.Context, orderID string) (bool, error)
}
