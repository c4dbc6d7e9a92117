package models

import "time"

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// OrderItem is one purchased line: a product (lesson package, test fee,
// ticket class seat) and its price at checkout time.
type OrderItem struct {
	ProductID string  `bson:"productId" json:"productId"`
	Title     string  `bson:"title" json:"title"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unitPrice" json:"unitPrice"`
}

// Order records one checkout attempt. Completing an order is the signal
// that drives any pending slots for the purchase to scheduled.
type Order struct {
	ID          string      `bson:"id" json:"id"`
	StudentID   string      `bson:"studentId" json:"studentId"`
	Items       []OrderItem `bson:"items" json:"items"`
	Total       float64     `bson:"total" json:"total"`
	Status      string      `bson:"status" json:"status"` // pending | completed | failed
	PaymentID   string      `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
	CompletedAt *time.Time  `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}
