package models

// PaymentOutcome is the distilled signal the reconciliation service
// consumes from the payment gateway. The gateway protocol itself stays
// behind the webhook handler.
type PaymentOutcome struct {
	StudentID string `json:"studentId"`
	ProductID string `json:"productId"`
	PaymentID string `json:"paymentId,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
	Succeeded bool   `json:"succeeded"`
}
