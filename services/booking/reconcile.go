package booking

import (
	"context"

	"go.uber.org/zap"
)

// ConfirmPayment drives every pending slot for (studentID, productID) to
// scheduled, stamping the payment id and confirmation time. Returns the
// number of slots updated; zero means a retry or duplicate webhook and is
// not an error.
func (s *DefaultBookingService) ConfirmPayment(ctx context.Context, studentID, productID, paymentID string) (int64, error) {
	if studentID == "" || productID == "" {
		return 0, NewValidationError("missing student or product id")
	}
	n, err := s.Repo.ConfirmPaymentSlots(ctx, studentID, productID, paymentID)
	if err != nil {
		return 0, NewUpstreamError("confirm payment", err)
	}
	s.Logger.Info("payment confirmed",
		zap.String("studentId", studentID),
		zap.String("productId", productID),
		zap.String("paymentId", paymentID),
		zap.Int64("slotsUpdated", n))
	return n, nil
}

// FailPayment reverts every pending slot for (studentID, productID) to
// available, clearing booking metadata. Idempotent like ConfirmPayment.
func (s *DefaultBookingService) FailPayment(ctx context.Context, studentID, productID string) (int64, error) {
	if studentID == "" || productID == "" {
		return 0, NewValidationError("missing student or product id")
	}
	n, err := s.Repo.FailPaymentSlots(ctx, studentID, productID)
	if err != nil {
		return 0, NewUpstreamError("fail payment", err)
	}
	s.Logger.Info("payment failed, holds reverted",
		zap.String("studentId", studentID),
		zap.String("productId", productID),
		zap.Int64("slotsUpdated", n))
	return n, nil
}
