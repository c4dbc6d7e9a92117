package booking

import (
	"context"
	"time"

	"driveschool/models"
)

// BookingService exposes the slot lifecycle operations. All mutual
// exclusion is delegated to the store's conditional updates; none of
// these methods hold in-process locks across store calls.
type BookingService interface {
	// Reserve transitions an available slot to pending for the student.
	Reserve(ctx context.Context, studentID, instructorID string, key models.SlotKey, meta models.BookingMeta) error
	// ConfirmPayment bulk-confirms every pending slot for (student,
	// product), returning the number of slots updated. Zero is not an
	// error: duplicate webhooks are no-ops.
	ConfirmPayment(ctx context.Context, studentID, productID, paymentID string) (int64, error)
	// FailPayment bulk-reverts every pending slot for (student, product).
	FailPayment(ctx context.Context, studentID, productID string) (int64, error)
	// CancelPending reverts the student's own pending hold.
	CancelPending(ctx context.Context, instructorID string, key models.SlotKey, studentID string) error
	// Release reverts a scheduled slot (student or admin cancellation).
	Release(ctx context.Context, instructorID string, key models.SlotKey, studentID string) error
	// GetDaySlots reads the current slot list for one instructor day.
	GetDaySlots(ctx context.Context, instructorID, kind, date string) ([]models.Slot, error)
	// BlockSlot marks an available slot cancelled (instructor blackout).
	BlockSlot(ctx context.Context, instructorID string, key models.SlotKey) error
}

// HoldScheduler schedules the automatic expiry of a pending hold. The
// cron package provides the asynq-backed implementation.
type HoldScheduler interface {
	ScheduleExpiry(ctx context.Context, instructorID string, key models.SlotKey, studentID string, ttl time.Duration) error
}
