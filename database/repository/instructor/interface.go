package instructorRepo

import (
	"context"
	"time"

	"driveschool/models"
)

// StaleHold identifies a pending reservation older than the hold TTL,
// found by the catch-up sweep.
type StaleHold struct {
	InstructorID string
	StudentID    string
	Key          models.SlotKey
}

// InstructorRepository defines the data access methods for instructor
// documents and their embedded schedules. Every slot mutation is a single
// conditional update: the expected prior state is part of the update
// predicate, so the store arbitrates concurrent attempts.
type InstructorRepository interface {
	GetInstructorByID(ctx context.Context, instructorID string) (*models.Instructor, error)
	CreateInstructor(ctx context.Context, instructor *models.Instructor) error
	DeleteInstructor(ctx context.Context, instructorID string) error
	ListInstructors(ctx context.Context) ([]models.Instructor, error)

	// GetDaySlots returns the slots for one instructor, schedule kind and
	// date. A missing day yields an empty slice, a missing instructor an
	// error.
	GetDaySlots(ctx context.Context, instructorID, kind, date string) ([]models.Slot, error)
	// SetupDaySlots replaces the slot list for one day, creating the day
	// entry if absent.
	SetupDaySlots(ctx context.Context, instructorID, kind, date string, slots []models.Slot) error

	// ReserveSlot transitions available -> pending for the matching slot.
	// Returns false when no slot in status available matched the key.
	ReserveSlot(ctx context.Context, instructorID string, key models.SlotKey, studentID string, meta models.BookingMeta) (bool, error)
	// ConfirmPaymentSlots bulk-transitions every pending slot held by the
	// student for the product to scheduled, across all instructors and
	// schedule kinds. Returns the number of slots updated.
	ConfirmPaymentSlots(ctx context.Context, studentID, productID, paymentID string) (int64, error)
	// FailPaymentSlots is the symmetric bulk revert to available, clearing
	// all booking metadata. Returns the number of slots updated.
	FailPaymentSlots(ctx context.Context, studentID, productID string) (int64, error)
	// RevertSlot transitions a slot back to available, guarded by the
	// expected current status and owning student. Returns false when the
	// guard did not match.
	RevertSlot(ctx context.Context, instructorID string, key models.SlotKey, studentID, expectedStatus string) (bool, error)
	// BlockSlot marks a slot cancelled (instructor-side blackout). Only
	// available slots can be blocked.
	BlockSlot(ctx context.Context, instructorID string, key models.SlotKey) (bool, error)

	// FindStalePending returns pending holds requested before the cutoff,
	// for the catch-up sweep on worker start.
	FindStalePending(ctx context.Context, cutoff time.Time) ([]StaleHold, error)
}
