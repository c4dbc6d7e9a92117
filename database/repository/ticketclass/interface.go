package ticketclassRepo

import (
	"context"

	"driveschool/models"
)

// TicketClassRepository defines data access for group classes. Capacity
// and duplicate guards are part of the update predicates, so concurrent
// enrollments are arbitrated by the store, not by callers.
type TicketClassRepository interface {
	GetClassByID(ctx context.Context, classID string) (*models.TicketClass, error)
	CreateClass(ctx context.Context, class *models.TicketClass) error
	ListClasses(ctx context.Context) ([]models.TicketClass, error)

	// EnrollStudent appends the student to the roster iff the student is
	// not already present (in either legacy or current shape) and the
	// roster is below capacity. Returns false when the guard fails.
	EnrollStudent(ctx context.Context, classID string, entry models.StudentEntry) (bool, error)
	// AddEnrollmentRequest appends a pending request iff no pending
	// request for the student exists and spots remain.
	AddEnrollmentRequest(ctx context.Context, classID string, req models.StudentRequest) (bool, error)
	// RemoveStudent removes the student from the roster, matching both
	// roster shapes. Returns false when the student was not enrolled.
	RemoveStudent(ctx context.Context, classID, studentID string) (bool, error)
	// RemovePendingRequest removes the student's pending request. Returns
	// false when no pending request existed.
	RemovePendingRequest(ctx context.Context, classID, studentID string) (bool, error)
}
