package classes

import (
	"context"
	"time"

	ticketclassRepo "driveschool/database/repository/ticketclass"
	"driveschool/models"
	"driveschool/services/booking"

	"go.uber.org/zap"
)

// ClassService exposes group-class enrollment operations.
type ClassService interface {
	Enroll(ctx context.Context, studentID, classID string, entry models.StudentEntry) error
	RequestEnrollment(ctx context.Context, studentID, classID string) error
	Unenroll(ctx context.Context, studentID, classID string) error
	CancelRequest(ctx context.Context, studentID, classID string) error
	GetClass(ctx context.Context, classID string) (*models.TicketClass, error)
	ListClasses(ctx context.Context) ([]models.TicketClass, error)
}

// DefaultClassService implements ClassService. Capacity and duplicate
// guards live in the repository's update predicates; this layer maps
// failed guards to specific errors by re-reading the class.
type DefaultClassService struct {
	Repo   ticketclassRepo.TicketClassRepository
	Logger *zap.Logger
}

// Enroll adds the student to the roster directly (classes without manual
// approval).
func (s *DefaultClassService) Enroll(ctx context.Context, studentID, classID string, entry models.StudentEntry) error {
	if studentID == "" || classID == "" {
		return booking.NewValidationError("missing student or class id")
	}
	now := time.Now()
	entry.StudentID = studentID
	if entry.EnrolledAt == nil {
		entry.EnrolledAt = &now
	}

	ok, err := s.Repo.EnrollStudent(ctx, classID, entry)
	if err != nil {
		return booking.NewUpstreamError("enroll student", err)
	}
	if ok {
		return nil
	}

	class, err := s.Repo.GetClassByID(ctx, classID)
	if err != nil {
		return ErrClassNotFound
	}
	for _, st := range class.Students {
		if st.StudentID == studentID {
			return ErrAlreadyEnrolled
		}
	}
	return ErrClassFull
}

// RequestEnrollment files a pending request for classes that require
// manual approval before granting a roster spot.
func (s *DefaultClassService) RequestEnrollment(ctx context.Context, studentID, classID string) error {
	if studentID == "" || classID == "" {
		return booking.NewValidationError("missing student or class id")
	}
	req := models.StudentRequest{
		StudentID:   studentID,
		Status:      models.RequestStatusPending,
		RequestedAt: time.Now(),
	}

	ok, err := s.Repo.AddEnrollmentRequest(ctx, classID, req)
	if err != nil {
		return booking.NewUpstreamError("request enrollment", err)
	}
	if ok {
		return nil
	}

	class, err := s.Repo.GetClassByID(ctx, classID)
	if err != nil {
		return ErrClassNotFound
	}
	for _, r := range class.StudentRequests {
		if r.StudentID == studentID && r.Status == models.RequestStatusPending {
			return ErrDuplicatePending
		}
	}
	return ErrNoSpots
}

// Unenroll removes the student from the roster. An absent student is an
// error, not a silent success, to surface caller mistakes.
func (s *DefaultClassService) Unenroll(ctx context.Context, studentID, classID string) error {
	if studentID == "" || classID == "" {
		return booking.NewValidationError("missing student or class id")
	}
	ok, err := s.Repo.RemoveStudent(ctx, classID, studentID)
	if err != nil {
		if _, getErr := s.Repo.GetClassByID(ctx, classID); getErr != nil {
			return ErrClassNotFound
		}
		return booking.NewUpstreamError("unenroll student", err)
	}
	if !ok {
		return ErrNotEnrolled
	}
	return nil
}

// CancelRequest withdraws the student's pending enrollment request.
func (s *DefaultClassService) CancelRequest(ctx context.Context, studentID, classID string) error {
	if studentID == "" || classID == "" {
		return booking.NewValidationError("missing student or class id")
	}
	ok, err := s.Repo.RemovePendingRequest(ctx, classID, studentID)
	if err != nil {
		if _, getErr := s.Repo.GetClassByID(ctx, classID); getErr != nil {
			return ErrClassNotFound
		}
		return booking.NewUpstreamError("cancel request", err)
	}
	if !ok {
		return ErrNoPendingRequest
	}
	return nil
}

func (s *DefaultClassService) GetClass(ctx context.Context, classID string) (*models.TicketClass, error) {
	class, err := s.Repo.GetClassByID(ctx, classID)
	if err != nil {
		return nil, ErrClassNotFound
	}
	return class, nil
}

func (s *DefaultClassService) ListClasses(ctx context.Context) ([]models.TicketClass, error) {
	classes, err := s.Repo.ListClasses(ctx)
	if err != nil {
		return nil, booking.NewUpstreamError("list classes", err)
	}
	return classes, nil
}
