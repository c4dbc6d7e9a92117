package booking

import (
	"context"
	"strings"
	"time"

	instructorRepo "driveschool/database/repository/instructor"
	"driveschool/models"

	"go.uber.org/zap"
)

// DefaultBookingService implements BookingService on top of the
// instructor repository. Broadcasting is not triggered here: the store
// change feed is the sole trigger, so updates made by other server
// instances fan out identically.
type DefaultBookingService struct {
	Repo    instructorRepo.InstructorRepository
	Holds   HoldScheduler // nil disables automatic hold expiry
	HoldTTL time.Duration
	Logger  *zap.Logger
}

func validateKey(key models.SlotKey) error {
	if models.ScheduleFieldFor(key.ScheduleKind) == "" {
		return NewValidationError("unknown schedule kind")
	}
	if _, err := time.Parse("2006-01-02", key.Date); err != nil {
		return NewValidationError("date must be YYYY-MM-DD")
	}
	for _, hm := range []string{key.Start, key.End} {
		if _, err := time.Parse("15:04", hm); err != nil {
			return NewValidationError("times must be HH:MM")
		}
	}
	if strings.Compare(key.Start, key.End) >= 0 {
		return NewValidationError("start must be before end")
	}
	return nil
}

// Reserve claims an available slot for the student. Concurrent attempts
// on the same slot are resolved by the store: exactly one conditional
// update matches, the rest come back here and map to a conflict.
func (s *DefaultBookingService) Reserve(ctx context.Context, studentID, instructorID string, key models.SlotKey, meta models.BookingMeta) error {
	if studentID == "" {
		return NewValidationError("missing student id")
	}
	if instructorID == "" {
		return NewValidationError("missing instructor id")
	}
	if err := validateKey(key); err != nil {
		return err
	}

	ok, err := s.Repo.ReserveSlot(ctx, instructorID, key, studentID, meta)
	if err != nil {
		return NewUpstreamError("reserve slot", err)
	}
	if !ok {
		return s.classifyReserveFailure(ctx, instructorID, key)
	}

	if s.Holds != nil {
		ttl := s.HoldTTL
		if ttl <= 0 {
			ttl = 15 * time.Minute
		}
		if err := s.Holds.ScheduleExpiry(ctx, instructorID, key, studentID, ttl); err != nil {
			// The catch-up sweep reverts orphaned holds, so a failed
			// enqueue does not leak the slot.
			s.Logger.Warn("failed to schedule hold expiry",
				zap.String("instructorId", instructorID),
				zap.String("studentId", studentID),
				zap.Error(err))
		}
	}
	return nil
}

// classifyReserveFailure re-reads the slot to tell apart a missing slot,
// a slot held by someone, and a slot in a non-bookable state. The read is
// advisory only; the reservation attempt itself was already decided
// atomically.
func (s *DefaultBookingService) classifyReserveFailure(ctx context.Context, instructorID string, key models.SlotKey) error {
	slots, err := s.Repo.GetDaySlots(ctx, instructorID, key.ScheduleKind, key.Date)
	if err != nil {
		// Instructor missing entirely.
		return ErrSlotNotFound
	}
	for _, slot := range slots {
		if slot.Start != key.Start || slot.End != key.End {
			continue
		}
		if key.ClassType != "" && slot.ClassType != key.ClassType {
			continue
		}
		if slot.StudentID != "" {
			return ErrAlreadyBooked
		}
		return ErrSlotUnavailable
	}
	return ErrSlotNotFound
}

// CancelPending reverts the student's own pending hold. The guard requires
// both the pending status and the matching student id, so a hold that
// confirmed meanwhile, or someone else's hold, reads as not found.
func (s *DefaultBookingService) CancelPending(ctx context.Context, instructorID string, key models.SlotKey, studentID string) error {
	if studentID == "" {
		return NewValidationError("missing student id")
	}
	if err := validateKey(key); err != nil {
		return err
	}
	ok, err := s.Repo.RevertSlot(ctx, instructorID, key, studentID, models.SlotStatusPending)
	if err != nil {
		return NewUpstreamError("cancel pending", err)
	}
	if !ok {
		return ErrHoldNotFound
	}
	return nil
}

// Release reverts a scheduled slot, independent of payment state.
func (s *DefaultBookingService) Release(ctx context.Context, instructorID string, key models.SlotKey, studentID string) error {
	if studentID == "" {
		return NewValidationError("missing student id")
	}
	if err := validateKey(key); err != nil {
		return err
	}
	ok, err := s.Repo.RevertSlot(ctx, instructorID, key, studentID, models.SlotStatusScheduled)
	if err != nil {
		return NewUpstreamError("release slot", err)
	}
	if !ok {
		return ErrHoldNotFound
	}
	return nil
}

// GetDaySlots reads the current slot list for one instructor day.
func (s *DefaultBookingService) GetDaySlots(ctx context.Context, instructorID, kind, date string) ([]models.Slot, error) {
	if models.ScheduleFieldFor(kind) == "" {
		return nil, NewValidationError("unknown schedule kind")
	}
	slots, err := s.Repo.GetDaySlots(ctx, instructorID, kind, date)
	if err != nil {
		return nil, NewUpstreamError("get day slots", err)
	}
	return slots, nil
}

// BlockSlot marks an available slot cancelled (instructor blackout).
func (s *DefaultBookingService) BlockSlot(ctx context.Context, instructorID string, key models.SlotKey) error {
	if err := validateKey(key); err != nil {
		return err
	}
	ok, err := s.Repo.BlockSlot(ctx, instructorID, key)
	if err != nil {
		return NewUpstreamError("block slot", err)
	}
	if !ok {
		return ErrSlotUnavailable
	}
	return nil
}
