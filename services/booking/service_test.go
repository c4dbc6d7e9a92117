package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	instructorRepo "driveschool/database/repository/instructor"
	"driveschool/models"

	"go.uber.org/zap"
)

// fakeInstructorRepo implements the repository contract in memory. Every
// mutation checks its guard under one lock, mirroring the conditional
// updates the Mongo implementation issues.
type fakeInstructorRepo struct {
	mu          sync.Mutex
	instructors map[string]*models.Instructor
	failWith    error
}

func newFakeInstructorRepo() *fakeInstructorRepo {
	return &fakeInstructorRepo{instructors: map[string]*models.Instructor{}}
}

func (f *fakeInstructorRepo) addDay(instructorID, kind, date string, slots ...models.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	instr, ok := f.instructors[instructorID]
	if !ok {
		instr = &models.Instructor{ID: instructorID, Active: true}
		f.instructors[instructorID] = instr
	}
	day := models.Day{Date: date, Slots: slots}
	switch kind {
	case models.ScheduleKindTest:
		instr.ScheduleDrivingTest = append(instr.ScheduleDrivingTest, day)
	case models.ScheduleKindGeneral:
		instr.ScheduleGeneral = append(instr.ScheduleGeneral, day)
	default:
		instr.Schedule = append(instr.Schedule, day)
	}
}

func (f *fakeInstructorRepo) findSlot(instructorID string, key models.SlotKey) *models.Slot {
	instr, ok := f.instructors[instructorID]
	if !ok {
		return nil
	}
	days := instr.ScheduleFor(key.ScheduleKind)
	for di := range days {
		if days[di].Date != key.Date {
			continue
		}
		for si := range days[di].Slots {
			s := &days[di].Slots[si]
			if s.Start != key.Start || s.End != key.End {
				continue
			}
			if key.ClassType != "" && s.ClassType != key.ClassType {
				continue
			}
			return s
		}
	}
	return nil
}

func (f *fakeInstructorRepo) GetInstructorByID(ctx context.Context, id string) (*models.Instructor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	instr, ok := f.instructors[id]
	if !ok {
		return nil, errors.New("instructor not found")
	}
	cp := *instr
	return &cp, nil
}

func (f *fakeInstructorRepo) CreateInstructor(ctx context.Context, instr *models.Instructor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instructors[instr.ID] = instr
	return nil
}

func (f *fakeInstructorRepo) DeleteInstructor(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.instructors, id)
	return nil
}

func (f *fakeInstructorRepo) ListInstructors(ctx context.Context) ([]models.Instructor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Instructor, 0, len(f.instructors))
	for _, instr := range f.instructors {
		out = append(out, *instr)
	}
	return out, nil
}

func (f *fakeInstructorRepo) GetDaySlots(ctx context.Context, instructorID, kind, date string) ([]models.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	instr, ok := f.instructors[instructorID]
	if !ok {
		return nil, errors.New("instructor not found")
	}
	for _, day := range instr.ScheduleFor(kind) {
		if day.Date == date {
			out := make([]models.Slot, len(day.Slots))
			copy(out, day.Slots)
			return out, nil
		}
	}
	return []models.Slot{}, nil
}

func (f *fakeInstructorRepo) SetupDaySlots(ctx context.Context, instructorID, kind, date string, slots []models.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	instr, ok := f.instructors[instructorID]
	if !ok {
		return errors.New("instructor not found")
	}
	days := instr.ScheduleFor(kind)
	for di := range days {
		if days[di].Date == date {
			days[di].Slots = slots
			return nil
		}
	}
	day := models.Day{Date: date, Slots: slots}
	switch kind {
	case models.ScheduleKindTest:
		instr.ScheduleDrivingTest = append(instr.ScheduleDrivingTest, day)
	case models.ScheduleKindGeneral:
		instr.ScheduleGeneral = append(instr.ScheduleGeneral, day)
	default:
		instr.Schedule = append(instr.Schedule, day)
	}
	return nil
}

func (f *fakeInstructorRepo) ReserveSlot(ctx context.Context, instructorID string, key models.SlotKey, studentID string, meta models.BookingMeta) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	s := f.findSlot(instructorID, key)
	if s == nil || s.Status != models.SlotStatusAvailable || s.StudentID != "" {
		return false, nil
	}
	now := time.Now()
	s.Status = models.SlotStatusPending
	s.StudentID = studentID
	s.SelectedProduct = meta.SelectedProduct
	s.PaymentMethod = meta.PaymentMethod
	s.PickupLocation = meta.PickupLocation
	s.DropoffLocation = meta.DropoffLocation
	s.RequestedAt = &now
	return true, nil
}

func (f *fakeInstructorRepo) ConfirmPaymentSlots(ctx context.Context, studentID, productID, paymentID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	f.eachSlot(func(s *models.Slot) {
		if s.Status == models.SlotStatusPending && s.StudentID == studentID && s.SelectedProduct == productID {
			s.Status = models.SlotStatusScheduled
			s.Paid = true
			s.PaymentID = paymentID
			s.ConfirmedAt = &now
			n++
		}
	})
	return n, nil
}

func (f *fakeInstructorRepo) FailPaymentSlots(ctx context.Context, studentID, productID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	f.eachSlot(func(s *models.Slot) {
		if s.Status == models.SlotStatusPending && s.StudentID == studentID && s.SelectedProduct == productID {
			clearSlot(s)
			n++
		}
	})
	return n, nil
}

func (f *fakeInstructorRepo) RevertSlot(ctx context.Context, instructorID string, key models.SlotKey, studentID, expectedStatus string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return false, f.failWith
	}
	s := f.findSlot(instructorID, key)
	if s == nil || s.Status != expectedStatus || s.StudentID != studentID {
		return false, nil
	}
	clearSlot(s)
	return true, nil
}

func (f *fakeInstructorRepo) BlockSlot(ctx context.Context, instructorID string, key models.SlotKey) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.findSlot(instructorID, key)
	if s == nil || s.Status != models.SlotStatusAvailable {
		return false, nil
	}
	s.Status = models.SlotStatusCancelled
	return true, nil
}

func (f *fakeInstructorRepo) FindStalePending(ctx context.Context, cutoff time.Time) ([]instructorRepo.StaleHold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []instructorRepo.StaleHold
	for id, instr := range f.instructors {
		for _, kind := range []string{models.ScheduleKindLesson, models.ScheduleKindTest, models.ScheduleKindGeneral} {
			for _, day := range instr.ScheduleFor(kind) {
				for _, s := range day.Slots {
					if s.Status == models.SlotStatusPending && s.RequestedAt != nil && s.RequestedAt.Before(cutoff) {
						out = append(out, instructorRepo.StaleHold{
							InstructorID: id,
							StudentID:    s.StudentID,
							Key: models.SlotKey{
								ScheduleKind: kind,
								Date:         day.Date,
								Start:        s.Start,
								End:          s.End,
								ClassType:    s.ClassType,
							},
						})
					}
				}
			}
		}
	}
	return out, nil
}

func (f *fakeInstructorRepo) eachSlot(fn func(*models.Slot)) {
	for _, instr := range f.instructors {
		for _, days := range [][]models.Day{instr.Schedule, instr.ScheduleDrivingTest, instr.ScheduleGeneral} {
			for di := range days {
				for si := range days[di].Slots {
					fn(&days[di].Slots[si])
				}
			}
		}
	}
}

func clearSlot(s *models.Slot) {
	s.Status = models.SlotStatusAvailable
	s.StudentID = ""
	s.Paid = false
	s.SelectedProduct = ""
	s.PaymentMethod = ""
	s.PaymentID = ""
	s.PickupLocation = ""
	s.DropoffLocation = ""
	s.RequestedAt = nil
	s.ConfirmedAt = nil
}

// recordingScheduler captures hold-expiry enqueues.
type recordingScheduler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *recordingScheduler) ScheduleExpiry(ctx context.Context, instructorID string, key models.SlotKey, studentID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func testKey() models.SlotKey {
	return models.SlotKey{
		ScheduleKind: models.ScheduleKindLesson,
		Date:         "2026-09-14",
		Start:        "10:00",
		End:          "11:00",
	}
}

func newTestService(repo *fakeInstructorRepo, holds HoldScheduler) *DefaultBookingService {
	return &DefaultBookingService{
		Repo:    repo,
		Holds:   holds,
		HoldTTL: 15 * time.Minute,
		Logger:  zap.NewNop(),
	}
}

func TestReserveClaimsAvailableSlot(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable})
	sched := &recordingScheduler{}
	svc := newTestService(repo, sched)

	err := svc.Reserve(context.Background(), "stud-1", "instr-1", testKey(),
		models.BookingMeta{SelectedProduct: "pkg-10h", PickupLocation: "Main St 5"})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	slots, err := svc.GetDaySlots(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if err != nil {
		t.Fatalf("get day slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	s := slots[0]
	if s.Status != models.SlotStatusPending {
		t.Fatalf("expected pending, got %q", s.Status)
	}
	if s.StudentID != "stud-1" || s.SelectedProduct != "pkg-10h" || s.PickupLocation != "Main St 5" {
		t.Fatalf("booking metadata not applied: %+v", s)
	}
	if s.RequestedAt == nil {
		t.Fatal("expected requestedAt to be stamped")
	}
	if sched.calls != 1 {
		t.Fatalf("expected 1 hold-expiry enqueue, got %d", sched.calls)
	}
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable})
	svc := newTestService(repo, nil)

	const attempts = 20
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			studentID := "stud-" + string(rune('a'+n))
			errs <- svc.Reserve(context.Background(), studentID, "instr-1", testKey(), models.BookingMeta{})
		}(i)
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error class: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", wins)
	}
	if conflicts != attempts-1 {
		t.Fatalf("expected %d conflicts, got %d", attempts-1, conflicts)
	}
}

func TestReserveFailureClassification(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusPending, StudentID: "stud-other"},
		models.Slot{Start: "11:00", End: "12:00", Status: models.SlotStatusCancelled})
	svc := newTestService(repo, nil)

	err := svc.Reserve(context.Background(), "stud-1", "instr-1", testKey(), models.BookingMeta{})
	if !errors.Is(err, ErrAlreadyBooked) {
		t.Fatalf("expected ErrAlreadyBooked for held slot, got %v", err)
	}

	blocked := testKey()
	blocked.Start, blocked.End = "11:00", "12:00"
	err = svc.Reserve(context.Background(), "stud-1", "instr-1", blocked, models.BookingMeta{})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable for cancelled slot, got %v", err)
	}

	missing := testKey()
	missing.Start, missing.End = "15:00", "16:00"
	err = svc.Reserve(context.Background(), "stud-1", "instr-1", missing, models.BookingMeta{})
	if !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestReserveValidation(t *testing.T) {
	svc := newTestService(newFakeInstructorRepo(), nil)
	cases := []struct {
		name string
		key  models.SlotKey
	}{
		{"unknown kind", models.SlotKey{ScheduleKind: "weekend", Date: "2026-09-14", Start: "10:00", End: "11:00"}},
		{"bad date", models.SlotKey{ScheduleKind: models.ScheduleKindLesson, Date: "14/09/2026", Start: "10:00", End: "11:00"}},
		{"bad time", models.SlotKey{ScheduleKind: models.ScheduleKindLesson, Date: "2026-09-14", Start: "10am", End: "11:00"}},
		{"inverted range", models.SlotKey{ScheduleKind: models.ScheduleKindLesson, Date: "2026-09-14", Start: "11:00", End: "10:00"}},
	}
	for _, tc := range cases {
		err := svc.Reserve(context.Background(), "stud-1", "instr-1", tc.key, models.BookingMeta{})
		if CodeOf(err) != CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestCancelPendingRevertsOwnHoldOnly(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable})
	svc := newTestService(repo, nil)

	if err := svc.Reserve(context.Background(), "stud-1", "instr-1", testKey(), models.BookingMeta{SelectedProduct: "pkg"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Someone else's cancel must not release the hold.
	err := svc.CancelPending(context.Background(), "instr-1", testKey(), "stud-2")
	if !errors.Is(err, ErrHoldNotFound) {
		t.Fatalf("expected ErrHoldNotFound for other student, got %v", err)
	}

	if err := svc.CancelPending(context.Background(), "instr-1", testKey(), "stud-1"); err != nil {
		t.Fatalf("cancel pending: %v", err)
	}

	slots, _ := svc.GetDaySlots(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	s := slots[0]
	if s.Status != models.SlotStatusAvailable || s.StudentID != "" || s.SelectedProduct != "" || s.RequestedAt != nil {
		t.Fatalf("slot not fully cleared after cancel: %+v", s)
	}

	// A second cancel finds nothing pending.
	err = svc.CancelPending(context.Background(), "instr-1", testKey(), "stud-1")
	if !errors.Is(err, ErrHoldNotFound) {
		t.Fatalf("expected ErrHoldNotFound on repeat cancel, got %v", err)
	}
}

func TestConfirmPaymentTransitionsAllHeldSlots(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable},
		models.Slot{Start: "11:00", End: "12:00", Status: models.SlotStatusAvailable})
	svc := newTestService(repo, nil)

	first := testKey()
	second := testKey()
	second.Start, second.End = "11:00", "12:00"
	meta := models.BookingMeta{SelectedProduct: "pkg-10h"}
	if err := svc.Reserve(context.Background(), "stud-1", "instr-1", first, meta); err != nil {
		t.Fatalf("reserve first: %v", err)
	}
	if err := svc.Reserve(context.Background(), "stud-1", "instr-1", second, meta); err != nil {
		t.Fatalf("reserve second: %v", err)
	}

	n, err := svc.ConfirmPayment(context.Background(), "stud-1", "pkg-10h", "pi_123")
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 slots confirmed, got %d", n)
	}

	slots, _ := svc.GetDaySlots(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	for _, s := range slots {
		if s.Status != models.SlotStatusScheduled || !s.Paid || s.PaymentID != "pi_123" {
			t.Fatalf("slot not confirmed: %+v", s)
		}
		if s.ConfirmedAt == nil {
			t.Fatal("expected confirmedAt to be stamped")
		}
	}

	// Replayed webhook: nothing pending remains, so nothing changes.
	n, err = svc.ConfirmPayment(context.Background(), "stud-1", "pkg-10h", "pi_123")
	if err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected idempotent repeat confirm, got %d updates", n)
	}
}

func TestFailPaymentRevertsHeldSlots(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable})
	svc := newTestService(repo, nil)

	if err := svc.Reserve(context.Background(), "stud-1", "instr-1", testKey(),
		models.BookingMeta{SelectedProduct: "pkg-10h", DropoffLocation: "Oak Ave"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	n, err := svc.FailPayment(context.Background(), "stud-1", "pkg-10h")
	if err != nil {
		t.Fatalf("fail payment: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 slot reverted, got %d", n)
	}

	slots, _ := svc.GetDaySlots(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	s := slots[0]
	if s.Status != models.SlotStatusAvailable || s.StudentID != "" || s.DropoffLocation != "" {
		t.Fatalf("metadata not cleared on revert: %+v", s)
	}
}

func TestReleaseRequiresScheduledStatus(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable})
	svc := newTestService(repo, nil)

	if err := svc.Reserve(context.Background(), "stud-1", "instr-1", testKey(),
		models.BookingMeta{SelectedProduct: "pkg"}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	// Still pending, not scheduled.
	err := svc.Release(context.Background(), "instr-1", testKey(), "stud-1")
	if !errors.Is(err, ErrHoldNotFound) {
		t.Fatalf("expected ErrHoldNotFound for pending slot, got %v", err)
	}

	if _, err := svc.ConfirmPayment(context.Background(), "stud-1", "pkg", "pi_1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := svc.Release(context.Background(), "instr-1", testKey(), "stud-1"); err != nil {
		t.Fatalf("release: %v", err)
	}

	slots, _ := svc.GetDaySlots(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if slots[0].Status != models.SlotStatusAvailable {
		t.Fatalf("expected available after release, got %q", slots[0].Status)
	}
}

func TestBlockSlotOnlyWhenAvailable(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable})
	svc := newTestService(repo, nil)

	if err := svc.BlockSlot(context.Background(), "instr-1", testKey()); err != nil {
		t.Fatalf("block: %v", err)
	}
	err := svc.BlockSlot(context.Background(), "instr-1", testKey())
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable on repeat block, got %v", err)
	}
}

func TestReserveSchedulerFailureDoesNotFailReservation(t *testing.T) {
	repo := newFakeInstructorRepo()
	repo.addDay("instr-1", models.ScheduleKindLesson, "2026-09-14",
		models.Slot{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable})
	sched := &recordingScheduler{err: errors.New("queue down")}
	svc := newTestService(repo, sched)

	if err := svc.Reserve(context.Background(), "stud-1", "instr-1", testKey(), models.BookingMeta{}); err != nil {
		t.Fatalf("reserve should survive scheduler failure: %v", err)
	}
	slots, _ := svc.GetDaySlots(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if slots[0].Status != models.SlotStatusPending {
		t.Fatalf("expected pending, got %q", slots[0].Status)
	}
}
