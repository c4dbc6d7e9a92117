package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"driveschool/models"

	"go.uber.org/zap"
)

// countingSnapshot serves a fixed slot list and counts reads.
type countingSnapshot struct {
	mu    sync.Mutex
	reads int
	slots []models.Slot
	err   error
}

func (c *countingSnapshot) fn(ctx context.Context, instructorID, kind, date string) ([]models.Slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.err != nil {
		return nil, c.err
	}
	return c.slots, nil
}

func (c *countingSnapshot) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func recvSnapshot(t *testing.T, sub *Subscriber) Snapshot {
	t.Helper()
	select {
	case msg, ok := <-sub.C:
		if !ok {
			t.Fatal("subscriber channel closed unexpectedly")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	src := &countingSnapshot{slots: []models.Slot{
		{Start: "10:00", End: "11:00", Status: models.SlotStatusAvailable},
	}}
	hub := NewHub(src.fn, zap.NewNop())
	defer hub.Stop()

	sub, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer hub.Unsubscribe(sub)

	msg := recvSnapshot(t, sub)
	if msg.InstructorID != "instr-1" || msg.Date != "2026-09-14" {
		t.Fatalf("wrong snapshot routing: %+v", msg)
	}
	if len(msg.Slots) != 1 || msg.Slots[0].Start != "10:00" {
		t.Fatalf("wrong snapshot payload: %+v", msg.Slots)
	}
}

func TestSubscribeFailsWhenSnapshotFails(t *testing.T) {
	src := &countingSnapshot{err: errors.New("store down")}
	hub := NewHub(src.fn, zap.NewNop())
	defer hub.Stop()

	if _, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14"); err == nil {
		t.Fatal("expected subscribe to fail when the snapshot read fails")
	}
	if hub.SubscriberCount("instr-1") != 0 {
		t.Fatal("failed subscribe must not register a subscriber")
	}
}

func TestPublishFansOutToAllWatchers(t *testing.T) {
	src := &countingSnapshot{slots: []models.Slot{
		{Start: "10:00", End: "11:00", Status: models.SlotStatusPending, StudentID: "stud-1"},
	}}
	hub := NewHub(src.fn, zap.NewNop())
	defer hub.Stop()

	var subs []*Subscriber
	for i := 0; i < 3; i++ {
		sub, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
		if err != nil {
			t.Fatalf("subscribe %d: %v", i, err)
		}
		recvSnapshot(t, sub) // drain the initial snapshot
		subs = append(subs, sub)
	}

	readsBefore := src.readCount()
	hub.Publish(context.Background(), "instr-1")

	for i, sub := range subs {
		msg := recvSnapshot(t, sub)
		if msg.Slots[0].StudentID != "stud-1" {
			t.Fatalf("subscriber %d got stale payload: %+v", i, msg.Slots)
		}
	}
	// All three watch the same day, so one snapshot read serves them all.
	if got := src.readCount() - readsBefore; got != 1 {
		t.Fatalf("expected 1 snapshot read for the publish, got %d", got)
	}
}

func TestPublishIgnoresOtherInstructors(t *testing.T) {
	src := &countingSnapshot{}
	hub := NewHub(src.fn, zap.NewNop())
	defer hub.Stop()

	sub, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	recvSnapshot(t, sub)

	hub.Publish(context.Background(), "instr-2")
	select {
	case msg := <-sub.C:
		t.Fatalf("unexpected snapshot for unrelated instructor: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDropsSlowSubscriber(t *testing.T) {
	src := &countingSnapshot{}
	hub := NewHub(src.fn, zap.NewNop())
	defer hub.Stop()

	sub, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// Never drain: the initial snapshot plus publishes fill the buffer.
	for i := 0; i < cap(sub.C)+2; i++ {
		hub.Publish(context.Background(), "instr-1")
	}

	if hub.SubscriberCount("instr-1") != 0 {
		t.Fatal("expected slow subscriber to be dropped")
	}
	// Dropped subscribers get a closed channel after the buffered
	// messages drain.
	for {
		if _, ok := <-sub.C; !ok {
			break
		}
	}
}

func TestUnsubscribeDuringPublishDoesNotPanic(t *testing.T) {
	// The initial Subscribe read passes straight through; the publish read
	// parks until released, holding Publish open mid-flight.
	var calls int32
	entered := make(chan struct{})
	release := make(chan struct{})
	snap := func(ctx context.Context, instructorID, kind, date string) ([]models.Slot, error) {
		if atomic.AddInt32(&calls, 1) > 1 {
			close(entered)
			<-release
		}
		return nil, nil
	}
	hub := NewHub(snap, zap.NewNop())
	defer hub.Stop()

	sub, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	recvSnapshot(t, sub)

	done := make(chan struct{})
	go func() {
		hub.Publish(context.Background(), "instr-1")
		close(done)
	}()

	// Disconnect while Publish is between capturing the subscriber and
	// delivering to it. The closed channel must never be written.
	<-entered
	hub.Unsubscribe(sub)
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish did not return")
	}
	if _, ok := <-sub.C; ok {
		t.Fatal("expected unsubscribed channel to be closed and drained")
	}
	if hub.SubscriberCount("instr-1") != 0 {
		t.Fatal("expected no registered subscribers")
	}
}

func TestRunPublishesOnChangeFeedEvents(t *testing.T) {
	src := &countingSnapshot{}
	hub := NewHub(src.fn, zap.NewNop())
	defer hub.Stop()

	sub, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	recvSnapshot(t, sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx, changes)
		close(done)
	}()

	changes <- "instr-1"
	recvSnapshot(t, sub)

	close(changes)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the feed closed")
	}
}

func TestStopClosesSubscribersAndRejectsNewOnes(t *testing.T) {
	src := &countingSnapshot{}
	hub := NewHub(src.fn, zap.NewNop())

	sub, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	recvSnapshot(t, sub)

	hub.Stop()
	if _, ok := <-sub.C; ok {
		t.Fatal("expected subscriber channel to close on Stop")
	}

	late, err := hub.Subscribe(context.Background(), "instr-1", models.ScheduleKindLesson, "2026-09-14")
	if err != nil {
		t.Fatalf("subscribe after stop: %v", err)
	}
	// The initial snapshot is still buffered, then the channel closes.
	recvSnapshot(t, late)
	if _, ok := <-late.C; ok {
		t.Fatal("expected late subscriber channel to be closed")
	}
	if hub.SubscriberCount("instr-1") != 0 {
		t.Fatal("stopped hub must not register subscribers")
	}
}
