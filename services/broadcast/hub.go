package broadcast

import (
	"context"
	"sync"

	"driveschool/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshot is one full slot-list message pushed to subscribers. Clients
// never receive deltas; a missed event is healed by the next snapshot or
// by resubscribing.
type Snapshot struct {
	InstructorID string        `json:"instructorId"`
	Kind         string        `json:"kind"`
	Date         string        `json:"date"`
	Slots        []models.Slot `json:"slots"`
}

// SnapshotFunc re-reads the current slot list for an instructor day.
type SnapshotFunc func(ctx context.Context, instructorID, kind, date string) ([]models.Slot, error)

// Subscriber is one open client connection watching an instructor day.
type Subscriber struct {
	ID           string
	InstructorID string
	Kind         string
	Date         string
	C            chan Snapshot
}

// Hub fans slot-change snapshots out to subscribers, keyed by instructor
// id. It is owned explicitly: created at server start, fed by the store
// change feed, torn down at shutdown. Each server instance owns only its
// local subscribers; cross-instance correctness comes from every instance
// watching the same change feed.
type Hub struct {
	mu       sync.Mutex
	subs     map[string]map[*Subscriber]struct{} // instructor id -> subscribers
	snapshot SnapshotFunc
	logger   *zap.Logger
	closed   bool
}

// NewHub creates a hub reading snapshots through fn.
func NewHub(fn SnapshotFunc, logger *zap.Logger) *Hub {
	return &Hub{
		subs:     make(map[string]map[*Subscriber]struct{}),
		snapshot: fn,
		logger:   logger,
	}
}

// Subscribe registers a client watching one instructor day and sends the
// initial full snapshot before returning, so a client that reconnects
// after missing events is immediately current.
func (h *Hub) Subscribe(ctx context.Context, instructorID, kind, date string) (*Subscriber, error) {
	slots, err := h.snapshot(ctx, instructorID, kind, date)
	if err != nil {
		return nil, err
	}

	sub := &Subscriber{
		ID:           uuid.New().String(),
		InstructorID: instructorID,
		Kind:         kind,
		Date:         date,
		C:            make(chan Snapshot, 8),
	}
	sub.C <- Snapshot{InstructorID: instructorID, Kind: kind, Date: date, Slots: slots}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.C)
		return sub, nil
	}
	set, ok := h.subs[instructorID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[instructorID] = set
	}
	set[sub] = struct{}{}
	return sub, nil
}

// Unsubscribe removes the subscriber and closes its channel. The close
// happens under the hub lock, the same lock delivery holds, so a publish
// in flight can never send on the closed channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscriber) {
	set, ok := h.subs[sub.InstructorID]
	if !ok {
		return
	}
	if _, present := set[sub]; !present {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.InstructorID)
	}
	close(sub.C)
}

// Publish re-reads the slot lists watched for the instructor and enqueues
// a snapshot to every subscriber. Delivery is at-most-once per subscriber
// per event: a subscriber whose buffer is full is dropped rather than
// allowed to block delivery to the others.
func (h *Hub) Publish(ctx context.Context, instructorID string) {
	h.mu.Lock()
	set := h.subs[instructorID]
	watching := make([]*Subscriber, 0, len(set))
	for sub := range set {
		watching = append(watching, sub)
	}
	h.mu.Unlock()

	if len(watching) == 0 {
		return
	}

	// One snapshot read per distinct (kind, date) pair.
	type dayKey struct{ kind, date string }
	snapshots := make(map[dayKey][]models.Slot)
	for _, sub := range watching {
		k := dayKey{sub.Kind, sub.Date}
		if _, done := snapshots[k]; done {
			continue
		}
		slots, err := h.snapshot(ctx, instructorID, sub.Kind, sub.Date)
		if err != nil {
			h.logger.Warn("failed to read slot snapshot",
				zap.String("instructorId", instructorID),
				zap.String("kind", sub.Kind),
				zap.String("date", sub.Date),
				zap.Error(err))
			continue
		}
		snapshots[k] = slots
	}

	// Delivery holds the lock: a subscriber that unsubscribed during the
	// snapshot reads is already gone from the registry and its closed
	// channel is never written. Sends never block, so the lock is brief.
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range watching {
		if _, present := h.subs[instructorID][sub]; !present {
			continue
		}
		slots, ok := snapshots[dayKey{sub.Kind, sub.Date}]
		if !ok {
			continue
		}
		msg := Snapshot{InstructorID: instructorID, Kind: sub.Kind, Date: sub.Date, Slots: slots}
		select {
		case sub.C <- msg:
		default:
			h.logger.Debug("dropping slow subscriber", zap.String("subscriberId", sub.ID))
			h.removeLocked(sub)
		}
	}
}

// Run consumes the store change feed until the context ends or the feed
// closes. It is the sole broadcast trigger.
func (h *Hub) Run(ctx context.Context, changes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case instructorID, ok := <-changes:
			if !ok {
				return
			}
			h.Publish(ctx, instructorID)
		}
	}
}

// Stop closes every subscriber channel and rejects further subscriptions.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			close(sub.C)
		}
	}
	h.subs = make(map[string]map[*Subscriber]struct{})
}

// SubscriberCount reports the number of open subscriptions for an
// instructor.
func (h *Hub) SubscriberCount(instructorID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[instructorID])
}
