package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"driveschool/config"
	instructorRepo "driveschool/database/repository/instructor"
	"driveschool/models"
	"driveschool/services/booking"

	"github.com/hibiken/asynq"
)

const TypeHoldExpire = "hold:expire"

// HoldExpirePayload identifies the pending hold to revert.
type HoldExpirePayload struct {
	InstructorID string         `json:"instructorId"`
	StudentID    string         `json:"studentId"`
	Key          models.SlotKey `json:"key"`
}

// HoldScheduler enqueues hold-expiry tasks via asynq. Implements
// booking.HoldScheduler.
type HoldScheduler struct {
	client *asynq.Client
}

// NewHoldScheduler creates the asynq client for hold-expiry scheduling.
func NewHoldScheduler() *HoldScheduler {
	return &HoldScheduler{
		client: asynq.NewClient(redisOpts()),
	}
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisHoldQueueDB,
	}
}

// ScheduleExpiry enqueues a task that fires after the hold TTL.
func (s *HoldScheduler) ScheduleExpiry(ctx context.Context, instructorID string, key models.SlotKey, studentID string, ttl time.Duration) error {
	payload, err := json.Marshal(HoldExpirePayload{
		InstructorID: instructorID,
		StudentID:    studentID,
		Key:          key,
	})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeHoldExpire, payload)
	_, err = s.client.EnqueueContext(ctx, task, asynq.ProcessIn(ttl), asynq.MaxRetry(3))
	return err
}

// Close releases the asynq client.
func (s *HoldScheduler) Close() error {
	return s.client.Close()
}

// InitHoldExpiryWorker runs the async worker in background. The handler
// reverts holds that are still pending when their TTL fires; holds that
// confirmed or were cancelled meanwhile fail the revert guard and count
// as done.
func InitHoldExpiryWorker(bookingSvc booking.BookingService, repo instructorRepo.InstructorRepository) *asynq.Server {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeHoldExpire, HandleHoldExpireTask(bookingSvc))

	// Holds whose expiry task was lost (worker down, enqueue failed) are
	// caught up on start.
	go sweepStaleHolds(bookingSvc, repo)

	go func() {
		log.Println("[HoldExpiryWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[HoldExpiryWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[HoldExpiryWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()

	return srv
}

// HandleHoldExpireTask reverts a still-pending hold to available.
func HandleHoldExpireTask(bookingSvc booking.BookingService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p HoldExpirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[HoldExpire] invalid payload: %v", err)
			return err
		}

		err := bookingSvc.CancelPending(ctx, p.InstructorID, p.Key, p.StudentID)
		switch {
		case err == nil:
			log.Printf("[HoldExpire] reverted expired hold for student %s with instructor %s on %s %s-%s",
				p.StudentID, p.InstructorID, p.Key.Date, p.Key.Start, p.Key.End)
			return nil
		case booking.IsNotFound(err) || booking.IsConflict(err):
			// The hold confirmed, was cancelled, or never existed: nothing
			// left to revert.
			return nil
		default:
			log.Printf("[HoldExpire] failed to revert hold: %v", err)
			return err
		}
	}
}

// sweepStaleHolds reverts pending holds older than the TTL once at
// startup.
func sweepStaleHolds(bookingSvc booking.BookingService, repo instructorRepo.InstructorRepository) {
	ttl := time.Duration(config.AppConfig.HoldTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	holds, err := repo.FindStalePending(ctx, time.Now().Add(-ttl))
	if err != nil {
		log.Printf("[HoldSweep] failed to list stale holds: %v", err)
		return
	}
	for _, h := range holds {
		err := bookingSvc.CancelPending(ctx, h.InstructorID, h.Key, h.StudentID)
		if err != nil && !booking.IsNotFound(err) && !booking.IsConflict(err) {
			log.Printf("[HoldSweep] failed to revert stale hold: %v", err)
		}
	}
	if len(holds) > 0 {
		log.Printf("[HoldSweep] processed %d stale holds", len(holds))
	}
}
