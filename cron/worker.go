package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"mindsprout/config"
	"mindsprout/services/booking"
	"mindsprout/services/tasks"
)

// InitPayoutWorker runs the async payout worker in background. Each task
// advances a completed booking into PENDING_SETTLEMENT; the guarded
// transition makes redelivery harmless.
func InitPayoutWorker(bookingSvc booking.BookingService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPayoutQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePayoutEnqueue, handlePayoutTask(bookingSvc))

	go func() {
		log.Println("[PayoutWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[PayoutWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[PayoutWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handlePayoutTask(bookingSvc booking.BookingService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.PayoutPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[PayoutWorker] invalid payload: %v", err)
			return err
		}

		if err := bookingSvc.EnqueueForSettlement(ctx, p.BookingID); err != nil {
			log.Printf("[PayoutWorker] failed to advance booking %s: %v", p.BookingID, err)
			return err
		}
		return nil
	}
}
