package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"mindsprout/config"
)

const TypePayoutEnqueue = "payout:enqueue"

// PayoutPayload identifies the completed booking handed to the payout queue.
type PayoutPayload struct {
	BookingID string `json:"bookingId"`
}

// NewPayoutTask builds the asynq task for a completed booking.
func NewPayoutTask(bookingID string) (*asynq.Task, error) {
	b, err := json.Marshal(PayoutPayload{BookingID: bookingID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePayoutEnqueue, b), nil
}

// AsynqPayoutEnqueuer pushes payout tasks onto the redis-backed queue.
type AsynqPayoutEnqueuer struct {
	client *asynq.Client
}

// NewAsynqPayoutEnqueuer creates the queue client from the app config.
func NewAsynqPayoutEnqueuer() *AsynqPayoutEnqueuer {
	return &AsynqPayoutEnqueuer{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisPayoutQueueDB,
		}),
	}
}

func (e *AsynqPayoutEnqueuer) EnqueuePayout(ctx context.Context, bookingID string) error {
	task, err := NewPayoutTask(bookingID)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.MaxRetry(5))
	return err
}
