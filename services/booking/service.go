package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	bookingRepo "mindsprout/database/repository/booking"
	reviewRepo "mindsprout/database/repository/review"
	timeslotRepo "mindsprout/database/repository/timeslot"
	"mindsprout/models"
	"mindsprout/services/notification"
	"mindsprout/utils"
)

const slotCacheTTL = 30 * time.Second

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo       bookingRepo.BookingRepository
	SlotRepo   timeslotRepo.TimeSlotRepository
	ReviewRepo reviewRepo.ReviewRepository
	Notifier   notification.NotificationService
	Payouts    PayoutEnqueuer

	Refunds                RefundPolicy
	TherapyPlatformFeeRate float64

	CacheClient *redis.Client
}

// ListAvailableSlots returns the therapist's open future slots in the range,
// served from the redis cache when a fresh listing exists.
func (s *DefaultBookingService) ListAvailableSlots(ctx context.Context, therapistID, fromDate, toDate string) ([]models.TimeSlot, error) {
	if therapistID == "" {
		return nil, NewValidationError("therapist id is required")
	}

	key := s.slotCacheKey(ctx, therapistID, fromDate, toDate)
	if key != "" {
		if cached, err := s.CacheClient.Get(ctx, key).Result(); err == nil {
			var slots []models.TimeSlot
			if err := json.Unmarshal([]byte(cached), &slots); err == nil {
				return slots, nil
			}
		}
	}

	slots, err := s.SlotRepo.ListAvailable(ctx, therapistID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list available slots: %w", err)
	}

	if key != "" {
		if data, err := json.Marshal(slots); err == nil {
			if err := s.CacheClient.Set(ctx, key, data, slotCacheTTL).Err(); err != nil {
				utils.GetLogger().Warn("failed to cache slot listing", zap.Error(err))
			}
		}
	}
	return slots, nil
}

// GetBooking returns a booking visible to its parent, its therapist or an
// operator.
func (s *DefaultBookingService) GetBooking(ctx context.Context, actor Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !canViewBooking(actor, booking) {
		return nil, NewUnauthorizedError("you do not have access to this booking")
	}
	return booking, nil
}

// GetPayment returns a payment visible to its parent, its therapist or an
// operator.
func (s *DefaultBookingService) GetPayment(ctx context.Context, actor Actor, paymentID string) (*models.Payment, error) {
	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleOperator && actor.ID != payment.ParentID && actor.ID != payment.TherapistID {
		return nil, NewUnauthorizedError("you do not have access to this payment")
	}
	return payment, nil
}

// ReconcileDeposit records an observed bank transfer against a pending
// payment. On a match the payment becomes PAID and its bookings advance to
// PENDING_CONFIRMATION.
func (s *DefaultBookingService) ReconcileDeposit(ctx context.Context, actor Actor, paymentID string, req models.ReconcileDepositRequest) (*models.Payment, error) {
	if actor.Role != RoleOperator {
		return nil, NewUnauthorizedError("only an operator may reconcile deposits")
	}

	payment, err := s.loadPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentPending {
		return nil, NewInvalidStateTransitionError(
			fmt.Sprintf("payment %s is %s, not awaiting a deposit", paymentID, payment.Status))
	}
	if req.DepositorName != payment.DepositorName || req.DepositDate != payment.DepositDate {
		return nil, NewValidationError("observed transfer does not match the declared depositor name and date")
	}

	if err := s.Repo.MarkPaymentPaid(ctx, paymentID, time.Now()); err != nil {
		return nil, s.mapRepoError(err, "payment", paymentID)
	}

	s.notify(ctx, payment.TherapistID, "New booking awaiting confirmation",
		fmt.Sprintf("Payment %s has been reconciled; please confirm the sessions.", paymentID))

	return s.loadPayment(ctx, paymentID)
}

// --- helpers ---

func (s *DefaultBookingService) loadBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("booking not found: " + bookingID)
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", bookingID, err)
	}
	return booking, nil
}

func (s *DefaultBookingService) loadPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.Repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("payment not found: " + paymentID)
		}
		return nil, fmt.Errorf("failed to load payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// mapRepoError translates repository sentinels into the typed taxonomy.
func (s *DefaultBookingService) mapRepoError(err error, kind, id string) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return NewNotFoundError(kind + " not found: " + id)
	case errors.Is(err, bookingRepo.ErrSlotConflict):
		return NewSlotConflictError("one or more selected slots are no longer available")
	case errors.Is(err, bookingRepo.ErrStatusConflict):
		return NewInvalidStateTransitionError(kind + " " + id + " is not in the required status")
	case errors.Is(err, bookingRepo.ErrAlreadySettled):
		return NewAlreadySettledError(kind + " " + id + " has already been settled")
	default:
		return err
	}
}

func canViewBooking(actor Actor, booking *models.Booking) bool {
	return actor.Role == RoleOperator || actor.ID == booking.ParentID || actor.ID == booking.TherapistID
}

func (s *DefaultBookingService) notify(ctx context.Context, recipientID, title, body string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, recipientID, title, body); err != nil {
		utils.GetLogger().Warn("notification delivery failed",
			zap.String("recipient", recipientID), zap.Error(err))
	}
}

// slotCacheKey builds a versioned cache key so reservations and releases
// invalidate listings by bumping the therapist's version counter.
func (s *DefaultBookingService) slotCacheKey(ctx context.Context, therapistID, fromDate, toDate string) string {
	if s.CacheClient == nil {
		return ""
	}
	ver, err := s.CacheClient.Get(ctx, "slotsver:"+therapistID).Result()
	if err != nil {
		ver = "0"
	}
	return fmt.Sprintf("slots:%s:%s:%s:%s", therapistID, ver, fromDate, toDate)
}

func (s *DefaultBookingService) bumpSlotCache(ctx context.Context, therapistID string) {
	if s.CacheClient == nil {
		return
	}
	if err := s.CacheClient.Incr(ctx, "slotsver:"+therapistID).Err(); err != nil {
		utils.GetLogger().Warn("failed to bump slot cache version",
			zap.String("therapist", therapistID), zap.Error(err))
	}
}
