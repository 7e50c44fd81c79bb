// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"errors"
	"time"

	"mindsprout/config"
	"mindsprout/database"
	"mindsprout/models"
	"mindsprout/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Sentinel errors surfaced by guarded updates. The service layer maps them to
// its API error taxonomy.
var (
	// ErrSlotConflict signals that at least one requested slot was no longer
	// available at commit time. Nothing is applied.
	ErrSlotConflict = errors.New("one or more timeslots are no longer available")
	// ErrStatusConflict signals a guarded status update whose precondition no
	// longer held. Nothing is applied.
	ErrStatusConflict = errors.New("booking is not in the required status")
	// ErrAlreadySettled signals a second settlement attempt on a payment.
	ErrAlreadySettled = errors.New("payment has already been settled")
)

// RefundUpdate describes the financial side effects applied atomically with a
// cancellation or rejection.
type RefundUpdate struct {
	Amount        int64
	PaymentStatus models.PaymentStatus
	ReleaseSlot   bool
}

// BookingRepository owns the bookings, payments and timeslots collections and
// performs every multi-document mutation inside a single mongo transaction so
// no failure path can leave mixed state.
type BookingRepository interface {
	GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetPaymentByID(ctx context.Context, paymentID string) (*models.Payment, error)
	GetBookingsByPaymentID(ctx context.Context, paymentID string) ([]models.Booking, error)
	GetBookingsByParentID(ctx context.Context, parentID string) ([]models.Booking, error)
	GetBookingsByTherapistID(ctx context.Context, therapistID string) ([]models.Booking, error)
	GetTherapistByID(ctx context.Context, therapistID string) (*models.Therapist, error)

	// CreateBatch reserves every slot (available -> unavailable, re-checked at
	// commit time) and inserts the payment with its bookings. All-or-nothing:
	// a single gone slot fails the whole batch with ErrSlotConflict.
	CreateBatch(ctx context.Context, payment *models.Payment, bookings []models.Booking, slotIDs []string) error

	// MarkPaymentPaid flips the payment PENDING_PAYMENT -> PAID and advances
	// its bookings to PENDING_CONFIRMATION.
	MarkPaymentPaid(ctx context.Context, paymentID string, paidAt time.Time) error

	// ConfirmBooking performs the guarded PENDING_CONFIRMATION -> CONFIRMED
	// transition.
	ConfirmBooking(ctx context.Context, bookingID string, confirmedAt time.Time, therapistNote string) error

	// CloseBooking performs the guarded transition into CANCELLED or REJECTED
	// together with the refund bookkeeping and the slot release.
	CloseBooking(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus,
		reason string, closedAt time.Time, refund RefundUpdate) error

	// CompleteBooking performs the guarded CONFIRMED -> COMPLETED transition.
	CompleteBooking(ctx context.Context, bookingID string, completedAt time.Time, therapistNote string) error

	// MarkPendingSettlement performs the guarded COMPLETED -> PENDING_SETTLEMENT
	// transition.
	MarkPendingSettlement(ctx context.Context, bookingID string) error

	// SettlePayment writes the payment's settlement fields once (guarded on
	// the absence of settlementAmount) and advances every PENDING_SETTLEMENT
	// booking of the payment to SETTLEMENT_COMPLETED.
	SettlePayment(ctx context.Context, paymentID string, amount, platformFee int64, note string, settledAt time.Time) error
}

type mongoBookingRepo struct {
	client     *mongo.Client
	bookings   *mongo.Collection
	payments   *mongo.Collection
	timeslots  *mongo.Collection
	therapists *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	repo := &mongoBookingRepo{
		client:     database.MongoClient,
		bookings:   db.Collection("bookings"),
		payments:   db.Collection("payments"),
		timeslots:  db.Collection("timeslots"),
		therapists: db.Collection("therapists"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to ensure booking indexes", zap.Error(err))
	}
	return repo
}
