package booking

import (
	"context"

	"mindsprout/models"
)

// Actor roles recognized by the booking core.
const (
	RoleParent    = "parent"
	RoleTherapist = "therapist"
	RoleOperator  = "operator"
)

// Actor identifies who invokes an operation. Authentication happens outside
// this service; the core only enforces ownership.
type Actor struct {
	ID   string
	Role string
}

// PayoutEnqueuer hands a completed booking to the payout queue.
type PayoutEnqueuer interface {
	EnqueuePayout(ctx context.Context, bookingID string) error
}

// BookingService is the booking lifecycle and settlement engine.
type BookingService interface {
	ListAvailableSlots(ctx context.Context, therapistID, fromDate, toDate string) ([]models.TimeSlot, error)
	CreateBooking(ctx context.Context, actor Actor, req models.CreateBookingRequest) (*models.CreateBookingResponse, error)
	ReconcileDeposit(ctx context.Context, actor Actor, paymentID string, req models.ReconcileDepositRequest) (*models.Payment, error)
	ConfirmBooking(ctx context.Context, actor Actor, bookingID, therapistNote string) (*models.Booking, error)
	RejectBooking(ctx context.Context, actor Actor, bookingID, reason string) (*models.CancelBookingResponse, error)
	CancelBooking(ctx context.Context, actor Actor, bookingID, reason string) (*models.CancelBookingResponse, error)
	CompleteBooking(ctx context.Context, actor Actor, bookingID, therapistNote string) (*models.Booking, error)
	EnqueueForSettlement(ctx context.Context, bookingID string) error
	SettleBooking(ctx context.Context, actor Actor, bookingID, note string) (*models.SettleBookingResponse, error)
	CreateReview(ctx context.Context, actor Actor, bookingID string, req models.ReviewRequest) (*models.Review, error)
	UpdateReview(ctx context.Context, actor Actor, bookingID string, req models.ReviewRequest) (*models.Review, error)
	GetBooking(ctx context.Context, actor Actor, bookingID string) (*models.Booking, error)
	GetPayment(ctx context.Context, actor Actor, paymentID string) (*models.Payment, error)
}
