package models

import "time"

// BookingStatus is the closed set of booking lifecycle states.
type BookingStatus string

const (
	BookingPendingPayment      BookingStatus = "PENDING_PAYMENT"
	BookingPendingConfirmation BookingStatus = "PENDING_CONFIRMATION"
	BookingConfirmed           BookingStatus = "CONFIRMED"
	BookingCompleted           BookingStatus = "COMPLETED"
	BookingPendingSettlement   BookingStatus = "PENDING_SETTLEMENT"
	BookingSettlementCompleted BookingStatus = "SETTLEMENT_COMPLETED"
	BookingRejected            BookingStatus = "REJECTED"
	BookingCancelled           BookingStatus = "CANCELLED"
)

// Active reports whether the status still holds its time slot. Cancelled and
// rejected bookings have released their slot.
func (s BookingStatus) Active() bool {
	return s != BookingCancelled && s != BookingRejected
}

// Terminal reports whether no further transition is possible from the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingRejected || s == BookingSettlementCompleted
}

// Booking is one reserved session tied to exactly one time slot. Bookings are
// never deleted; terminal records are retained for financial audit.
type Booking struct {
	ID          string `bson:"id" json:"id"`
	PaymentID   string `bson:"paymentId" json:"paymentId"`
	TimeSlotID  string `bson:"timeSlotId" json:"timeSlotId"`
	TherapistID string `bson:"therapistId" json:"therapistId"`
	ParentID    string `bson:"parentId" json:"parentId"`
	ChildID     string `bson:"childId" json:"childId"`

	// SessionNumber is 1-based and contiguous within the payment's session
	// count, assigned by ascending scheduled time.
	SessionNumber   int           `bson:"sessionNumber" json:"sessionNumber"`
	ScheduledAt     time.Time     `bson:"scheduledAt" json:"scheduledAt"`
	DurationMinutes int           `bson:"durationMinutes" json:"durationMinutes"`
	Status          BookingStatus `bson:"status" json:"status"`

	ConfirmedAt  *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CompletedAt  *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt  *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelReason string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	RejectReason string     `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`

	VisitAddress  string `bson:"visitAddress" json:"visitAddress"`
	ParentNote    string `bson:"parentNote,omitempty" json:"parentNote,omitempty"`
	TherapistNote string `bson:"therapistNote,omitempty" json:"therapistNote,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
