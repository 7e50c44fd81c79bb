package models

import "time"

// SessionType distinguishes a single-visit consultation from a multi-session
// therapy package.
type SessionType string

const (
	SessionTypeConsultation SessionType = "CONSULTATION"
	SessionTypeTherapy      SessionType = "THERAPY"
)

// PaymentStatus is the closed set of payment states.
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING_PAYMENT"
	PaymentPaid              PaymentStatus = "PAID"
	PaymentRefunded          PaymentStatus = "REFUNDED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// Payment is one purchase transaction covering 1..N bookings. The platform
// uses manual bank-transfer reconciliation: the parent declares a depositor
// name and date at checkout and an operator matches the incoming transfer.
// All monetary amounts are whole currency units.
type Payment struct {
	ID            string        `bson:"id" json:"id"`
	ParentID      string        `bson:"parentId" json:"parentId"`
	TherapistID   string        `bson:"therapistId" json:"therapistId"`
	SessionType   SessionType   `bson:"sessionType" json:"sessionType"`
	TotalSessions int           `bson:"totalSessions" json:"totalSessions"`
	OriginalFee   int64         `bson:"originalFee" json:"originalFee"`
	DiscountRate  float64       `bson:"discountRate" json:"discountRate"`
	FinalFee      int64         `bson:"finalFee" json:"finalFee"`
	PlatformFee   int64         `bson:"platformFee,omitempty" json:"platformFee,omitempty"`
	Status        PaymentStatus `bson:"status" json:"status"`

	DepositorName string `bson:"depositorName" json:"depositorName"`
	DepositDate   string `bson:"depositDate" json:"depositDate"` // "YYYY-MM-DD"

	PaidAt       *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	RefundedAt   *time.Time `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`
	RefundAmount int64      `bson:"refundAmount" json:"refundAmount"`

	// Settlement fields are written exactly once; a nil SettlementAmount
	// marks the payment as not yet settled.
	SettlementAmount *int64     `bson:"settlementAmount,omitempty" json:"settlementAmount,omitempty"`
	SettledAt        *time.Time `bson:"settledAt,omitempty" json:"settledAt,omitempty"`
	SettlementNote   string     `bson:"settlementNote,omitempty" json:"settlementNote,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Settled reports whether settlement has already been recorded.
func (p Payment) Settled() bool {
	return p.SettlementAmount != nil
}
