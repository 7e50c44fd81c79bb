package models

// CreateBookingRequest is the parent's checkout payload: the selected slots
// plus the declared bank-transfer details for later manual reconciliation.
type CreateBookingRequest struct {
	SlotIDs       []string    `json:"slotIds" binding:"required"`
	TherapistID   string      `json:"therapistId" binding:"required"`
	ChildID       string      `json:"childId" binding:"required"`
	SessionType   SessionType `json:"sessionType" binding:"required"`
	VisitAddress  string      `json:"visitAddress" binding:"required"`
	ParentNote    string      `json:"parentNote"`
	DepositorName string      `json:"depositorName" binding:"required"`
	DepositDate   string      `json:"depositDate" binding:"required"` // "YYYY-MM-DD"
}

// CreateBookingResponse returns the opened payment and its booking IDs.
type CreateBookingResponse struct {
	PaymentID  string   `json:"paymentId"`
	BookingIDs []string `json:"bookingIds"`
	FinalFee   int64    `json:"finalFee"`
}

// CancelBookingResponse reports the refund computed for a cancellation.
type CancelBookingResponse struct {
	BookingID       string `json:"bookingId"`
	RefundAmount    int64  `json:"refundAmount"`
	TierDescription string `json:"tierDescription"`
}

// SettleBookingResponse reports the recorded settlement.
type SettleBookingResponse struct {
	BookingID        string `json:"bookingId"`
	SettlementAmount int64  `json:"settlementAmount"`
	PlatformFee      int64  `json:"platformFee"`
}

// ReconcileDepositRequest is the operator's record of the observed transfer.
type ReconcileDepositRequest struct {
	DepositorName string `json:"depositorName" binding:"required"`
	DepositDate   string `json:"depositDate" binding:"required"`
}

// ReviewRequest is the parent's rating payload.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Content string `json:"content"`
}
