package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	bookingRepo "mindsprout/database/repository/booking"
	"mindsprout/models"
	"mindsprout/utils"
)

// allowedTransitions is the closed transition table. Any event presented to a
// booking outside its "from" state fails with InvalidStateTransition and
// leaves all state untouched.
var allowedTransitions = map[models.BookingStatus][]models.BookingStatus{
	models.BookingPendingPayment:      {models.BookingPendingConfirmation},
	models.BookingPendingConfirmation: {models.BookingConfirmed, models.BookingRejected, models.BookingCancelled},
	models.BookingConfirmed:           {models.BookingCompleted, models.BookingCancelled},
	models.BookingCompleted:           {models.BookingPendingSettlement},
	models.BookingPendingSettlement:   {models.BookingSettlementCompleted},
}

// CanTransition reports whether the table permits from -> to.
func CanTransition(from, to models.BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ConfirmBooking is the therapist's acceptance of a paid booking. Contact
// details are disclosed to both parties only after this transition.
func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, actor Actor, bookingID, therapistNote string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleTherapist || actor.ID != booking.TherapistID {
		return nil, NewUnauthorizedError("only the booked therapist may confirm")
	}
	if !CanTransition(booking.Status, models.BookingConfirmed) {
		return nil, NewInvalidStateTransitionError(
			fmt.Sprintf("booking %s cannot be confirmed from %s", bookingID, booking.Status))
	}

	payment, err := s.loadPayment(ctx, booking.PaymentID)
	if err != nil {
		return nil, err
	}
	// The deposit must have been reconciled. A sibling's cancellation may have
	// since moved the payment to a refunded status; that never blocks the
	// remaining sessions.
	if payment.PaidAt == nil {
		return nil, NewInvalidStateTransitionError("payment has not been reconciled yet")
	}

	if err := s.Repo.ConfirmBooking(ctx, bookingID, time.Now(), therapistNote); err != nil {
		return nil, s.mapRepoError(err, "booking", bookingID)
	}

	s.notify(ctx, booking.ParentID, "Booking confirmed",
		fmt.Sprintf("Session %d on %s has been confirmed.", booking.SessionNumber, booking.ScheduledAt.Format("2006-01-02 15:04")))

	return s.loadBooking(ctx, bookingID)
}

// RejectBooking is the therapist declining an unconfirmed booking. The slot
// is released and the parent is refunded the full per-session share, since
// the service was never rendered.
func (s *DefaultBookingService) RejectBooking(ctx context.Context, actor Actor, bookingID, reason string) (*models.CancelBookingResponse, error) {
	if reason == "" {
		return nil, NewValidationError("a rejection reason is required")
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleTherapist || actor.ID != booking.TherapistID {
		return nil, NewUnauthorizedError("only the booked therapist may reject")
	}
	if !CanTransition(booking.Status, models.BookingRejected) {
		return nil, NewInvalidStateTransitionError(
			fmt.Sprintf("booking %s cannot be rejected from %s", bookingID, booking.Status))
	}

	payment, err := s.loadPayment(ctx, booking.PaymentID)
	if err != nil {
		return nil, err
	}
	share := SessionShares(payment.FinalFee, payment.TotalSessions)[booking.SessionNumber-1]

	refund := bookingRepo.RefundUpdate{
		Amount:        share,
		PaymentStatus: paymentStatusAfterRefund(payment, share),
		ReleaseSlot:   booking.ScheduledAt.After(time.Now().UTC()),
	}
	if err := s.Repo.CloseBooking(ctx, bookingID,
		[]models.BookingStatus{models.BookingPendingConfirmation},
		models.BookingRejected, reason, time.Now(), refund); err != nil {
		return nil, s.mapRepoError(err, "booking", bookingID)
	}

	s.bumpSlotCache(ctx, booking.TherapistID)
	s.notify(ctx, booking.ParentID, "Booking rejected",
		fmt.Sprintf("Session %d was declined: %s. A full refund of the session fee was issued.", booking.SessionNumber, reason))

	return &models.CancelBookingResponse{
		BookingID:       bookingID,
		RefundAmount:    share,
		TierDescription: TierFullRefund,
	}, nil
}

// CancelBooking is the parent's cancellation before completion. The refund is
// tiered on the hours remaining before the session, computed against the
// booking's per-session share of the payment.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, actor Actor, bookingID, reason string) (*models.CancelBookingResponse, error) {
	if reason == "" {
		return nil, NewValidationError("a cancellation reason is required")
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleOperator && (actor.Role != RoleParent || actor.ID != booking.ParentID) {
		return nil, NewUnauthorizedError("only the booking parent may cancel")
	}
	if !CanTransition(booking.Status, models.BookingCancelled) {
		return nil, NewInvalidStateTransitionError(
			fmt.Sprintf("booking %s cannot be cancelled from %s", bookingID, booking.Status))
	}

	payment, err := s.loadPayment(ctx, booking.PaymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	share := SessionShares(payment.FinalFee, payment.TotalSessions)[booking.SessionNumber-1]
	quote := s.Refunds.Calculate(booking.ScheduledAt, now, share)

	refund := bookingRepo.RefundUpdate{
		Amount:        quote.Amount,
		PaymentStatus: paymentStatusAfterRefund(payment, quote.Amount),
		ReleaseSlot:   booking.ScheduledAt.After(now),
	}
	if err := s.Repo.CloseBooking(ctx, bookingID,
		[]models.BookingStatus{models.BookingPendingConfirmation, models.BookingConfirmed},
		models.BookingCancelled, reason, now, refund); err != nil {
		return nil, s.mapRepoError(err, "booking", bookingID)
	}

	s.bumpSlotCache(ctx, booking.TherapistID)
	s.notify(ctx, booking.TherapistID, "Booking cancelled",
		fmt.Sprintf("Session %d on %s was cancelled by the parent.", booking.SessionNumber, booking.ScheduledAt.Format("2006-01-02 15:04")))

	return &models.CancelBookingResponse{
		BookingID:       bookingID,
		RefundAmount:    quote.Amount,
		TierDescription: quote.TierDescription,
	}, nil
}

// CompleteBooking is the therapist marking a session as held. Only sessions
// whose scheduled time has passed can be completed; completion hands the
// booking to the payout queue.
func (s *DefaultBookingService) CompleteBooking(ctx context.Context, actor Actor, bookingID, therapistNote string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleTherapist || actor.ID != booking.TherapistID {
		return nil, NewUnauthorizedError("only the booked therapist may mark completion")
	}
	if !CanTransition(booking.Status, models.BookingCompleted) {
		return nil, NewInvalidStateTransitionError(
			fmt.Sprintf("booking %s cannot be completed from %s", bookingID, booking.Status))
	}
	now := time.Now().UTC()
	if booking.ScheduledAt.After(now) {
		return nil, NewInvalidStateTransitionError("session has not taken place yet")
	}

	if err := s.Repo.CompleteBooking(ctx, bookingID, now, therapistNote); err != nil {
		return nil, s.mapRepoError(err, "booking", bookingID)
	}

	if s.Payouts != nil {
		if err := s.Payouts.EnqueuePayout(ctx, bookingID); err != nil {
			// Payout delivery is at-least-once; fall back to a direct
			// transition rather than stranding the booking in COMPLETED.
			utils.GetLogger().Warn("failed to enqueue payout task, advancing directly",
				zap.String("bookingId", bookingID), zap.Error(err))
			if err := s.EnqueueForSettlement(ctx, bookingID); err != nil {
				utils.GetLogger().Error("failed to advance booking to pending settlement",
					zap.String("bookingId", bookingID), zap.Error(err))
			}
		}
	}

	return s.loadBooking(ctx, bookingID)
}

// EnqueueForSettlement advances a completed booking into the settlement
// queue. Redelivered payout tasks are tolerated: a booking already past
// COMPLETED is left untouched.
func (s *DefaultBookingService) EnqueueForSettlement(ctx context.Context, bookingID string) error {
	err := s.Repo.MarkPendingSettlement(ctx, bookingID)
	if err == nil {
		return nil
	}
	mapped := s.mapRepoError(err, "booking", bookingID)
	if CodeOf(mapped) == CodeInvalidStateTransition {
		booking, loadErr := s.loadBooking(ctx, bookingID)
		if loadErr == nil &&
			(booking.Status == models.BookingPendingSettlement || booking.Status == models.BookingSettlementCompleted) {
			return nil
		}
	}
	return mapped
}

// paymentStatusAfterRefund decides the payment status once `amount` more is
// refunded: REFUNDED when the whole final fee has been returned,
// PARTIALLY_REFUNDED while some of it has. When nothing has been refunded at
// all (a 0% tier cancellation) the payment keeps its current status.
func paymentStatusAfterRefund(payment *models.Payment, amount int64) models.PaymentStatus {
	total := payment.RefundAmount + amount
	switch {
	case total >= payment.FinalFee:
		return models.PaymentRefunded
	case total > 0:
		return models.PaymentPartiallyRefunded
	default:
		return payment.Status
	}
}
