package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"mindsprout/models"
	"mindsprout/utils"
)

// SettleBooking is the operator's finalization of the therapist payout.
// Settlement is payment-scoped: every session of the purchase must have
// reached PENDING_SETTLEMENT or a terminal state before payout, and the
// settlement fields are written exactly once. A retried settle request fails
// with AlreadySettled and changes nothing.
func (s *DefaultBookingService) SettleBooking(ctx context.Context, actor Actor, bookingID, note string) (*models.SettleBookingResponse, error) {
	if actor.Role != RoleOperator {
		return nil, NewUnauthorizedError("only an operator may settle bookings")
	}

	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	payment, err := s.loadPayment(ctx, booking.PaymentID)
	if err != nil {
		return nil, err
	}
	// The settled check comes first: a retry finds the booking already in
	// SETTLEMENT_COMPLETED and must still report the duplicate, not a status
	// mismatch.
	if payment.Settled() {
		return nil, NewAlreadySettledError("payment " + payment.ID + " has already been settled")
	}
	if booking.Status != models.BookingPendingSettlement {
		return nil, NewInvalidStateTransitionError(
			fmt.Sprintf("booking %s is %s, not awaiting settlement", bookingID, booking.Status))
	}

	siblings, err := s.Repo.GetBookingsByPaymentID(ctx, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment sessions: %w", err)
	}
	for _, sibling := range siblings {
		if sibling.Status != models.BookingPendingSettlement && !sibling.Status.Terminal() {
			return nil, NewInvalidStateTransitionError(
				fmt.Sprintf("session %d of payment %s is still %s", sibling.SessionNumber, payment.ID, sibling.Status))
		}
	}

	therapist, err := s.Repo.GetTherapistByID(ctx, payment.TherapistID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("therapist not found: " + payment.TherapistID)
		}
		return nil, fmt.Errorf("failed to load therapist %s: %w", payment.TherapistID, err)
	}

	// Payout is computed on what was actually collected: the final fee minus
	// any refunds already issued for cancelled sessions.
	collected := payment.FinalFee - payment.RefundAmount
	share, err := CalculateSettlementShare(collected, payment.SessionType, SettlementTerms{
		ConsultationPayout:     therapist.ConsultationPayout,
		TherapyPlatformFeeRate: s.TherapyPlatformFeeRate,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Repo.SettlePayment(ctx, payment.ID, share.SettlementAmount, share.PlatformFee, note, time.Now()); err != nil {
		return nil, s.mapRepoError(err, "payment", payment.ID)
	}

	utils.GetLogger().Info("payment settled",
		zap.String("paymentId", payment.ID),
		zap.Int64("settlementAmount", share.SettlementAmount),
		zap.Int64("platformFee", share.PlatformFee))

	s.notify(ctx, payment.TherapistID, "Settlement completed",
		fmt.Sprintf("Your payout of %d for payment %s has been recorded.", share.SettlementAmount, payment.ID))

	return &models.SettleBookingResponse{
		BookingID:        bookingID,
		SettlementAmount: share.SettlementAmount,
		PlatformFee:      share.PlatformFee,
	}, nil
}
