// File: database/repository/booking/transaction.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mindsprout/models"
)

// withTransaction runs fn inside a mongo session transaction, aborting on any
// error so partial writes never commit.
func (r *mongoBookingRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

func (r *mongoBookingRepo) CreateBatch(ctx context.Context, payment *models.Payment, bookings []models.Booking, slotIDs []string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		// Reserve each slot with a compare-and-swap on the availability flag.
		// A slot taken between selection and commit fails the whole batch.
		for _, slotID := range slotIDs {
			res, err := r.timeslots.UpdateOne(sc,
				bson.M{"id": slotID, "available": true},
				bson.M{"$set": bson.M{"available": false}},
			)
			if err != nil {
				return fmt.Errorf("failed to reserve timeslot %s: %w", slotID, err)
			}
			if res.ModifiedCount == 0 {
				return ErrSlotConflict
			}
		}

		if _, err := r.payments.InsertOne(sc, payment); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		docs := make([]interface{}, len(bookings))
		for i := range bookings {
			docs[i] = bookings[i]
		}
		if _, err := r.bookings.InsertMany(sc, docs); err != nil {
			return fmt.Errorf("failed to insert bookings: %w", err)
		}
		return nil
	})
}

func (r *mongoBookingRepo) MarkPaymentPaid(ctx context.Context, paymentID string, paidAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := r.payments.UpdateOne(sc,
			bson.M{"id": paymentID, "status": models.PaymentPending},
			bson.M{"$set": bson.M{"status": models.PaymentPaid, "paidAt": paidAt}},
		)
		if err != nil {
			return fmt.Errorf("failed to mark payment paid: %w", err)
		}
		if res.MatchedCount == 0 {
			return r.resolvePaymentConflict(sc, paymentID)
		}

		if _, err := r.bookings.UpdateMany(sc,
			bson.M{"paymentId": paymentID, "status": models.BookingPendingPayment},
			bson.M{"$set": bson.M{"status": models.BookingPendingConfirmation}},
		); err != nil {
			return fmt.Errorf("failed to advance bookings to pending confirmation: %w", err)
		}
		return nil
	})
}

func (r *mongoBookingRepo) ConfirmBooking(ctx context.Context, bookingID string, confirmedAt time.Time, therapistNote string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"status": models.BookingConfirmed, "confirmedAt": confirmedAt}
	if therapistNote != "" {
		set["therapistNote"] = therapistNote
	}
	res, err := r.bookings.UpdateOne(ctx,
		bson.M{"id": bookingID, "status": models.BookingPendingConfirmation},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.resolveBookingConflict(ctx, bookingID)
	}
	return nil
}

func (r *mongoBookingRepo) CloseBooking(ctx context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus,
	reason string, closedAt time.Time, refund RefundUpdate) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		var booking models.Booking
		err := r.bookings.FindOne(sc, bson.M{"id": bookingID}).Decode(&booking)
		if err != nil {
			return err
		}

		set := bson.M{"status": to, "cancelledAt": closedAt}
		if to == models.BookingRejected {
			set["rejectReason"] = reason
		} else {
			set["cancelReason"] = reason
		}
		res, err := r.bookings.UpdateOne(sc,
			bson.M{"id": bookingID, "status": bson.M{"$in": from}},
			bson.M{"$set": set},
		)
		if err != nil {
			return fmt.Errorf("failed to close booking: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrStatusConflict
		}

		paymentSet := bson.M{"status": refund.PaymentStatus}
		if refund.Amount > 0 {
			paymentSet["refundedAt"] = closedAt
		}
		if _, err := r.payments.UpdateOne(sc,
			bson.M{"id": booking.PaymentID},
			bson.M{"$set": paymentSet, "$inc": bson.M{"refundAmount": refund.Amount}},
		); err != nil {
			return fmt.Errorf("failed to record refund on payment: %w", err)
		}

		// A past slot is not resold, so release only applies to future slots.
		if refund.ReleaseSlot {
			if _, err := r.timeslots.UpdateOne(sc,
				bson.M{"id": booking.TimeSlotID},
				bson.M{"$set": bson.M{"available": true}},
			); err != nil {
				return fmt.Errorf("failed to release timeslot %s: %w", booking.TimeSlotID, err)
			}
		}
		return nil
	})
}

func (r *mongoBookingRepo) CompleteBooking(ctx context.Context, bookingID string, completedAt time.Time, therapistNote string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"status": models.BookingCompleted, "completedAt": completedAt}
	if therapistNote != "" {
		set["therapistNote"] = therapistNote
	}
	res, err := r.bookings.UpdateOne(ctx,
		bson.M{"id": bookingID, "status": models.BookingConfirmed},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to complete booking: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.resolveBookingConflict(ctx, bookingID)
	}
	return nil
}

func (r *mongoBookingRepo) MarkPendingSettlement(ctx context.Context, bookingID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.bookings.UpdateOne(ctx,
		bson.M{"id": bookingID, "status": models.BookingCompleted},
		bson.M{"$set": bson.M{"status": models.BookingPendingSettlement}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark booking pending settlement: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.resolveBookingConflict(ctx, bookingID)
	}
	return nil
}

func (r *mongoBookingRepo) SettlePayment(ctx context.Context, paymentID string, amount, platformFee int64, note string, settledAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := r.payments.UpdateOne(sc,
			bson.M{"id": paymentID, "settlementAmount": bson.M{"$exists": false}},
			bson.M{"$set": bson.M{
				"settlementAmount": amount,
				"platformFee":      platformFee,
				"settlementNote":   note,
				"settledAt":        settledAt,
			}},
		)
		if err != nil {
			return fmt.Errorf("failed to write settlement: %w", err)
		}
		if res.MatchedCount == 0 {
			count, err := r.payments.CountDocuments(sc, bson.M{"id": paymentID})
			if err != nil {
				return fmt.Errorf("failed to resolve settlement conflict: %w", err)
			}
			if count == 0 {
				return mongo.ErrNoDocuments
			}
			return ErrAlreadySettled
		}

		if _, err := r.bookings.UpdateMany(sc,
			bson.M{"paymentId": paymentID, "status": models.BookingPendingSettlement},
			bson.M{"$set": bson.M{"status": models.BookingSettlementCompleted}},
		); err != nil {
			return fmt.Errorf("failed to advance bookings to settlement completed: %w", err)
		}
		return nil
	})
}

// resolveBookingConflict distinguishes a missing booking from one whose status
// guard failed.
func (r *mongoBookingRepo) resolveBookingConflict(ctx context.Context, bookingID string) error {
	count, err := r.bookings.CountDocuments(ctx, bson.M{"id": bookingID})
	if err != nil {
		return fmt.Errorf("failed to resolve booking conflict: %w", err)
	}
	if count == 0 {
		return mongo.ErrNoDocuments
	}
	return ErrStatusConflict
}

func (r *mongoBookingRepo) resolvePaymentConflict(ctx context.Context, paymentID string) error {
	count, err := r.payments.CountDocuments(ctx, bson.M{"id": paymentID})
	if err != nil {
		return fmt.Errorf("failed to resolve payment conflict: %w", err)
	}
	if count == 0 {
		return mongo.ErrNoDocuments
	}
	return ErrStatusConflict
}
