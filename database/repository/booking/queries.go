// File: database/repository/booking/queries.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindsprout/models"
)

func (r *mongoBookingRepo) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := r.bookings.FindOne(ctx, bson.M{"id": bookingID}).Decode(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *mongoBookingRepo) GetPaymentByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var payment models.Payment
	if err := r.payments.FindOne(ctx, bson.M{"id": paymentID}).Decode(&payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *mongoBookingRepo) GetBookingsByPaymentID(ctx context.Context, paymentID string) ([]models.Booking, error) {
	return r.findBookings(ctx, bson.M{"paymentId": paymentID})
}

func (r *mongoBookingRepo) GetBookingsByParentID(ctx context.Context, parentID string) ([]models.Booking, error) {
	return r.findBookings(ctx, bson.M{"parentId": parentID})
}

func (r *mongoBookingRepo) GetBookingsByTherapistID(ctx context.Context, therapistID string) ([]models.Booking, error) {
	return r.findBookings(ctx, bson.M{"therapistId": therapistID})
}

func (r *mongoBookingRepo) GetTherapistByID(ctx context.Context, therapistID string) (*models.Therapist, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var therapist models.Therapist
	if err := r.therapists.FindOne(ctx, bson.M{"id": therapistID}).Decode(&therapist); err != nil {
		return nil, err
	}
	return &therapist, nil
}

func (r *mongoBookingRepo) findBookings(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})
	cursor, err := r.bookings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}
