// File: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes for bookings and payments.
func (r *mongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bookingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "paymentId", Value: 1}, {Key: "sessionNumber", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "timeSlotId", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "scheduledAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "therapistId", Value: 1}, {Key: "scheduledAt", Value: 1}},
		},
	}
	if _, err := r.bookings.Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		return err
	}

	paymentIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "parentId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
	_, err := r.payments.Indexes().CreateMany(ctx, paymentIndexes)
	return err
}
