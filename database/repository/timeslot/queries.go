// File: database/repository/timeslot/queries.go
package timeslotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mindsprout/models"
)

// ListAvailable returns the therapist's open slots in the date range, skipping
// past dates regardless of the requested lower bound.
func (r *mongoTimeSlotRepo) ListAvailable(ctx context.Context, therapistID, fromDate, toDate string) ([]models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	today := time.Now().UTC().Format("2006-01-02")
	if fromDate < today {
		fromDate = today
	}

	filter := bson.M{
		"therapistId": therapistID,
		"available":   true,
		"date":        bson.M{"$gte": fromDate, "$lte": toDate},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list available timeslots for therapist %s: %w", therapistID, err)
	}
	defer cursor.Close(ctx)

	slots := []models.TimeSlot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode available timeslots: %w", err)
	}
	return slots, nil
}
