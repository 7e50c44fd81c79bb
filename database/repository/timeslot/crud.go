// File: database/repository/timeslot/crud.go
package timeslotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mindsprout/models"
)

// ErrSlotReferenced signals a delete attempt on a slot that a historical
// booking still references.
var ErrSlotReferenced = errors.New("timeslot is referenced by a booking and cannot be deleted")

func (r *mongoTimeSlotRepo) CreateMany(ctx context.Context, therapistID string, slots []models.TimeSlot) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	docs := make([]interface{}, len(slots))
	ids := make([]string, len(slots))
	for i, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.New().String()
		}
		slot.TherapistID = therapistID
		slot.Available = true
		docs[i] = slot
		ids[i] = slot.ID
	}

	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to insert timeslots: %w", err)
	}
	return ids, nil
}

func (r *mongoTimeSlotRepo) GetByIDs(ctx context.Context, slotIDs []string) ([]models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"id": bson.M{"$in": slotIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timeslots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []models.TimeSlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode timeslots: %w", err)
	}
	return slots, nil
}

func (r *mongoTimeSlotRepo) DeleteByID(ctx context.Context, therapistID, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Slots referenced by any booking are retained for financial audit.
	count, err := r.bookings.CountDocuments(ctx, bson.M{"timeSlotId": slotID})
	if err != nil {
		return fmt.Errorf("failed to check booking references: %w", err)
	}
	if count > 0 {
		return ErrSlotReferenced
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": slotID, "therapistId": therapistID})
	if err != nil {
		return fmt.Errorf("failed to delete timeslot: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
