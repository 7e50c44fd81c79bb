// File: database/repository/timeslot/interface.go
package timeslotRepo

import (
	"context"

	"mindsprout/config"
	"mindsprout/database"
	"mindsprout/models"
	"mindsprout/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TimeSlotRepository is the read/setup surface of the availability calendar.
// Reservation and release flip the Available flag and are performed only
// inside the booking repository's transactions.
type TimeSlotRepository interface {
	CreateMany(ctx context.Context, therapistID string, slots []models.TimeSlot) ([]string, error)
	GetByIDs(ctx context.Context, slotIDs []string) ([]models.TimeSlot, error)
	ListAvailable(ctx context.Context, therapistID, fromDate, toDate string) ([]models.TimeSlot, error)
	DeleteByID(ctx context.Context, therapistID, slotID string) error
}

type mongoTimeSlotRepo struct {
	coll     *mongo.Collection
	bookings *mongo.Collection
}

// NewMongoTimeSlotRepo constructs a new MongoDB TimeSlotRepository.
func NewMongoTimeSlotRepo() TimeSlotRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	repo := &mongoTimeSlotRepo{
		coll:     db.Collection("timeslots"),
		bookings: db.Collection("bookings"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to ensure timeslot indexes", zap.Error(err))
	}
	return repo
}
