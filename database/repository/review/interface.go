// File: database/repository/review/interface.go
package reviewRepo

import (
	"context"
	"errors"

	"mindsprout/config"
	"mindsprout/database"
	"mindsprout/models"
	"mindsprout/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ErrDuplicateReview signals a second review for the same booking.
var ErrDuplicateReview = errors.New("a review already exists for this booking")

// ReviewRepository stores parent reviews, at most one per booking.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.Review, error)
}

type mongoReviewRepo struct {
	coll *mongo.Collection
}

// NewMongoReviewRepo constructs a new MongoDB ReviewRepository.
func NewMongoReviewRepo() ReviewRepository {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	repo := &mongoReviewRepo{coll: db.Collection("reviews")}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("failed to ensure review indexes", zap.Error(err))
	}
	return repo
}
