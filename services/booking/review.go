package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	reviewRepo "mindsprout/database/repository/review"
	"mindsprout/models"
)

// CreateReview records the parent's rating of a held session. Reviews open up
// once the booking reaches the settlement pipeline and are unique per
// booking.
func (s *DefaultBookingService) CreateReview(ctx context.Context, actor Actor, bookingID string, req models.ReviewRequest) (*models.Review, error) {
	booking, err := s.reviewableBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if err := validateReview(req); err != nil {
		return nil, err
	}

	now := time.Now()
	review := &models.Review{
		ID:        uuid.New().String(),
		BookingID: booking.ID,
		ParentID:  actor.ID,
		Rating:    req.Rating,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ReviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, reviewRepo.ErrDuplicateReview) {
			return nil, NewValidationError("a review already exists for this booking")
		}
		return nil, err
	}
	return review, nil
}

// UpdateReview edits the parent's existing review.
func (s *DefaultBookingService) UpdateReview(ctx context.Context, actor Actor, bookingID string, req models.ReviewRequest) (*models.Review, error) {
	if _, err := s.reviewableBooking(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	if err := validateReview(req); err != nil {
		return nil, err
	}

	existing, err := s.ReviewRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("no review exists for booking " + bookingID)
		}
		return nil, err
	}

	existing.Rating = req.Rating
	existing.Content = req.Content
	existing.UpdatedAt = time.Now()
	if err := s.ReviewRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("no review exists for booking " + bookingID)
		}
		return nil, err
	}
	return existing, nil
}

func (s *DefaultBookingService) reviewableBooking(ctx context.Context, actor Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleParent || actor.ID != booking.ParentID {
		return nil, NewUnauthorizedError("only the booking parent may review")
	}
	if booking.Status != models.BookingPendingSettlement && booking.Status != models.BookingSettlementCompleted {
		return nil, NewInvalidStateTransitionError("only held sessions can be reviewed")
	}
	return booking, nil
}

func validateReview(req models.ReviewRequest) error {
	if req.Rating < 1 || req.Rating > 5 {
		return NewValidationError("rating must be between 1 and 5")
	}
	return nil
}
