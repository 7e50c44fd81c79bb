package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"mindsprout/models"
	"mindsprout/utils"
)

// CreateBooking turns a parent's slot selection into one payment plus N
// bookings. Reservation is all-or-nothing: if any selected slot was taken
// between selection and commit, nothing is created and the caller gets a
// SlotConflict to re-select.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, actor Actor, req models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	logger := utils.GetLogger()

	if actor.Role != RoleParent {
		return nil, NewUnauthorizedError("only a parent may create bookings")
	}
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	slots, err := s.SlotRepo.GetByIDs(ctx, req.SlotIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch selected slots: %w", err)
	}
	if len(slots) != len(req.SlotIDs) {
		return nil, NewNotFoundError("one or more selected slots do not exist")
	}

	now := time.Now().UTC()
	scheduled := make([]time.Time, len(slots))
	for i, slot := range slots {
		if slot.TherapistID != req.TherapistID {
			return nil, NewValidationError("all slots must belong to the selected therapist")
		}
		if !slot.Available {
			return nil, NewSlotConflictError("slot " + slot.ID + " is no longer available")
		}
		startAt, err := slot.StartTime()
		if err != nil {
			return nil, fmt.Errorf("slot %s has an invalid date: %w", slot.ID, err)
		}
		if startAt.Before(now) {
			return nil, NewValidationError("slot " + slot.ID + " is in the past")
		}
		scheduled[i] = startAt
	}

	therapist, err := s.Repo.GetTherapistByID(ctx, req.TherapistID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("therapist not found: " + req.TherapistID)
		}
		return nil, fmt.Errorf("failed to load therapist %s: %w", req.TherapistID, err)
	}

	baseFee := therapist.ConsultationFee
	discountRate := 0.0
	if req.SessionType == models.SessionTypeTherapy {
		baseFee = therapist.TherapySessionFee
		discountRate = therapist.TherapyDiscountRate
	}
	quote, err := QuoteFee(baseFee, len(slots), discountRate)
	if err != nil {
		return nil, err
	}

	// Session numbers follow ascending scheduled time, not selection order.
	order := make([]int, len(slots))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scheduled[order[a]].Before(scheduled[order[b]])
	})

	payment := &models.Payment{
		ID:            uuid.New().String(),
		ParentID:      actor.ID,
		TherapistID:   req.TherapistID,
		SessionType:   req.SessionType,
		TotalSessions: len(slots),
		OriginalFee:   quote.OriginalFee,
		DiscountRate:  discountRate,
		FinalFee:      quote.FinalFee,
		Status:        models.PaymentPending,
		DepositorName: req.DepositorName,
		DepositDate:   req.DepositDate,
		CreatedAt:     now,
	}

	bookings := make([]models.Booking, len(slots))
	bookingIDs := make([]string, len(slots))
	for seq, idx := range order {
		slot := slots[idx]
		booking := models.Booking{
			ID:              uuid.New().String(),
			PaymentID:       payment.ID,
			TimeSlotID:      slot.ID,
			TherapistID:     slot.TherapistID,
			ParentID:        actor.ID,
			ChildID:         req.ChildID,
			SessionNumber:   seq + 1,
			ScheduledAt:     scheduled[idx],
			DurationMinutes: slot.DurationMinutes(),
			Status:          models.BookingPendingPayment,
			VisitAddress:    req.VisitAddress,
			ParentNote:      req.ParentNote,
			CreatedAt:       now,
		}
		bookings[seq] = booking
		bookingIDs[seq] = booking.ID
	}

	if err := s.Repo.CreateBatch(ctx, payment, bookings, req.SlotIDs); err != nil {
		return nil, s.mapRepoError(err, "payment", payment.ID)
	}

	s.bumpSlotCache(ctx, req.TherapistID)
	logger.Info("booking batch created",
		zap.String("paymentId", payment.ID),
		zap.Int("sessions", len(bookings)),
		zap.Int64("finalFee", payment.FinalFee))

	s.notify(ctx, req.TherapistID, "New booking request",
		fmt.Sprintf("%d session(s) were reserved and await deposit reconciliation.", len(bookings)))

	return &models.CreateBookingResponse{
		PaymentID:  payment.ID,
		BookingIDs: bookingIDs,
		FinalFee:   payment.FinalFee,
	}, nil
}

func validateCreateRequest(req models.CreateBookingRequest) error {
	if len(req.SlotIDs) == 0 {
		return NewValidationError("at least one slot must be selected")
	}
	seen := make(map[string]struct{}, len(req.SlotIDs))
	for _, id := range req.SlotIDs {
		if _, dup := seen[id]; dup {
			return NewValidationError("duplicate slot in selection: " + id)
		}
		seen[id] = struct{}{}
	}

	switch req.SessionType {
	case models.SessionTypeConsultation:
		if len(req.SlotIDs) != 1 {
			return NewValidationError("a consultation requires exactly one slot")
		}
	case models.SessionTypeTherapy:
		// Any positive number of slots is allowed.
	default:
		return NewValidationError("unknown session type: " + string(req.SessionType))
	}

	if req.ChildID == "" {
		return NewValidationError("child id is required")
	}
	if req.VisitAddress == "" {
		return NewValidationError("visit address is required")
	}
	if req.DepositorName == "" || req.DepositDate == "" {
		return NewValidationError("depositor name and deposit date are required for reconciliation")
	}
	if _, err := time.Parse("2006-01-02", req.DepositDate); err != nil {
		return NewValidationError("deposit date must be formatted YYYY-MM-DD")
	}
	return nil
}
