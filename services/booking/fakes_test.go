package booking

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingRepo "mindsprout/database/repository/booking"
	reviewRepo "mindsprout/database/repository/review"
	"mindsprout/models"
)

// memStore backs the in-memory repository fakes. A single mutex gives the
// same all-or-nothing semantics the mongo transactions provide.
type memStore struct {
	mu         sync.Mutex
	slots      map[string]*models.TimeSlot
	bookings   map[string]*models.Booking
	payments   map[string]*models.Payment
	therapists map[string]*models.Therapist
	reviews    map[string]*models.Review // keyed by bookingID
}

func newMemStore() *memStore {
	return &memStore{
		slots:      make(map[string]*models.TimeSlot),
		bookings:   make(map[string]*models.Booking),
		payments:   make(map[string]*models.Payment),
		therapists: make(map[string]*models.Therapist),
		reviews:    make(map[string]*models.Review),
	}
}

type fakeBookingRepo struct{ store *memStore }

func (f *fakeBookingRepo) GetBookingByID(_ context.Context, id string) (*models.Booking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	b, ok := f.store.bookings[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copy := *b
	return &copy, nil
}

func (f *fakeBookingRepo) GetPaymentByID(_ context.Context, id string) (*models.Payment, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	p, ok := f.store.payments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copy := *p
	return &copy, nil
}

func (f *fakeBookingRepo) GetBookingsByPaymentID(_ context.Context, paymentID string) ([]models.Booking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.Booking
	for _, b := range f.store.bookings {
		if b.PaymentID == paymentID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) GetBookingsByParentID(_ context.Context, parentID string) ([]models.Booking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.Booking
	for _, b := range f.store.bookings {
		if b.ParentID == parentID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) GetBookingsByTherapistID(_ context.Context, therapistID string) ([]models.Booking, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.Booking
	for _, b := range f.store.bookings {
		if b.TherapistID == therapistID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) GetTherapistByID(_ context.Context, id string) (*models.Therapist, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	t, ok := f.store.therapists[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copy := *t
	return &copy, nil
}

func (f *fakeBookingRepo) CreateBatch(_ context.Context, payment *models.Payment, bookings []models.Booking, slotIDs []string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	// Re-check availability at commit time; nothing is applied on conflict.
	for _, id := range slotIDs {
		slot, ok := f.store.slots[id]
		if !ok || !slot.Available {
			return bookingRepo.ErrSlotConflict
		}
	}
	for _, id := range slotIDs {
		f.store.slots[id].Available = false
	}
	p := *payment
	f.store.payments[p.ID] = &p
	for i := range bookings {
		b := bookings[i]
		f.store.bookings[b.ID] = &b
	}
	return nil
}

func (f *fakeBookingRepo) MarkPaymentPaid(_ context.Context, paymentID string, paidAt time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	p, ok := f.store.payments[paymentID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if p.Status != models.PaymentPending {
		return bookingRepo.ErrStatusConflict
	}
	p.Status = models.PaymentPaid
	p.PaidAt = &paidAt
	for _, b := range f.store.bookings {
		if b.PaymentID == paymentID && b.Status == models.BookingPendingPayment {
			b.Status = models.BookingPendingConfirmation
		}
	}
	return nil
}

func (f *fakeBookingRepo) ConfirmBooking(_ context.Context, bookingID string, confirmedAt time.Time, therapistNote string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	b, ok := f.store.bookings[bookingID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if b.Status != models.BookingPendingConfirmation {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = models.BookingConfirmed
	b.ConfirmedAt = &confirmedAt
	if therapistNote != "" {
		b.TherapistNote = therapistNote
	}
	return nil
}

func (f *fakeBookingRepo) CloseBooking(_ context.Context, bookingID string, from []models.BookingStatus, to models.BookingStatus,
	reason string, closedAt time.Time, refund bookingRepo.RefundUpdate) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	b, ok := f.store.bookings[bookingID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	allowed := false
	for _, s := range from {
		if b.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = to
	b.CancelledAt = &closedAt
	if to == models.BookingRejected {
		b.RejectReason = reason
	} else {
		b.CancelReason = reason
	}

	p := f.store.payments[b.PaymentID]
	p.Status = refund.PaymentStatus
	p.RefundAmount += refund.Amount
	if refund.Amount > 0 {
		p.RefundedAt = &closedAt
	}

	if refund.ReleaseSlot {
		if slot, ok := f.store.slots[b.TimeSlotID]; ok {
			slot.Available = true
		}
	}
	return nil
}

func (f *fakeBookingRepo) CompleteBooking(_ context.Context, bookingID string, completedAt time.Time, therapistNote string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	b, ok := f.store.bookings[bookingID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if b.Status != models.BookingConfirmed {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = models.BookingCompleted
	b.CompletedAt = &completedAt
	if therapistNote != "" {
		b.TherapistNote = therapistNote
	}
	return nil
}

func (f *fakeBookingRepo) MarkPendingSettlement(_ context.Context, bookingID string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	b, ok := f.store.bookings[bookingID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if b.Status != models.BookingCompleted {
		return bookingRepo.ErrStatusConflict
	}
	b.Status = models.BookingPendingSettlement
	return nil
}

func (f *fakeBookingRepo) SettlePayment(_ context.Context, paymentID string, amount, platformFee int64, note string, settledAt time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	p, ok := f.store.payments[paymentID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if p.SettlementAmount != nil {
		return bookingRepo.ErrAlreadySettled
	}
	p.SettlementAmount = &amount
	p.PlatformFee = platformFee
	p.SettlementNote = note
	p.SettledAt = &settledAt
	for _, b := range f.store.bookings {
		if b.PaymentID == paymentID && b.Status == models.BookingPendingSettlement {
			b.Status = models.BookingSettlementCompleted
		}
	}
	return nil
}

type fakeSlotRepo struct{ store *memStore }

func (f *fakeSlotRepo) CreateMany(_ context.Context, therapistID string, slots []models.TimeSlot) ([]string, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	ids := make([]string, len(slots))
	for i, s := range slots {
		s.TherapistID = therapistID
		s.Available = true
		slot := s
		f.store.slots[s.ID] = &slot
		ids[i] = s.ID
	}
	return ids, nil
}

func (f *fakeSlotRepo) GetByIDs(_ context.Context, slotIDs []string) ([]models.TimeSlot, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var out []models.TimeSlot
	for _, id := range slotIDs {
		if s, ok := f.store.slots[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) ListAvailable(_ context.Context, therapistID, fromDate, toDate string) ([]models.TimeSlot, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	out := []models.TimeSlot{}
	for _, s := range f.store.slots {
		if s.TherapistID == therapistID && s.Available && s.Date >= fromDate && s.Date <= toDate {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) DeleteByID(_ context.Context, therapistID, slotID string) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if s, ok := f.store.slots[slotID]; ok && s.TherapistID == therapistID {
		delete(f.store.slots, slotID)
		return nil
	}
	return mongo.ErrNoDocuments
}

type fakeReviewRepo struct{ store *memStore }

func (f *fakeReviewRepo) Create(_ context.Context, review *models.Review) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, exists := f.store.reviews[review.BookingID]; exists {
		return reviewRepo.ErrDuplicateReview
	}
	r := *review
	f.store.reviews[review.BookingID] = &r
	return nil
}

func (f *fakeReviewRepo) Update(_ context.Context, review *models.Review) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	existing, ok := f.store.reviews[review.BookingID]
	if !ok || existing.ParentID != review.ParentID {
		return mongo.ErrNoDocuments
	}
	existing.Rating = review.Rating
	existing.Content = review.Content
	existing.UpdatedAt = review.UpdatedAt
	return nil
}

func (f *fakeReviewRepo) GetByBookingID(_ context.Context, bookingID string) (*models.Review, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	r, ok := f.store.reviews[bookingID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	copy := *r
	return &copy, nil
}

// recordingEnqueuer captures payout enqueues without a real queue.
type recordingEnqueuer struct {
	mu  sync.Mutex
	ids []string
}

func (e *recordingEnqueuer) EnqueuePayout(_ context.Context, bookingID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, bookingID)
	return nil
}

// newTestService wires a DefaultBookingService onto a fresh in-memory store.
func newTestService() (*DefaultBookingService, *memStore, *recordingEnqueuer) {
	store := newMemStore()
	enq := &recordingEnqueuer{}
	svc := &DefaultBookingService{
		Repo:                   &fakeBookingRepo{store: store},
		SlotRepo:               &fakeSlotRepo{store: store},
		ReviewRepo:             &fakeReviewRepo{store: store},
		Payouts:                enq,
		Refunds:                DefaultRefundPolicy(),
		TherapyPlatformFeeRate: 0.10,
	}
	return svc, store, enq
}
