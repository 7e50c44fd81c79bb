package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindsprout/models"
)

func seedTherapist(store *memStore) *models.Therapist {
	th := &models.Therapist{
		ID:                  "ther-1",
		Name:                "Dr. Hana",
		ConsultationFee:     150000,
		TherapySessionFee:   80000,
		TherapyDiscountRate: 0,
		ConsultationPayout:  100000,
	}
	store.therapists[th.ID] = th
	return th
}

// seedSlot adds an available slot starting the given duration from now.
func seedSlot(store *memStore, id, therapistID string, startIn time.Duration) models.TimeSlot {
	at := time.Now().UTC().Add(startIn).Truncate(time.Minute)
	slot := models.TimeSlot{
		ID:          id,
		TherapistID: therapistID,
		Date:        at.Format("2006-01-02"),
		Start:       at.Hour()*60 + at.Minute(),
		End:         at.Hour()*60 + at.Minute() + 60,
		Available:   true,
	}
	store.slots[id] = &slot
	return slot
}

func therapyRequest(slotIDs ...string) models.CreateBookingRequest {
	return models.CreateBookingRequest{
		SlotIDs:       slotIDs,
		TherapistID:   "ther-1",
		ChildID:       "child-1",
		SessionType:   models.SessionTypeTherapy,
		VisitAddress:  "12 Maple Street",
		DepositorName: "Kim Jiyoung",
		DepositDate:   "2026-03-01",
	}
}

var parentActor = Actor{ID: "parent-1", Role: RoleParent}

func TestCreateBooking_TherapyPackage(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-late", "ther-1", 96*time.Hour)
	seedSlot(store, "slot-early", "ther-1", 48*time.Hour)
	seedSlot(store, "slot-mid", "ther-1", 72*time.Hour)

	// Selection order deliberately differs from chronological order.
	resp, err := svc.CreateBooking(context.Background(), parentActor,
		therapyRequest("slot-late", "slot-early", "slot-mid"))
	require.NoError(t, err)
	require.Len(t, resp.BookingIDs, 3)
	assert.Equal(t, int64(240000), resp.FinalFee)

	payment := store.payments[resp.PaymentID]
	require.NotNil(t, payment)
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.Equal(t, int64(240000), payment.OriginalFee)
	assert.Equal(t, 3, payment.TotalSessions)
	assert.Equal(t, "Kim Jiyoung", payment.DepositorName)

	// Session numbers follow ascending scheduled time.
	wantSlots := []string{"slot-early", "slot-mid", "slot-late"}
	var prev time.Time
	for i, id := range resp.BookingIDs {
		b := store.bookings[id]
		require.NotNil(t, b)
		assert.Equal(t, models.BookingPendingPayment, b.Status)
		assert.Equal(t, i+1, b.SessionNumber)
		assert.Equal(t, wantSlots[i], b.TimeSlotID)
		assert.Equal(t, 60, b.DurationMinutes)
		assert.True(t, b.ScheduledAt.After(prev))
		prev = b.ScheduledAt
	}

	// Every selected slot is reserved.
	for _, id := range wantSlots {
		assert.False(t, store.slots[id].Available)
	}
}

func TestCreateBooking_ConsultationUsesConsultationFee(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-1", "ther-1", 48*time.Hour)

	req := therapyRequest("slot-1")
	req.SessionType = models.SessionTypeConsultation

	resp, err := svc.CreateBooking(context.Background(), parentActor, req)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), resp.FinalFee)
}

func TestCreateBooking_TherapyDiscount(t *testing.T) {
	svc, store, _ := newTestService()
	th := seedTherapist(store)
	th.TherapyDiscountRate = 0.15
	seedSlot(store, "slot-1", "ther-1", 48*time.Hour)
	seedSlot(store, "slot-2", "ther-1", 72*time.Hour)

	resp, err := svc.CreateBooking(context.Background(), parentActor, therapyRequest("slot-1", "slot-2"))
	require.NoError(t, err)
	assert.Equal(t, int64(136000), resp.FinalFee) // 160000 * 0.85

	payment := store.payments[resp.PaymentID]
	assert.Equal(t, int64(160000), payment.OriginalFee)
	assert.Equal(t, 0.15, payment.DiscountRate)
}

func TestCreateBooking_ValidationFailures(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-1", "ther-1", 48*time.Hour)
	seedSlot(store, "slot-2", "ther-1", 72*time.Hour)

	cases := []struct {
		name     string
		mutate   func(*models.CreateBookingRequest)
		wantCode string
	}{
		{"no slots", func(r *models.CreateBookingRequest) { r.SlotIDs = nil }, CodeValidation},
		{"duplicate slot", func(r *models.CreateBookingRequest) { r.SlotIDs = []string{"slot-1", "slot-1"} }, CodeValidation},
		{"consultation with two slots", func(r *models.CreateBookingRequest) {
			r.SessionType = models.SessionTypeConsultation
			r.SlotIDs = []string{"slot-1", "slot-2"}
		}, CodeValidation},
		{"unknown session type", func(r *models.CreateBookingRequest) { r.SessionType = "WORKSHOP" }, CodeValidation},
		{"missing child", func(r *models.CreateBookingRequest) { r.ChildID = "" }, CodeValidation},
		{"missing visit address", func(r *models.CreateBookingRequest) { r.VisitAddress = "" }, CodeValidation},
		{"missing depositor name", func(r *models.CreateBookingRequest) { r.DepositorName = "" }, CodeValidation},
		{"malformed deposit date", func(r *models.CreateBookingRequest) { r.DepositDate = "03/01/2026" }, CodeValidation},
		{"unknown slot", func(r *models.CreateBookingRequest) { r.SlotIDs = []string{"slot-missing"} }, CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := therapyRequest("slot-1")
			tc.mutate(&req)
			_, err := svc.CreateBooking(context.Background(), parentActor, req)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, CodeOf(err))
		})
	}

	// Nothing was created by any failed attempt.
	assert.Empty(t, store.payments)
	assert.Empty(t, store.bookings)
}

func TestCreateBooking_OnlyParentMayBook(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-1", "ther-1", 48*time.Hour)

	_, err := svc.CreateBooking(context.Background(), Actor{ID: "ther-1", Role: RoleTherapist}, therapyRequest("slot-1"))
	require.Error(t, err)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}

func TestCreateBooking_ReservedSlotConflicts(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-1", "ther-1", 48*time.Hour)
	store.slots["slot-1"].Available = false

	_, err := svc.CreateBooking(context.Background(), parentActor, therapyRequest("slot-1"))
	require.Error(t, err)
	assert.Equal(t, CodeSlotConflict, CodeOf(err))
}

func TestCreateBooking_PastSlotRejected(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-1", "ther-1", -2*time.Hour)

	_, err := svc.CreateBooking(context.Background(), parentActor, therapyRequest("slot-1"))
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestCreateBooking_ForeignSlotRejected(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-other", "ther-2", 48*time.Hour)

	_, err := svc.CreateBooking(context.Background(), parentActor, therapyRequest("slot-other"))
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestCreateBooking_BatchIsAllOrNothing(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-shared", "ther-1", 48*time.Hour)
	seedSlot(store, "slot-free", "ther-1", 72*time.Hour)

	_, err := svc.CreateBooking(context.Background(), parentActor, therapyRequest("slot-shared"))
	require.NoError(t, err)

	// A second batch touching the taken slot fails entirely; its other slot
	// is left untouched.
	_, err = svc.CreateBooking(context.Background(), Actor{ID: "parent-2", Role: RoleParent},
		therapyRequest("slot-free", "slot-shared"))
	require.Error(t, err)
	assert.Equal(t, CodeSlotConflict, CodeOf(err))
	assert.True(t, store.slots["slot-free"].Available)
	assert.Len(t, store.payments, 1)
	assert.Len(t, store.bookings, 1)
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedSlot(store, "slot-contended", "ther-1", 48*time.Hour)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := Actor{ID: fmt.Sprintf("parent-%d", i), Role: RoleParent}
			_, errs[i] = svc.CreateBooking(context.Background(), actor, therapyRequest("slot-contended"))
		}(i)
	}
	wg.Wait()

	var conflicts, successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case CodeOf(err) == CodeSlotConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
	assert.Len(t, store.payments, 1)
	assert.Len(t, store.bookings, 1)
	assert.False(t, store.slots["slot-contended"].Available)
}
