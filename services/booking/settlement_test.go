package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindsprout/models"
)

func TestSettleBooking_ConsultationFlatPayout(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	_, payment := seedLifecycleBooking(store, "c1", models.BookingPendingSettlement,
		models.SessionTypeConsultation, time.Now().UTC().Add(-24*time.Hour))

	resp, err := svc.SettleBooking(context.Background(), operatorActor, "book-c1", "march payout run")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), resp.SettlementAmount)
	assert.Equal(t, int64(50000), resp.PlatformFee)

	settled := store.payments[payment.ID]
	require.NotNil(t, settled.SettlementAmount)
	assert.Equal(t, int64(100000), *settled.SettlementAmount)
	assert.Equal(t, int64(50000), settled.PlatformFee)
	assert.Equal(t, "march payout run", settled.SettlementNote)
	require.NotNil(t, settled.SettledAt)
	assert.Equal(t, models.BookingSettlementCompleted, store.bookings["book-c1"].Status)
}

func TestSettleBooking_SecondAttemptFails(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	_, payment := seedLifecycleBooking(store, "c1", models.BookingPendingSettlement,
		models.SessionTypeConsultation, time.Now().UTC().Add(-24*time.Hour))

	_, err := svc.SettleBooking(context.Background(), operatorActor, "book-c1", "")
	require.NoError(t, err)

	// A straight retry of the same request reports the duplicate, even though
	// the first settle already advanced the booking out of PENDING_SETTLEMENT.
	_, err = svc.SettleBooking(context.Background(), operatorActor, "book-c1", "")
	require.Error(t, err)
	assert.Equal(t, CodeAlreadySettled, CodeOf(err))
	assert.Equal(t, int64(100000), *store.payments[payment.ID].SettlementAmount)
	assert.Equal(t, int64(50000), store.payments[payment.ID].PlatformFee)
}

func TestSettleBooking_TherapyNetOfRefunds(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)

	// Three-session package at 240000; one session was cancelled with a full
	// 80000 refund, the other two were held.
	now := time.Now().UTC()
	payment := &models.Payment{
		ID:            "pay-t1",
		ParentID:      "parent-1",
		TherapistID:   "ther-1",
		SessionType:   models.SessionTypeTherapy,
		TotalSessions: 3,
		OriginalFee:   240000,
		FinalFee:      240000,
		RefundAmount:  80000,
		Status:        models.PaymentPartiallyRefunded,
		CreatedAt:     now,
	}
	store.payments[payment.ID] = payment
	statuses := []models.BookingStatus{
		models.BookingPendingSettlement,
		models.BookingPendingSettlement,
		models.BookingCancelled,
	}
	for i, status := range statuses {
		id := []string{"book-t1", "book-t2", "book-t3"}[i]
		store.bookings[id] = &models.Booking{
			ID:            id,
			PaymentID:     payment.ID,
			TherapistID:   "ther-1",
			ParentID:      "parent-1",
			SessionNumber: i + 1,
			ScheduledAt:   now.Add(-time.Duration(3-i) * 24 * time.Hour),
			Status:        status,
			CreatedAt:     now,
		}
	}

	resp, err := svc.SettleBooking(context.Background(), operatorActor, "book-t1", "")
	require.NoError(t, err)

	// Collected 160000; 10% platform fee.
	assert.Equal(t, int64(16000), resp.PlatformFee)
	assert.Equal(t, int64(144000), resp.SettlementAmount)
	assert.LessOrEqual(t, resp.SettlementAmount, payment.FinalFee)

	// Every pending sibling advances; terminal ones stay put.
	assert.Equal(t, models.BookingSettlementCompleted, store.bookings["book-t1"].Status)
	assert.Equal(t, models.BookingSettlementCompleted, store.bookings["book-t2"].Status)
	assert.Equal(t, models.BookingCancelled, store.bookings["book-t3"].Status)
}

func TestSettleBooking_SiblingStillOutstanding(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:            "pay-t1",
		ParentID:      "parent-1",
		TherapistID:   "ther-1",
		SessionType:   models.SessionTypeTherapy,
		TotalSessions: 2,
		OriginalFee:   160000,
		FinalFee:      160000,
		Status:        models.PaymentPaid,
		CreatedAt:     now,
	}
	store.payments[payment.ID] = payment
	store.bookings["book-t1"] = &models.Booking{
		ID: "book-t1", PaymentID: payment.ID, TherapistID: "ther-1", ParentID: "parent-1",
		SessionNumber: 1, ScheduledAt: now.Add(-48 * time.Hour),
		Status: models.BookingPendingSettlement, CreatedAt: now,
	}
	store.bookings["book-t2"] = &models.Booking{
		ID: "book-t2", PaymentID: payment.ID, TherapistID: "ther-1", ParentID: "parent-1",
		SessionNumber: 2, ScheduledAt: now.Add(72 * time.Hour),
		Status: models.BookingConfirmed, CreatedAt: now,
	}

	_, err := svc.SettleBooking(context.Background(), operatorActor, "book-t1", "")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, CodeOf(err))
	assert.Nil(t, store.payments[payment.ID].SettlementAmount)
}

func TestSettleBooking_OperatorOnly(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedLifecycleBooking(store, "c1", models.BookingPendingSettlement,
		models.SessionTypeConsultation, time.Now().UTC().Add(-24*time.Hour))

	for _, actor := range []Actor{parentActor, therapistActor} {
		_, err := svc.SettleBooking(context.Background(), actor, "book-c1", "")
		require.Error(t, err)
		assert.Equal(t, CodeUnauthorized, CodeOf(err))
	}
}

func TestSettleBooking_RequiresPendingSettlement(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)
	seedLifecycleBooking(store, "c1", models.BookingConfirmed,
		models.SessionTypeConsultation, time.Now().UTC().Add(-24*time.Hour))

	_, err := svc.SettleBooking(context.Background(), operatorActor, "book-c1", "")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidStateTransition, CodeOf(err))
}

func TestSettleBooking_UnknownBooking(t *testing.T) {
	svc, store, _ := newTestService()
	seedTherapist(store)

	_, err := svc.SettleBooking(context.Background(), operatorActor, "book-missing", "")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}
