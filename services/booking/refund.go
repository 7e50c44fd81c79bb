package booking

import (
	"math"
	"time"
)

// Refund tier descriptions surfaced to callers.
const (
	TierFullRefund = "100% refund"
	TierHalfRefund = "50% refund"
	TierNoRefund   = "0%, no refund"
)

// RefundQuote is the computed refund for a cancellation.
type RefundQuote struct {
	Amount          int64
	TierDescription string
}

// RefundPolicy computes tiered refunds from the time remaining before the
// scheduled session. Both window bounds are inclusive on the "at least" side:
// exactly FullRefundHours before the session still refunds 100%.
type RefundPolicy struct {
	FullRefundHours int
	HalfRefundHours int
}

// DefaultRefundPolicy returns the platform's standard 24h/12h windows.
func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{FullRefundHours: 24, HalfRefundHours: 12}
}

// Calculate returns the refund for cancelling at `now` a session scheduled at
// `scheduledAt`, against the given refundable base amount.
func (p RefundPolicy) Calculate(scheduledAt, now time.Time, refundableBase int64) RefundQuote {
	hoursUntil := scheduledAt.Sub(now).Hours()

	switch {
	case hoursUntil >= float64(p.FullRefundHours):
		return RefundQuote{Amount: refundableBase, TierDescription: TierFullRefund}
	case hoursUntil >= float64(p.HalfRefundHours):
		return RefundQuote{
			Amount:          int64(math.Round(float64(refundableBase) * 0.5)),
			TierDescription: TierHalfRefund,
		}
	default:
		return RefundQuote{Amount: 0, TierDescription: TierNoRefund}
	}
}
