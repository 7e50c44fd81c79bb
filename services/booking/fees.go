package booking

import (
	"math"

	"mindsprout/models"
)

// Quote is the priced result of a multi-session purchase.
type Quote struct {
	OriginalFee int64
	FinalFee    int64
}

// SettlementTerms carries the therapist's payout agreement plus the
// platform's configured therapy percentage.
type SettlementTerms struct {
	ConsultationPayout     int64
	TherapyPlatformFeeRate float64
}

// SettlementShare splits a collected fee between platform and therapist.
type SettlementShare struct {
	PlatformFee      int64
	SettlementAmount int64
}

// QuoteFee prices sessionCount sessions at baseFeePerSession with the given
// discount rate applied to the total.
func QuoteFee(baseFeePerSession int64, sessionCount int, discountRate float64) (Quote, error) {
	if baseFeePerSession <= 0 {
		return Quote{}, NewValidationError("base fee per session must be positive")
	}
	if sessionCount < 1 {
		return Quote{}, NewValidationError("session count must be at least 1")
	}
	if discountRate < 0 || discountRate >= 1 {
		return Quote{}, NewValidationError("discount rate must be in [0, 1)")
	}

	original := baseFeePerSession * int64(sessionCount)
	final := int64(math.Round(float64(original) * (1 - discountRate)))
	return Quote{OriginalFee: original, FinalFee: final}, nil
}

// CalculateSettlementShare computes the therapist payout and platform cut for
// a collected fee. Consultations settle at the flat amount agreed at
// onboarding; therapy settles at the fee minus the configured platform
// percentage.
func CalculateSettlementShare(collectedFee int64, sessionType models.SessionType, terms SettlementTerms) (SettlementShare, error) {
	if collectedFee < 0 {
		return SettlementShare{}, NewValidationError("collected fee must not be negative")
	}

	switch sessionType {
	case models.SessionTypeConsultation:
		if terms.ConsultationPayout > collectedFee {
			return SettlementShare{}, NewValidationError("consultation payout exceeds the collected fee")
		}
		return SettlementShare{
			PlatformFee:      collectedFee - terms.ConsultationPayout,
			SettlementAmount: terms.ConsultationPayout,
		}, nil
	case models.SessionTypeTherapy:
		if terms.TherapyPlatformFeeRate < 0 || terms.TherapyPlatformFeeRate >= 1 {
			return SettlementShare{}, NewValidationError("therapy platform fee rate must be in [0, 1)")
		}
		platformFee := int64(math.Round(float64(collectedFee) * terms.TherapyPlatformFeeRate))
		return SettlementShare{
			PlatformFee:      platformFee,
			SettlementAmount: collectedFee - platformFee,
		}, nil
	default:
		return SettlementShare{}, NewValidationError("unknown session type: " + string(sessionType))
	}
}

// SessionShares splits finalFee into per-session amounts that sum exactly to
// finalFee. The remainder of the integer division lands on the earliest
// sessions.
func SessionShares(finalFee int64, sessions int) []int64 {
	if sessions < 1 {
		return nil
	}
	base := finalFee / int64(sessions)
	remainder := finalFee % int64(sessions)

	shares := make([]int64, sessions)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}
