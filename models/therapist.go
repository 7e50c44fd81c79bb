package models

// Therapist carries the subset of the therapist profile the booking core
// reads: per-session fees and the settlement terms agreed at onboarding.
// Profile management itself lives outside this service.
type Therapist struct {
	ID                  string  `bson:"id" json:"id"`
	Name                string  `bson:"name" json:"name"`
	ConsultationFee     int64   `bson:"consultationFee" json:"consultationFee"`
	TherapySessionFee   int64   `bson:"therapySessionFee" json:"therapySessionFee"`
	TherapyDiscountRate float64 `bson:"therapyDiscountRate" json:"therapyDiscountRate"`
	// ConsultationPayout is the flat amount owed to the therapist per settled
	// consultation. It must not exceed ConsultationFee.
	ConsultationPayout int64 `bson:"consultationPayout" json:"consultationPayout"`
}
