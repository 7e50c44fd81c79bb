package models

import "time"

// TimeSlot represents a therapist's pre-defined bookable window.
// A slot is referenced by at most one active booking at any instant; the
// Available flag is flipped only by the timeslot repository during
// reservation and release.
type TimeSlot struct {
	ID          string `bson:"id" json:"id"`
	TherapistID string `bson:"therapistId" json:"therapistId"`
	Date        string `bson:"date" json:"date"`   // "YYYY-MM-DD"
	Start       int    `bson:"start" json:"start"` // minutes from midnight (e.g., 600 for 10:00 AM)
	End         int    `bson:"end" json:"end"`     // minutes from midnight
	Available   bool   `bson:"available" json:"available"`
}

// StartTime resolves the slot's date and start minute into a concrete time.
func (ts TimeSlot) StartTime() (time.Time, error) {
	day, err := time.Parse("2006-01-02", ts.Date)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(ts.Start) * time.Minute), nil
}

// DurationMinutes returns the slot length in minutes.
func (ts TimeSlot) DurationMinutes() int {
	return ts.End - ts.Start
}

// SetupTimeslotsRequest defines the payload for setting up timeslots.
type SetupTimeslotsRequest struct {
	TimeSlots []TimeSlot `json:"timeSlots" binding:"required"`
}
