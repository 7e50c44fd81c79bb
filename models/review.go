package models

import "time"

// Review is a parent's rating of a completed booking. At most one review
// exists per booking; it may be edited but never duplicated.
type Review struct {
	ID        string    `bson:"id" json:"id"`
	BookingID string    `bson:"bookingId" json:"bookingId"`
	ParentID  string    `bson:"parentId" json:"parentId"`
	Rating    int       `bson:"rating" json:"rating"` // 1..5
	Content   string    `bson:"content,omitempty" json:"content,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
