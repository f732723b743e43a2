package model

import "time"

const (
	GuestNew         = "New"
	GuestRegular     = "Regular"
	GuestVIP         = "VIP"
	GuestBlacklisted = "Blacklisted"
)

// Guest is a denormalized contact profile, unique per (email, property).
// Bookings store guest fields inline; this aggregate exists for the front
// desk and keeps per-property stay/spend rollups.
type Guest struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email       string    `json:"email" bson:"email" validate:"required,email"`
	Phone       string    `json:"phone" bson:"phone" validate:"required,min=7,max=20"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=200"`
	LastBooking time.Time `json:"last_booking,omitempty" bson:"last_booking,omitempty"`
	TotalStay   int       `json:"total_stay" bson:"total_stay" validate:"min=0"`
	TotalSpent  float64   `json:"total_spent" bson:"total_spent" validate:"min=0"`
	Status      string    `json:"status" bson:"status" validate:"omitempty,oneof=New Regular VIP Blacklisted"`
	Property    Property  `json:"property" bson:"property" validate:"required"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}
