package model

import "time"

// SlotLock is an advisory lock document guarding read-modify-write sequences
// that Mongo alone does not serialize: booking creation for a room slot,
// payment application for a booking, and stock decrements for a food item.
// Locks auto-expire via a TTL index so a crashed holder cannot wedge a slot.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
