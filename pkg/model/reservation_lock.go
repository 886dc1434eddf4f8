package model

import "time"

// ReservationLock is an advisory lock serializing reservation creation per
// room. The _id encodes the room, so a unique-key violation on insert means
// another writer holds the room. ExpiresAt backs a TTL index that reaps
// locks left behind by crashed holders.
type ReservationLock struct {
	ID        string    `json:"id" bson:"_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
