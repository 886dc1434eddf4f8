package model

import "time"

// Reservation is one booked stay: a room held by one user for the
// half-open day range [CheckIn, CheckOut). CheckOut is the checkout day
// and is not occupied, so back-to-back stays share a boundary day
// without conflict. A reservation exists while active and is deleted on
// cancellation; there is no update, a change is cancel + create.
type Reservation struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID     string    `json:"user_id" bson:"user_id" validate:"required,uuid_rfc4122"`
	RoomID     string    `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	CheckIn    time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut   time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Nights     int       `json:"nights" bson:"nights" validate:"omitempty,min=1"`
	TotalPrice float64   `json:"total_price" bson:"total_price" validate:"omitempty,gte=0"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Overlaps reports whether two half-open day ranges intersect:
// [aStart, aEnd) and [bStart, bEnd) overlap iff aStart < bEnd && bStart < aEnd.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Midnight normalizes a timestamp to midnight UTC of its calendar day.
// All stay-range comparisons happen on normalized days so a stray
// time-of-day can never produce a spurious partial-day overlap.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
