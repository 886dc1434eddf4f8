package model

import "time"

const (
	RoomTypeSingle = "single"
	RoomTypeDouble = "double"
)

// Room is a bookable inventory unit. Rooms are provisioned out of band
// (see cmd/seed) and never mutated by the reservation ledger.
type Room struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Type        string    `json:"type" bson:"type" validate:"required,oneof=single double"`
	Price       float64   `json:"price" bson:"price" validate:"gte=0"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=10"`
	Description string    `json:"description" bson:"description" validate:"omitempty,max=2000"`
	Amenities   []string  `json:"amenities" bson:"amenities" validate:"omitempty,max=30,dive,required"`
	Image       string    `json:"image" bson:"image" validate:"omitempty,url"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func ValidRoomType(t string) bool {
	return t == RoomTypeSingle || t == RoomTypeDouble
}
