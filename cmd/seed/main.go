package main

import (
	"context"
	"time"

	"stayhub/internal/rooms/repository"
	"stayhub/pkg/config"
	"stayhub/pkg/model"
)

const JobName = "room-seed"

// seedRooms is the starter catalog inserted into an empty database.
var seedRooms = []*model.Room{
	{
		Name:        "Garden View Single",
		Type:        model.RoomTypeSingle,
		Price:       120,
		Capacity:    1,
		Description: "Cozy single room overlooking the garden courtyard.",
		Amenities:   []string{"wifi", "air conditioning", "desk"},
	},
	{
		Name:        "City View Single",
		Type:        model.RoomTypeSingle,
		Price:       140,
		Capacity:    1,
		Description: "Compact single room on a high floor with a city view.",
		Amenities:   []string{"wifi", "air conditioning", "coffee maker"},
	},
	{
		Name:        "Sea View Double",
		Type:        model.RoomTypeDouble,
		Price:       220,
		Capacity:    2,
		Description: "Spacious double room with a balcony facing the sea.",
		Amenities:   []string{"wifi", "air conditioning", "balcony", "minibar"},
	},
	{
		Name:        "Deluxe Double",
		Type:        model.RoomTypeDouble,
		Price:       260,
		Capacity:    2,
		Description: "Deluxe double room with a king bed and a lounge corner.",
		Amenities:   []string{"wifi", "air conditioning", "minibar", "bathtub"},
	},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.Log.Info("Starting room seed job")
	defer cfg.GracefulShutdown()

	roomRepo := repository.NewMongoRoomRepository(cfg)

	count, err := roomRepo.Count(ctx, "")
	if err != nil {
		cfg.Log.Fatal("Failed to count existing rooms", "error", err)
	}
	if count > 0 {
		cfg.Log.Info("Rooms collection already populated, skipping seed", "count", count)
		return
	}

	for _, room := range seedRooms {
		if err := roomRepo.Create(ctx, room); err != nil {
			cfg.Log.Fatal("Failed to seed room", "name", room.Name, "error", err)
		}
		cfg.Log.Info("Seeded room", "id", room.ID, "name", room.Name, "type", room.Type)
	}

	cfg.Log.Info("Room seed completed", "count", len(seedRooms))
}
