package main

import (
	"stayhub/internal/rooms/handler"
	"stayhub/internal/rooms/repository"
	"stayhub/internal/rooms/service"
	"stayhub/pkg/app"
	"stayhub/pkg/config"
)

const ServiceName = "rooms"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Rooms service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	roomService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewRoomHandler(roomService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.RoomService {
	roomRepo := repository.NewMongoRoomRepository(cfg)
	roomService := service.NewRoomService(roomRepo, cfg)

	cfg.Log.Info("Room service initialized", "database", cfg.MongoDatabaseName)
	return roomService
}
