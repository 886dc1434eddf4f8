package main

import (
	"stayhub/internal/reservations/events"
	"stayhub/internal/reservations/handler"
	"stayhub/internal/reservations/repository"
	"stayhub/internal/reservations/service"
	"stayhub/internal/reservations/validator"
	roomsrepository "stayhub/internal/rooms/repository"
	"stayhub/pkg/app"
	"stayhub/pkg/config"
	kafka_config "stayhub/pkg/kafka/config"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Reservations service")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	reservationService, publisher := initServices(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.ReservationService, events.EventPublisher) {
	kafkaCfg := kafka_config.Load()
	publisher := events.NewEventPublisher(cfg, kafkaCfg, ServiceName)

	reservationValidator := validator.NewReservationValidator(cfg.MaxStayNights, cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	lockRepo := repository.NewReservationLockRepository(cfg)
	roomRepo := roomsrepository.NewMongoRoomRepository(cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		lockRepo,
		roomRepo,
		reservationValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService, publisher
}
