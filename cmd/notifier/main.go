package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stayhub/internal/reservations/events"
	"stayhub/pkg/config"
	"stayhub/pkg/kafka"
	kafka_config "stayhub/pkg/kafka/config"
	kafka_middleware "stayhub/pkg/kafka/middleware"
)

const ServiceName = "notifier"

// The notifier consumes reservation lifecycle events and emits guest
// notifications. Delivery is a log line for now; the consumer loop,
// retries and dead-lettering are the part that matters.
func main() {
	cfg := config.Load(ServiceName)
	kafkaCfg := kafka_config.Load()

	if !kafkaCfg.Enabled {
		cfg.Log.Fatal("Notifier requires Kafka, set KAFKA_ENABLED=true")
	}

	consumer := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.ReservationEventsTopic,
		handleEvent(cfg),
		cfg.Log,
		kafka_middleware.ConsumerLogging(cfg.Log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Notifier consuming reservation events",
		"topic", kafkaCfg.ReservationEventsTopic,
		"group", kafkaCfg.ConsumerGroupID,
	)

	if err := consumer.Run(ctx); err != nil {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}

func handleEvent(cfg *config.Config) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		var event events.ReservationEvent
		if err := msg.Unmarshal(&event); err != nil {
			return err
		}

		switch msg.EventType() {
		case kafka.EventReservationCreated:
			cfg.Log.Info("Sending booking confirmation",
				"user_id", event.UserID,
				"reservation_id", event.ReservationID,
				"room_id", event.RoomID,
				"check_in", event.CheckIn,
				"check_out", event.CheckOut,
				"total_price", event.TotalPrice,
			)
		case kafka.EventReservationCancelled:
			cfg.Log.Info("Sending cancellation notice",
				"user_id", event.UserID,
				"reservation_id", event.ReservationID,
				"room_id", event.RoomID,
			)
		default:
			cfg.Log.Warn("Ignoring unknown event type", "event_type", msg.EventType())
		}
		return nil
	}
}
