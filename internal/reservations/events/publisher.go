package events

import (
	"context"
	"time"

	"stayhub/pkg/config"
	httputil "stayhub/pkg/http"
	"stayhub/pkg/kafka"
	kafka_config "stayhub/pkg/kafka/config"
	kafka_middleware "stayhub/pkg/kafka/middleware"
	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

// ReservationEvent is the payload carried on the reservation events
// topic for both created and cancelled events.
type ReservationEvent struct {
	ReservationID string  `json:"reservation_id"`
	UserID        string  `json:"user_id"`
	RoomID        string  `json:"room_id"`
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	Nights        int     `json:"nights"`
	TotalPrice    float64 `json:"total_price"`
	OccurredAt    string  `json:"occurred_at"`
}

// EventPublisher emits reservation lifecycle events. Publishing is
// best effort: the reservation is already committed when the event
// goes out, so failures are logged, never propagated.
type EventPublisher interface {
	ReservationCreated(ctx context.Context, reservation *model.Reservation)
	ReservationCancelled(ctx context.Context, reservation *model.Reservation)
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	service  string
	log      *logger.Logger
}

// NewEventPublisher returns a Kafka-backed publisher, or a no-op one
// when eventing is disabled.
func NewEventPublisher(cfg *config.Config, kafkaCfg *kafka_config.Config, serviceName string) EventPublisher {
	if !kafkaCfg.Enabled {
		cfg.Log.Info("Kafka eventing disabled, reservation events will not be published")
		return &noopPublisher{}
	}

	producer := kafka.NewProducer(
		kafkaCfg,
		kafkaCfg.ReservationEventsTopic,
		cfg.Log,
		kafka_middleware.ProducerLogging(cfg.Log),
	)
	cfg.Log.Info("Kafka event publisher initialized",
		"topic", kafkaCfg.ReservationEventsTopic,
		"brokers", kafkaCfg.Brokers,
	)

	return &kafkaPublisher{
		producer: producer,
		service:  serviceName,
		log:      cfg.Log,
	}
}

func (p *kafkaPublisher) ReservationCreated(ctx context.Context, reservation *model.Reservation) {
	p.publish(ctx, kafka.EventReservationCreated, reservation)
}

func (p *kafkaPublisher) ReservationCancelled(ctx context.Context, reservation *model.Reservation) {
	p.publish(ctx, kafka.EventReservationCancelled, reservation)
}

func (p *kafkaPublisher) publish(ctx context.Context, eventType string, reservation *model.Reservation) {
	msg, err := kafka.NewMessageBuilder().
		WithKey(reservation.RoomID).
		WithEventType(eventType).
		WithSource(p.service).
		WithPayload(toEvent(reservation)).
		Build()
	if err != nil {
		p.log.Error("Failed to build reservation event",
			"event_type", eventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

func toEvent(reservation *model.Reservation) ReservationEvent {
	return ReservationEvent{
		ReservationID: reservation.ID,
		UserID:        reservation.UserID,
		RoomID:        reservation.RoomID,
		CheckIn:       httputil.FormatDate(reservation.CheckIn),
		CheckOut:      httputil.FormatDate(reservation.CheckOut),
		Nights:        reservation.Nights,
		TotalPrice:    reservation.TotalPrice,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
}

type noopPublisher struct{}

func (*noopPublisher) ReservationCreated(context.Context, *model.Reservation)   {}
func (*noopPublisher) ReservationCancelled(context.Context, *model.Reservation) {}
func (*noopPublisher) Close() error                                             { return nil }
