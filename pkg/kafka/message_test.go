package kafka

import (
	"testing"

	"github.com/google/uuid"
)

type testPayload struct {
	ReservationID string `json:"reservation_id"`
	RoomID        string `json:"room_id"`
}

func TestMessageBuilder_Build(t *testing.T) {
	msg, err := NewMessageBuilder().
		WithKey("68b0a1b2c3d4e5f607080901").
		WithEventType(EventReservationCreated).
		WithSource("reservations").
		WithPayload(testPayload{ReservationID: "res-1", RoomID: "68b0a1b2c3d4e5f607080901"}).
		WithHeader("tenant", "default").
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(msg.Key) != "68b0a1b2c3d4e5f607080901" {
		t.Errorf("expected key to be the room id, got %q", msg.Key)
	}
	if msg.EventType() != EventReservationCreated {
		t.Errorf("expected event type %q, got %q", EventReservationCreated, msg.EventType())
	}
	if _, err := uuid.Parse(msg.EventID()); err != nil {
		t.Errorf("expected event id to be a UUID, got %q", msg.EventID())
	}
	if msg.Header(HeaderSource) != "reservations" {
		t.Errorf("expected source header, got %q", msg.Header(HeaderSource))
	}
	if msg.Header(HeaderContentType) != "application/json" {
		t.Errorf("expected json content type, got %q", msg.Header(HeaderContentType))
	}
	if msg.Header("tenant") != "default" {
		t.Errorf("expected custom header to survive, got %q", msg.Header("tenant"))
	}
	if msg.Header(HeaderTimestamp) == "" {
		t.Error("expected timestamp header to be set")
	}

	var payload testPayload
	if err := msg.Unmarshal(&payload); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if payload.ReservationID != "res-1" {
		t.Errorf("expected payload round trip, got %+v", payload)
	}
}

func TestMessageBuilder_FreshEventIDPerBuild(t *testing.T) {
	builder := NewMessageBuilder().
		WithEventType(EventReservationCancelled).
		WithPayload(testPayload{ReservationID: "res-2"})

	first, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := builder.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.EventID() == second.EventID() {
		t.Error("expected a fresh event id on every build")
	}
}

func TestMessageBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		builder *MessageBuilder
	}{
		{
			name:    "missing event type",
			builder: NewMessageBuilder().WithPayload(testPayload{}),
		},
		{
			name:    "missing payload",
			builder: NewMessageBuilder().WithEventType(EventReservationCreated),
		},
		{
			name: "unmarshalable payload",
			builder: NewMessageBuilder().
				WithEventType(EventReservationCreated).
				WithPayload(make(chan int)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.builder.Build(); err == nil {
				t.Error("expected a build error")
			}
		})
	}
}

func TestMessageRoundTripThroughKafka(t *testing.T) {
	msg, err := NewMessageBuilder().
		WithKey("room-key").
		WithEventType(EventReservationCreated).
		WithPayload(testPayload{ReservationID: "res-3"}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := fromKafkaMessage(toKafkaMessage(msg))

	if string(restored.Key) != "room-key" {
		t.Errorf("expected key to survive the round trip, got %q", restored.Key)
	}
	if restored.EventType() != msg.EventType() {
		t.Errorf("expected event type %q, got %q", msg.EventType(), restored.EventType())
	}
	if restored.EventID() != msg.EventID() {
		t.Errorf("expected event id %q, got %q", msg.EventID(), restored.EventID())
	}
	if string(restored.Value) != string(msg.Value) {
		t.Error("expected payload bytes to survive the round trip")
	}
}
