package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event types carried on the reservation events topic.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
)

// Standard message headers.
const (
	HeaderEventID     = "event_id"
	HeaderEventType   = "event_type"
	HeaderSource      = "source"
	HeaderContentType = "content_type"
	HeaderTimestamp   = "timestamp"
)

// Message is the envelope written to and read from Kafka. The key is
// the reservation's room id so all events for one room land on the
// same partition and keep their ordering.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

func (m *Message) Header(name string) string {
	return m.Headers[name]
}

func (m *Message) EventType() string {
	return m.Header(HeaderEventType)
}

func (m *Message) EventID() string {
	return m.Header(HeaderEventID)
}

func (m *Message) Unmarshal(v any) error {
	if err := json.Unmarshal(m.Value, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

func toKafkaMessage(m *Message) kafka.Message {
	headers := make([]kafka.Header, 0, len(m.Headers))
	for k, v := range m.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
		Time:    m.Time,
	}
}

func fromKafkaMessage(m kafka.Message) *Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
		Time:    m.Time,
	}
}

// MessageBuilder assembles an event message with the standard headers
// filled in. Every built message gets a fresh event id.
type MessageBuilder struct {
	key       []byte
	eventType string
	source    string
	payload   any
	headers   map[string]string
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{headers: make(map[string]string)}
}

func (b *MessageBuilder) WithKey(key string) *MessageBuilder {
	b.key = []byte(key)
	return b
}

func (b *MessageBuilder) WithEventType(eventType string) *MessageBuilder {
	b.eventType = eventType
	return b
}

func (b *MessageBuilder) WithSource(source string) *MessageBuilder {
	b.source = source
	return b
}

func (b *MessageBuilder) WithPayload(payload any) *MessageBuilder {
	b.payload = payload
	return b
}

func (b *MessageBuilder) WithHeader(name, value string) *MessageBuilder {
	b.headers[name] = value
	return b
}

func (b *MessageBuilder) Build() (*Message, error) {
	if b.eventType == "" {
		return nil, fmt.Errorf("%w: event type is required", ErrInvalidMessage)
	}
	if b.payload == nil {
		return nil, fmt.Errorf("%w: payload is required", ErrInvalidMessage)
	}

	value, err := json.Marshal(b.payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", ErrInvalidMessage, err)
	}

	now := time.Now().UTC()
	headers := map[string]string{
		HeaderEventID:     uuid.NewString(),
		HeaderEventType:   b.eventType,
		HeaderContentType: "application/json",
		HeaderTimestamp:   now.Format(time.RFC3339),
	}
	if b.source != "" {
		headers[HeaderSource] = b.source
	}
	for k, v := range b.headers {
		headers[k] = v
	}

	return &Message{
		Key:     b.key,
		Value:   value,
		Headers: headers,
		Time:    now,
	}, nil
}
