package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProducerClosed   = errors.New("kafka producer is closed")
	ErrConsumerClosed   = errors.New("kafka consumer is closed")
	ErrPublishTimeout   = errors.New("kafka publish timed out")
	ErrInvalidMessage   = errors.New("invalid kafka message")
	ErrMaxRetriesExceed = errors.New("max retries exceeded")
)

// KafkaError wraps a broker error with the topic it occurred on and a
// retryability hint used by the consumer retry loop.
type KafkaError struct {
	Topic     string
	Operation string
	Err       error
	Retryable bool
}

func (e *KafkaError) Error() string {
	return fmt.Sprintf("kafka %s on topic %q: %v", e.Operation, e.Topic, e.Err)
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

func NewKafkaError(topic, operation string, err error) *KafkaError {
	return &KafkaError{
		Topic:     topic,
		Operation: operation,
		Err:       err,
		Retryable: isRetryable(err),
	}
}

// isRetryable classifies broker errors. Transient transport and
// coordination failures are worth retrying, everything else goes
// straight to the DLQ.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"leader not available",
		"not leader for partition",
		"request timed out",
		"temporary",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func ShouldRetry(err error) bool {
	var kafkaErr *KafkaError
	if errors.As(err, &kafkaErr) {
		return kafkaErr.Retryable
	}
	return isRetryable(err)
}
