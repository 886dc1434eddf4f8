package kafka_middleware

import (
	"context"
	"time"

	"stayhub/pkg/kafka"
	"stayhub/pkg/logger"
)

// ProducerLogging logs every publish with its outcome and latency.
func ProducerLogging(log *logger.Logger) kafka.ProducerMiddleware {
	return func(next kafka.PublishFunc) kafka.PublishFunc {
		return func(ctx context.Context, msg *kafka.Message) error {
			start := time.Now()
			err := next(ctx, msg)
			duration := time.Since(start)

			if err != nil {
				log.Error("event publish failed",
					"event_type", msg.EventType(),
					"event_id", msg.EventID(),
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}

			log.Info("event published",
				"event_type", msg.EventType(),
				"event_id", msg.EventID(),
				"duration_ms", duration.Milliseconds())
			return nil
		}
	}
}

// ConsumerLogging logs every handled message with its outcome and latency.
func ConsumerLogging(log *logger.Logger) kafka.ConsumerMiddleware {
	return func(next kafka.MessageHandler) kafka.MessageHandler {
		return func(ctx context.Context, msg *kafka.Message) error {
			start := time.Now()
			err := next(ctx, msg)
			duration := time.Since(start)

			if err != nil {
				log.Error("event handling failed",
					"event_type", msg.EventType(),
					"event_id", msg.EventID(),
					"duration_ms", duration.Milliseconds(),
					"error", err)
				return err
			}

			log.Info("event handled",
				"event_type", msg.EventType(),
				"event_id", msg.EventID(),
				"duration_ms", duration.Milliseconds())
			return nil
		}
	}
}
