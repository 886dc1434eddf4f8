package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	kafka_config "stayhub/pkg/kafka/config"
	"stayhub/pkg/logger"
)

// MessageHandler processes one consumed message. A non-nil error
// triggers the retry policy and eventually the DLQ.
type MessageHandler func(ctx context.Context, msg *Message) error

type ConsumerMiddleware func(next MessageHandler) MessageHandler

// Consumer reads from a topic as part of a consumer group, retries
// failed handlers, and dead-letters messages that keep failing.
type Consumer struct {
	reader     *kafka.Reader
	dlq        *Producer
	handler    MessageHandler
	log        *logger.Logger
	maxRetries int

	mu     sync.Mutex
	closed bool
}

func NewConsumer(cfg *kafka_config.Config, topic string, handler MessageHandler, log *logger.Logger, middlewares ...ConsumerMiddleware) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.ConsumerGroupID,
		Topic:          topic,
		MinBytes:       cfg.ConsumerMinBytes,
		MaxBytes:       cfg.ConsumerMaxBytes,
		MaxWait:        cfg.ConsumerMaxWait,
		CommitInterval: cfg.ConsumerCommitInterval,
		ErrorLogger:    kafka.LoggerFunc(func(msg string, args ...any) { log.Error("kafka reader: " + msg) }),
	})

	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	var dlq *Producer
	if cfg.DLQTopic != "" {
		dlq = NewProducer(cfg, cfg.DLQTopic, log)
	}

	return &Consumer{
		reader:     reader,
		dlq:        dlq,
		handler:    handler,
		log:        log,
		maxRetries: cfg.ConsumerMaxRetries,
	}
}

// Run consumes until ctx is cancelled or the consumer is closed.
// Offsets are committed only after the handler succeeds or the message
// is dead-lettered, so nothing is dropped on a crash.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		kmsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return nil
			}
			return NewKafkaError(c.reader.Config().Topic, "fetch", err)
		}

		msg := fromKafkaMessage(kmsg)
		if err := c.process(ctx, msg); err != nil {
			c.log.Error("message handling failed after retries",
				"topic", kmsg.Topic,
				"partition", kmsg.Partition,
				"offset", kmsg.Offset,
				"event_id", msg.EventID(),
				"error", err)
			if dlqErr := c.deadLetter(ctx, msg, err); dlqErr != nil {
				c.log.Error("dead letter publish failed", "event_id", msg.EventID(), "error", dlqErr)
			}
		}

		if err := c.reader.CommitMessages(ctx, kmsg); err != nil {
			c.log.Error("offset commit failed", "topic", kmsg.Topic, "offset", kmsg.Offset, "error", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *Message) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 200 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = c.handler(ctx, msg)
		if err == nil {
			return nil
		}
		if !ShouldRetry(err) {
			return err
		}
	}
	return errors.Join(ErrMaxRetriesExceed, err)
}

func (c *Consumer) deadLetter(ctx context.Context, msg *Message, cause error) error {
	if c.dlq == nil {
		return nil
	}
	dead := &Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: make(map[string]string, len(msg.Headers)+2),
		Time:    time.Now().UTC(),
	}
	for k, v := range msg.Headers {
		dead.Headers[k] = v
	}
	dead.Headers["dlq_reason"] = cause.Error()
	dead.Headers["dlq_source_topic"] = c.reader.Config().Topic
	return c.dlq.Publish(ctx, dead)
}

func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	var errs []error
	if err := c.reader.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.dlq != nil {
		if err := c.dlq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
