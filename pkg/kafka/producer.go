package kafka

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	kafka_config "stayhub/pkg/kafka/config"
	"stayhub/pkg/logger"
)

// ProducerMiddleware wraps a publish call, in the same shape as the
// HTTP middleware chain.
type ProducerMiddleware func(next PublishFunc) PublishFunc

type PublishFunc func(ctx context.Context, msg *Message) error

// Producer writes event messages to a single topic.
type Producer struct {
	writer  *kafka.Writer
	topic   string
	publish PublishFunc

	mu     sync.Mutex
	closed bool
}

func NewProducer(cfg *kafka_config.Config, topic string, log *logger.Logger, middlewares ...ProducerMiddleware) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.ProducerMaxAttempts,
		BatchTimeout: cfg.ProducerBatchTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.ProducerRequireAcks),
		Compression:  compressionCodec(cfg.ProducerCompression),
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) { log.Debug("kafka writer: " + msg) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...any) { log.Error("kafka writer: " + msg) }),
	}

	p := &Producer{
		writer: writer,
		topic:  topic,
	}

	publish := p.doPublish
	for i := len(middlewares) - 1; i >= 0; i-- {
		publish = middlewares[i](publish)
	}
	p.publish = publish

	return p
}

func (p *Producer) Topic() string {
	return p.topic
}

// Publish writes the message through the middleware chain. It blocks
// until the broker acknowledges or ctx is done.
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProducerClosed
	}
	p.mu.Unlock()

	return p.publish(ctx, msg)
}

func (p *Producer) doPublish(ctx context.Context, msg *Message) error {
	if err := p.writer.WriteMessages(ctx, toKafkaMessage(msg)); err != nil {
		return NewKafkaError(p.topic, "publish", err)
	}
	return nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
