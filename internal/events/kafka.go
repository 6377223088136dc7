package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to one topic, keyed by ticket id so every
// event of a ticket lands on the same partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers. Writes
// are async: Publish returns once the message is queued and delivery
// failures are logged by the writer's completion callback.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion:   logDelivery(logger),
	}
	return NewKafkaPublisherWithWriter(writer, logger)
}

func logDelivery(logger *zap.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, msg := range messages {
			logger.Warn("Failed to deliver ticket event",
				zap.String("topic", msg.Topic),
				zap.String("ticket_id", string(msg.Key)),
				zap.Error(err))
		}
	}
}

// NewKafkaPublisherWithWriter wraps an existing writer.
func NewKafkaPublisherWithWriter(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.Ticket == nil {
		return errors.New("publish event: missing ticket")
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.Ticket.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
		Time: e.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", e.Type, err)
	}

	p.logger.Debug("Event queued",
		zap.String("type", e.Type),
		zap.String("ticket_id", e.Ticket.ID))
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// EnsureTopic creates topic through the cluster controller unless it exists.
func EnsureTopic(ctx context.Context, brokers []string, topic string) error {
	if len(brokers) == 0 {
		return errors.New("ensure topic: no brokers")
	}

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}

	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}
