package event

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher implements Publisher using segmentio/kafka-go. All events go
// to a single topic; the channel name rides along as the message key so
// consumers can filter without decoding the payload.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a Kafka publisher that writes events to the given
// topic. brokers must be non-empty. Call Close when shutting down.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer}, nil
}

// Publish writes the payload to the topic with the channel name as key.
func (p *KafkaPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(channel),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call multiple times.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
