package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Writer — нужная часть kafka.Writer; в тестах подменяется.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher пишет изменения в топик; ключ сообщения — id сущности,
// поэтому история одной сущности попадает в одну партицию по порядку.
type KafkaPublisher struct {
	writer Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &KafkaPublisher{writer: w}
}

func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, changes ...Change) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(changes))
	for _, c := range changes {
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal change: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(c.EntityID.String()),
			Value: b,
			Headers: []kafka.Header{
				{Key: "kind", Value: []byte(c.Kind)},
				{Key: "action", Value: []byte(c.Action)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
