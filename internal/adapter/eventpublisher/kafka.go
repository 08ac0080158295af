package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pscheid92/surveyqr/internal/domain"
)

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// publishTimeout bounds how long Publish may hold up the request that
// triggered the event.
const publishTimeout = 2 * time.Second

// KafkaPublisher implements domain.EventPublisher on a Kafka topic.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

var _ domain.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher writing to topic on brokers.
// Messages are hashed by key, acknowledged by all in-sync replicas and
// snappy-compressed.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka publisher: topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		WriteTimeout:           publishTimeout,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, publishTimeout), nil
}

func newKafkaPublisher(w messageWriter, timeout time.Duration) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: timeout}
}

// messageKey returns the partition key. Events without a survey, such as
// history.cleared, share the "history" key.
func messageKey(e domain.Event) []byte {
	if e.SurveyID == 0 {
		return []byte("history")
	}
	return []byte(strconv.FormatInt(e.SurveyID, 10))
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   messageKey(event),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}
