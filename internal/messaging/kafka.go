package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/placerank/internal/config"
	"github.com/temcen/placerank/pkg/models"
)

const (
	FeedbackRecordedEvent = "FeedbackRecorded"
	DefaultFeedbackTopic  = "place-feedback"
)

// FeedbackRecordedMessage is the payload announced after a rating has been applied.
type FeedbackRecordedMessage struct {
	EventID   uuid.UUID           `json:"event_id"`
	Type      string              `json:"type"`
	UserID    string              `json:"user_id"`
	PlaceID   string              `json:"place_id"`
	Rating    int                 `json:"rating"`
	Tags      []string            `json:"tags,omitempty"`
	Category  string              `json:"category,omitempty"`
	Weights   models.WeightVector `json:"weights"`
	Timestamp time.Time           `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FeedbackPublisher writes FeedbackRecorded events keyed by user so that one user's events
// stay ordered within a partition.
type FeedbackPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *logrus.Logger
}

func NewFeedbackPublisher(cfg *config.KafkaConfig, logger *logrus.Logger) *FeedbackPublisher {
	topic := cfg.Topics.Feedback
	if topic == "" {
		topic = DefaultFeedbackTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return newFeedbackPublisher(writer, topic, logger)
}

func newFeedbackPublisher(writer messageWriter, topic string, logger *logrus.Logger) *FeedbackPublisher {
	return &FeedbackPublisher{
		writer:  writer,
		topic:   topic,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

func (p *FeedbackPublisher) PublishFeedbackRecorded(ctx context.Context, event *models.FeedbackEvent, weights models.WeightVector) error {
	message := FeedbackRecordedMessage{
		EventID:   event.ID,
		Type:      FeedbackRecordedEvent,
		UserID:    event.UserID,
		PlaceID:   event.PlaceID,
		Rating:    event.Rating,
		Tags:      event.Tags,
		Category:  event.Category,
		Weights:   weights,
		Timestamp: event.Timestamp,
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(event.UserID),
		Value: messageBytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(FeedbackRecordedEvent)},
			{Key: "event_id", Value: []byte(event.ID.String())},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, kafkaMessage); err != nil {
		p.logger.WithError(err).WithField("event_id", event.ID).Error("Failed to publish message to Kafka")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_id": event.ID,
		"user_id":  event.UserID,
		"topic":    p.topic,
	}).Debug("FeedbackRecorded published")

	return nil
}

func (p *FeedbackPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	return nil
}
