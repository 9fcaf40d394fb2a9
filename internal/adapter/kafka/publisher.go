// Package kafka publishes stored-snapshot notifications to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces one message per stored location run.
// It implements pipeline.Publisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes the snapshot keyed by location so a location's runs land on
// one partition in order.
func (p *Publisher) Publish(ctx context.Context, s domain.Snapshot) error {
	msg, err := serializeToMessage(s)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish snapshot for %s: %w", s.LocationName, err)
	}
	p.logger.Debug("snapshot published", "location", s.LocationName, "run_id", s.RunID, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func serializeToMessage(s domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.LocationName),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(s.RunID)},
			{Key: "run_timestamp", Value: []byte(s.RunTimestamp.UTC().Format(time.RFC3339))},
		},
	}, nil
}
