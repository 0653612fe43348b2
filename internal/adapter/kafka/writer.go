package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/emissions-dashboard/internal/config"
	"github.com/couchcryptid/emissions-dashboard/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces report events to a Kafka topic.
// It implements dashboard.ReportPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured report topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one report event and writes it to the report topic.
// Events for the same pollutant share a partition.
func (p *Publisher) Publish(ctx context.Context, event domain.ReportEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report event: %w", err)
	}
	p.logger.Debug("report published", "id", event.ID, "pollutant", event.Pollutant, "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a ReportEvent into a Kafka message.
func serializeToMessage(event domain.ReportEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Pollutant),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "pollutant", Value: []byte(event.Pollutant)},
			{Key: "generated_at", Value: []byte(event.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
