package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/config"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
)

// Writer produces monitor updates to a Kafka topic.
// It implements monitor.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured update topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one update and writes it to the topic.
func (w *Writer) Publish(ctx context.Context, u monitor.Update) error {
	msg, err := serializeToMessage(u)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write update %d: %w", u.Sequence, err)
	}
	w.logger.Debug("update published", "topic", w.writer.Topic, "sequence", u.Sequence)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Update into a Kafka message.
func serializeToMessage(u monitor.Update) (kafkago.Message, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize update: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(u.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(u.Assessment.Level.String())},
			{Key: "generated_at", Value: []byte(u.Reading.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
