// Package kafka publishes built close-approach rows to a Kafka topic as an
// optional downstream export.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/neo-approach-etl/internal/config"
	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

// Writer produces messages to the configured approaches topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the approaches topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishApproaches serializes and publishes close-approach rows in a
// single WriteMessages call. Messages are keyed by approach_id, so a
// republish of the same build compacts cleanly.
func (w *Writer) PublishApproaches(ctx context.Context, rows []domain.ApproachRow, md domain.RunMetadata) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(rows[i], md)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publishing approaches: %w", err)
	}
	w.logger.Info("published approaches", "count", len(rows))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an approach row into a Kafka message with
// build provenance carried in headers.
func serializeToMessage(row domain.ApproachRow, md domain.RunMetadata) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize approach %s: %w", row.ApproachID, err)
	}
	return kafkago.Message{
		Key:   []byte(row.ApproachID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "generated_at", Value: []byte(md.GeneratedAt)},
			{Key: "input_sha256", Value: []byte(md.InputSHA256)},
		},
	}, nil
}
