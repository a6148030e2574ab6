package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/xco2-etl/internal/config"
	"github.com/couchcryptid/xco2-etl/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes records to a Kafka topic as JSON.
// It implements domain.Session: Commit publishes everything added since the
// previous Commit in one WriteMessages call.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
	runID  string
	now    func() time.Time
	staged []domain.Record
}

// NewWriter creates a Kafka producer for the configured sink topic. runID is
// attached to every message as a header.
func NewWriter(cfg *config.Config, runID string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, runID: runID, now: time.Now}
}

// Add stages r for the next Commit.
func (w *Writer) Add(_ context.Context, r domain.Record) error {
	w.staged = append(w.staged, r)
	return nil
}

// Commit publishes the staged records and clears the staging area.
func (w *Writer) Commit(ctx context.Context) error {
	staged := w.staged
	w.staged = nil
	if len(staged) == 0 {
		return nil
	}
	publishedAt := w.now().UTC()
	msgs := make([]kafkago.Message, len(staged))
	for i := range staged {
		msg, err := serializeToMessage(staged[i], w.runID, publishedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		w.logger.Warn("kafka publish failed", "records", len(msgs), "error", err)
		return fmt.Errorf("publish %d records: %w", len(msgs), err)
	}
	w.logger.Debug("records published", "records", len(msgs), "published_at", publishedAt)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey is the record's natural key, so a compacted topic keeps one
// message per (timestamp, coordinates) pair.
func messageKey(r domain.Record) string {
	return r.Timestamp.UTC().Format(time.RFC3339) + "|" + r.Coordinates
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(r domain.Record, runID string, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(r)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
