// Package kafka publishes assembled matchup records to a Kafka topic, for
// deployments where downstream validation dashboards consume matchups as a
// stream instead of reading run files.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ricampos/WW3-tools/internal/domain"
)

// Writer produces matchup records to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the matchup topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Store serializes and publishes every record of the set in a single
// WriteMessages call for efficiency.
func (w *Writer) Store(set *domain.MatchupSet) error {
	if len(set.Records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(set.Records))
	for i := range set.Records {
		msg, err := serializeToMessage(set, set.Records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(context.Background(), msgs...); err != nil {
		return fmt.Errorf("publish matchups: %w", err)
	}
	w.logger.Info("matchup set published", "topic", w.writer.Topic, "records", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one matchup record into a Kafka message. The
// key groups buoy matchups by station and satellite matchups by mission, so
// per-source consumers see their records in order.
func serializeToMessage(set *domain.MatchupSet, rec domain.MatchupRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize matchup record: %w", err)
	}
	key := rec.Station
	if key == "" {
		key = rec.Mission.String()
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tag", Value: []byte(set.Tag)},
			{Key: "time", Value: []byte(strconv.FormatFloat(rec.Time, 'f', 0, 64))},
			{Key: "produced_at", Value: []byte(set.ProducedAt.Format(time.RFC3339))},
		},
	}, nil
}
