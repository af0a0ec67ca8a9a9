package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/beach-safety-search/internal/config"
	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

// Writer publishes status notifications to a Kafka topic.
// It implements changefeed.Notifier.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured notification topic.
// Messages are keyed by beach so notifications for one beach stay ordered.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotificationsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes notifications in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, notifications []domain.StatusNotification) error {
	if len(notifications) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(notifications))
	for i := range notifications {
		msg, err := serializeToMessage(notifications[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a StatusNotification into a Kafka message.
func serializeToMessage(n domain.StatusNotification) (kafkago.Message, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize status notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(n.BeachID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "beach_id", Value: []byte(n.BeachID)},
			{Key: "new_status", Value: []byte(n.NewStatus)},
			{Key: "notified_at", Value: []byte(n.NotifiedAt.Format(time.RFC3339))},
		},
	}, nil
}
