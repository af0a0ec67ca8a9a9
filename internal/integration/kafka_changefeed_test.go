//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/beach-safety-search/internal/adapter/kafka"
	"github.com/couchcryptid/beach-safety-search/internal/changefeed"
	"github.com/couchcryptid/beach-safety-search/internal/config"
	"github.com/couchcryptid/beach-safety-search/internal/domain"
	"github.com/couchcryptid/beach-safety-search/internal/index"
	"github.com/couchcryptid/beach-safety-search/internal/observability"
)

const (
	testChangesTopic       = "test-beach-changes"
	testNotificationsTopic = "test-beach-notifications"
)

// staticLikes serves a fixed set of likers per beach.
type staticLikes map[string][]string

func (s staticLikes) LikerIDs(_ context.Context, beachID string) ([]string, error) {
	return s[beachID], nil
}

// receivedNotification holds a deserialized message read from the
// notification topic.
type receivedNotification struct {
	Notification domain.StatusNotification
	Key          string
	Headers      map[string]string
}

func readNotification(ctx context.Context, t *testing.T, consumer *kafkago.Reader) receivedNotification {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from notification topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var n domain.StatusNotification
	require.NoError(t, json.Unmarshal(msg.Value, &n), "unmarshal notification")

	return receivedNotification{Notification: n, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:            []string{broker},
		KafkaChangesTopic:       testChangesTopic,
		KafkaNotificationsTopic: testNotificationsTopic,
		KafkaGroupID:            fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval:      5 * time.Second,
	}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testNotificationsTopic,
		GroupID:     fmt.Sprintf("test-notifications-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func statusUpdate(id, name, status, oldStatus string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"UPDATE","table":"beaches","record":{"id":%q,"name":%q,"neighborhood":"Pina","status":%q,"coordinates_lat":-8.0928,"coordinates_lng":-34.8756},"old_record":{"id":%q,"status":%q}}`,
		id, name, status, id, oldStatus))
}

func seededIndex() *index.Index {
	idx := index.New()
	idx.Replace([]domain.BeachRecord{
		{ID: "1", Name: "Praia de Boa Viagem", Neighborhood: "Boa Viagem", Status: domain.StatusSafe},
		{ID: "2", Name: "Praia do Pina", Neighborhood: "Pina", Status: domain.StatusWarning},
	})
	return idx
}

// TestKafkaReaderWriter verifies that kafka.Reader hands back change events
// with a working commit callback and that kafka.Writer publishes
// notifications keyed by beach.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testChangesTopic)
	createTopic(t, broker, testNotificationsTopic)
	cfg := testConfig(broker, "test-reader")

	payload := statusUpdate("2", "Praia do Pina", "danger", "warning")
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testChangesTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{Key: []byte("2"), Value: payload}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawChange
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for change event")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("2"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testChangesTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	change, err := domain.DecodeChange(raw)
	require.NoError(t, err)
	require.True(t, change.StatusChanged())

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.Publish(ctx, []domain.StatusNotification{
		domain.NewStatusNotification(change, "user-a"),
	}))

	got := readNotification(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "2", got.Key)
	assert.Equal(t, "2", got.Headers["beach_id"])
	assert.Equal(t, "danger", got.Headers["new_status"])
	_, err = time.Parse(time.RFC3339, got.Headers["notified_at"])
	assert.NoError(t, err, "notified_at should be valid RFC3339")
	assert.Equal(t, "user-a", got.Notification.UserID)
	assert.Equal(t, domain.StatusWarning, got.Notification.OldStatus)
	assert.Equal(t, domain.StatusDanger, got.Notification.NewStatus)
}

// TestChangeFeedEndToEnd wires Reader, Processor and Writer against a real
// broker: a status change reaches every liker once, an unchanged status and
// a poison pill produce nothing.
func TestChangeFeedEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testChangesTopic)
	createTopic(t, broker, testNotificationsTopic)
	cfg := testConfig(broker, "test-changefeed")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testChangesTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("1"), Value: []byte(`{"type":"UPDATE","table":"beaches","record":{"id":"1","name":"Praia de Boa Viagem","status":"safe"},"old_record":{"id":"1","status":"safe"}}`)},
		kafkago.Message{Key: []byte("2"), Value: statusUpdate("2", "Praia do Pina", "danger", "warning")},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	idx := seededIndex()
	likes := staticLikes{"1": {"user-c"}, "2": {"user-a", "user-b"}}
	metrics := observability.NewMetricsForTesting()
	p := changefeed.New(reader, idx, likes, writer, discardLogger(), metrics, 50)

	processorCtx, processorCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(processorCtx) }()

	consumer := newConsumer(t, broker)
	users := map[string]bool{}
	for range 2 {
		got := readNotification(ctx, t, consumer)
		assert.Equal(t, "2", got.Notification.BeachID)
		assert.Equal(t, domain.StatusDanger, got.Notification.NewStatus)
		users[got.Notification.UserID] = true
	}
	assert.Equal(t, map[string]bool{"user-a": true, "user-b": true}, users)

	// Verify nothing else arrives: beach 1 kept its status.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no further notifications")

	processorCancel()
	require.NoError(t, <-errCh)

	b, ok := idx.Get("2")
	require.True(t, ok)
	assert.Equal(t, domain.StatusDanger, b.Status)
}
