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

	"github.com/couchcryptid/cyclone-outage-monitor/internal/adapter/kafka"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/config"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/history"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/observability"
)

const testTopic = "test-cyclone-updates"

// publishedUpdate holds a deserialized message read from the update topic.
type publishedUpdate struct {
	Update  monitor.Update
	Key     string
	Headers map[string]string
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// readUpdate reads a single message from the consumer and deserializes it.
func readUpdate(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedUpdate {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from update topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var u monitor.Update
	require.NoError(t, json.Unmarshal(msg.Value, &u), "unmarshal update message")

	return publishedUpdate{Update: u, Key: string(msg.Key), Headers: headers}
}

// TestKafkaWriter verifies that a single update round-trips through Kafka
// with its key and headers intact.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	r := domain.Reading{
		WindSpeed:         80,
		Precipitation:     50,
		FloodRisk:         4,
		CycloneCategory:   2,
		VegetationDensity: 0.5,
		Timestamp:         time.Date(2024, time.September, 1, 14, 0, 0, 0, time.UTC),
	}
	eval := domain.NewEvaluator(25)
	w := history.NewWindow(history.DefaultCapacity)
	a := eval.Assess(r)
	w.Append(history.NewEntry(r, a.Score))

	sent := monitor.Update{
		ID:         "upd-critical",
		Sequence:   1,
		Reading:    r,
		Assessment: a,
		Statuses:   eval.Statuses(r),
		History:    w.Snapshot(),
	}
	require.NoError(t, writer.Publish(ctx, sent))

	got := readUpdate(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "upd-critical", got.Key)
	assert.Equal(t, "Critical", got.Headers["risk_level"])
	assert.Equal(t, "2024-09-01T14:00:00Z", got.Headers["generated_at"])

	assert.Equal(t, sent.ID, got.Update.ID)
	assert.Equal(t, domain.RiskCritical, got.Update.Assessment.Level)
	assert.InDelta(t, 1.0, got.Update.Assessment.Score, 1e-9)
	assert.Equal(t, sent.Statuses, got.Update.Statuses)
	assert.Equal(t, sent.History.Labels, got.Update.History.Labels)
}

// TestMonitorPublishesToKafka runs the controller on a real clock with the
// Kafka writer subscribed and checks the stream of updates.
func TestMonitorPublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	ctrl := monitor.New(
		domain.NewGenerator(42),
		domain.NewEvaluator(25),
		history.NewWindow(3),
		discardLogger(),
		metrics,
		monitor.Options{Interval: 200 * time.Millisecond, PublishTimeout: 10 * time.Second, PublishQueue: 64},
	)
	ctrl.Subscribe("kafka", writer)
	require.NoError(t, ctrl.Start(ctx))
	t.Cleanup(ctrl.Close)

	const want = 5
	consumer := newConsumer(t, broker)
	received := make([]publishedUpdate, 0, want)
	for len(received) < want {
		received = append(received, readUpdate(ctx, t, consumer))
	}
	ctrl.Stop()

	for i, pu := range received {
		u := pu.Update
		assert.Equal(t, uint64(i+1), u.Sequence, "updates arrive in tick order")
		assert.Equal(t, u.ID, pu.Key)
		assert.Equal(t, u.Assessment.Level.String(), pu.Headers["risk_level"])
		_, err := time.Parse(time.RFC3339, pu.Headers["generated_at"])
		require.NoError(t, err, "generated_at should be valid RFC3339")

		assert.Equal(t, domain.Assess(u.Reading, 25).Level, u.Assessment.Level)
		assert.Equal(t, min(i+1, 3), u.History.Len())
		assert.True(t, u.History.Aligned())
	}
}
