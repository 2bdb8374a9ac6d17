package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/config"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	u := monitor.Update{
		ID:       "upd-1",
		Sequence: 7,
		Reading: domain.Reading{
			WindSpeed:         80,
			Precipitation:     50,
			FloodRisk:         4,
			CycloneCategory:   2,
			VegetationDensity: 0.5,
			Timestamp:         now,
		},
		Assessment: domain.RiskAssessment{Score: 1, Level: domain.RiskCritical},
		Statuses:   map[domain.Parameter]domain.ParameterStatus{domain.ParamWindSpeed: domain.StatusSafe},
	}

	msg, err := serializeToMessage(u)
	require.NoError(t, err)

	assert.Equal(t, []byte("upd-1"), msg.Key)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "risk_level", msg.Headers[0].Key)
	assert.Equal(t, []byte("Critical"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "upd-1", body["id"])
	assert.InDelta(t, 7.0, body["sequence"], 1e-9)
	assessment := body["assessment"].(map[string]any)
	assert.Equal(t, "Critical", assessment["level"])
	reading := body["reading"].(map[string]any)
	assert.InDelta(t, 80.0, reading["windSpeed"], 1e-9)
}

func TestNewWriter_UsesConfiguredTopic(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker1:9092", "broker2:9092"}, KafkaTopic: "risk"}
	w := NewWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { w.Close() }) //nolint:errcheck // nothing was written

	assert.Equal(t, "risk", w.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
}
