package kafka

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	run := time.Date(2025, 12, 17, 3, 37, 28, 0, time.UTC)
	first := time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)
	last := time.Date(2025, 12, 18, 23, 0, 0, 0, time.UTC)
	temp := 9.4

	s := domain.Snapshot{
		RunID:         "0b6f7c2e-1f7a-4a8e-9a0d-2f4c1b7e9d11",
		LocationName:  "tokyo",
		RunTimestamp:  run,
		Current:       domain.Row{Temperature: &temp, LocationName: "tokyo", RunTimestamp: run},
		HourlyRows:    48,
		FirstForecast: &first,
		LastForecast:  &last,
	}

	msg, err := serializeToMessage(s)
	require.NoError(t, err)

	assert.Equal(t, []byte("tokyo"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte(s.RunID), msg.Headers[0].Value)
	assert.Equal(t, "run_timestamp", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-12-17T03:37:28Z"), msg.Headers[1].Value)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "tokyo", decoded["location_name"])
	assert.Equal(t, 48.0, decoded["hourly_rows"])
	assert.Equal(t, "2025-12-17T00:00:00Z", decoded["first_forecast"])
	assert.Equal(t, "2025-12-18T23:00:00Z", decoded["last_forecast"])

	current, ok := decoded["current"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 9.4, current["temperature"])
	assert.Nil(t, current["rain"])
}

func TestSerializeToMessage_NoHourly(t *testing.T) {
	msg, err := serializeToMessage(domain.Snapshot{RunID: "r", LocationName: "oslo"})
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Value), "first_forecast")
	assert.NotContains(t, string(msg.Value), "last_forecast")
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092", "localhost:9093"}, "weather-snapshots",
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer p.Close()

	assert.Equal(t, "weather-snapshots", p.writer.Topic)
	assert.Equal(t, kafkago.RequireAll, p.writer.RequiredAcks)
	assert.IsType(t, &kafkago.Hash{}, p.writer.Balancer)
}
