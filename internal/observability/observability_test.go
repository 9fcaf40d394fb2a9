package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("pipeline started", "location", "tokyo")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pipeline started", line["msg"])
	assert.Equal(t, "tokyo", line["location"])
	assert.Equal(t, "weather-forecast-etl", line["service"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug", "text")

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewMetricsForTesting(t *testing.T) {
	m1 := NewMetricsForTesting()
	m2 := NewMetricsForTesting()

	m1.RowsAppended.WithLabelValues("hourly_forecast").Add(24)
	assert.Equal(t, 24.0, testutil.ToFloat64(m1.RowsAppended.WithLabelValues("hourly_forecast")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.RowsAppended.WithLabelValues("hourly_forecast")))
}
