// Package openmeteo fetches forecast payloads from the Open-Meteo API and
// persists them verbatim for the pipeline to normalize.
package openmeteo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/couchcryptid/weather-forecast-etl/internal/observability"
)

// DefaultBaseURL is the public forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// maxErrorBody caps how much of a failed response is echoed into the error.
const maxErrorBody = 512

// Client implements domain.WeatherSource using the Open-Meteo forecast API.
// Requests are made once; there is no retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an Open-Meteo client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch requests the current conditions and hourly forecast for loc and
// returns the raw response body.
func (c *Client) Fetch(ctx context.Context, loc domain.Location, q domain.Query) ([]byte, error) {
	params := url.Values{
		"latitude":      {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		"longitude":     {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		"forecast_days": {strconv.Itoa(q.ForecastDays)},
		"hourly":        {strings.Join(q.HourlyVariables, ",")},
		"current":       {strings.Join(q.CurrentVariables, ",")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	body, err := c.do(req)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch forecast for %s: %w", loc.Name, err)
	}
	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	return body, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("open-meteo API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

// Ingest fetches the payload for loc and writes it to outPath as indented
// JSON. Nothing is written when the fetch fails.
func (c *Client) Ingest(ctx context.Context, loc domain.Location, q domain.Query, outPath string) error {
	slug := domain.LocationSlug(loc.Name)
	c.logger.Info("fetching weather data", "location", slug)

	body, err := c.Fetch(ctx, loc, q)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return fmt.Errorf("open-meteo response for %s is not JSON: %w", slug, err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create raw data directory: %w", err)
	}
	if err := os.WriteFile(outPath, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write raw payload: %w", err)
	}

	c.logger.Info("raw weather data saved", "location", slug, "path", outPath, "bytes", pretty.Len())
	return nil
}
