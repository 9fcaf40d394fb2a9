// Command genmock writes a deterministic synthetic Open-Meteo forecast
// response for offline runs of the pipeline and the validate command. The
// output is checked with the same normalize and validate path a live run
// uses before it is written.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -location "New York" -lat 40.7128 -lon -74.0060 \
//	  -days 2 -out data/mock/new_york_raw.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/couchcryptid/weather-forecast-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// generatedAt is the fixed clock reading used for the current snapshot.
var generatedAt = time.Date(2025, time.December, 17, 3, 37, 28, 0, time.UTC)

const openMeteoTimeLayout = "2006-01-02T15:04"

var variables = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"apparent_temperature",
	"precipitation",
	"rain",
	"cloud_cover",
	"wind_speed_10m",
	"wind_direction_10m",
}

type mockPayload struct {
	Latitude         float64        `json:"latitude"`
	Longitude        float64        `json:"longitude"`
	GenerationTimeMS float64        `json:"generationtime_ms"`
	UTCOffsetSeconds int            `json:"utc_offset_seconds"`
	Timezone         string         `json:"timezone"`
	Current          map[string]any `json:"current"`
	Hourly           map[string]any `json:"hourly"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	location := flag.String("location", "Tokyo", "location name")
	lat := flag.Float64("lat", 35.6895, "latitude")
	lon := flag.Float64("lon", 139.6917, "longitude")
	days := flag.Int("days", 2, "forecast days (1-16)")
	out := flag.String("out", "", "output path for the raw JSON fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *days < 1 || *days > 16 {
		return fmt.Errorf("-days must be between 1 and 16, got %d", *days)
	}

	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	defer domain.SetClock(nil)

	now := domain.RunTimestamp()
	p := generate(*lat, *lon, *days, now)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	slug := domain.LocationSlug(*location)
	current, hourly, err := pipeline.Prepare(data, slug, now)
	if err != nil {
		return fmt.Errorf("generated payload does not validate: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}

	log.Printf("wrote %s: location=%s current_rows=%d hourly_rows=%d", *out, slug, current.Len(), hourly.Len())
	return nil
}

// generate builds an Open-Meteo shaped payload whose hourly series starts at
// midnight UTC of now's day and whose current snapshot is now rounded down to
// the 15-minute interval Open-Meteo reports.
func generate(lat, lon float64, days int, now time.Time) mockPayload {
	start := now.Truncate(24 * time.Hour)
	hours := days * 24

	series := make(map[string][]any, len(variables))
	times := make([]any, hours)
	for h := 0; h < hours; h++ {
		times[h] = start.Add(time.Duration(h) * time.Hour).Format(openMeteoTimeLayout)
		for _, v := range variables {
			series[v] = append(series[v], sample(v, h))
		}
	}

	hourly := map[string]any{"time": times}
	for v, vals := range series {
		hourly[v] = vals
	}

	currentTime := now.Truncate(15 * time.Minute)
	currentHour := int(currentTime.Sub(start).Hours())
	current := map[string]any{
		"time":     currentTime.Format(openMeteoTimeLayout),
		"interval": 900,
	}
	for _, v := range variables {
		current[v] = sample(v, currentHour)
	}

	return mockPayload{
		Latitude:         lat,
		Longitude:        lon,
		GenerationTimeMS: 0.05,
		Timezone:         "GMT",
		Current:          current,
		Hourly:           hourly,
	}
}

// sample returns a plausible value for variable v at hour offset h. Values
// follow a daily cycle so fixtures look like real forecasts.
func sample(v string, h int) float64 {
	phase := 2 * math.Pi * float64((h+24-9)%24) / 24
	temp := 8 + 5*math.Sin(phase)

	switch v {
	case "temperature_2m":
		return round1(temp)
	case "relative_humidity_2m":
		return math.Round(60 - 15*math.Sin(phase))
	case "apparent_temperature":
		return round1(temp - 2.5)
	case "precipitation", "rain":
		if h%17 == 5 {
			return 0.3
		}
		return 0
	case "cloud_cover":
		return float64((h * 37) % 100)
	case "wind_speed_10m":
		return round1(8 + 4*math.Cos(phase))
	case "wind_direction_10m":
		return float64((200 + h*7) % 360)
	default:
		return 0
	}
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
