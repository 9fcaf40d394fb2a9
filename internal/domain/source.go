package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Location identifies an observation site.
type Location struct {
	Name      string  `yaml:"name" validate:"required"`
	Latitude  float64 `yaml:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `yaml:"longitude" validate:"gte=-180,lte=180"`
}

// Query selects what the weather source requests for a location.
type Query struct {
	HourlyVariables  []string `yaml:"hourly_variables" validate:"required,min=1,dive,required"`
	CurrentVariables []string `yaml:"current_variables" validate:"required,min=1,dive,required"`
	ForecastDays     int      `yaml:"forecast_days" validate:"gte=1,lte=16"`
}

// WeatherSource fetches the raw forecast response for a location.
type WeatherSource interface {
	// Ingest fetches the response and writes it to outPath for reproducibility.
	Ingest(ctx context.Context, loc Location, q Query, outPath string) error
}

// LocationSlug lower-cases a location name and replaces spaces with
// underscores. It is the location_name stored with every row.
func LocationSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// RawFileName names the raw response file for a location run,
// e.g. "new_york_20251217T033728Z_raw.json".
func RawFileName(slug string, at time.Time) string {
	return fmt.Sprintf("%s_%s_raw.json", slug, at.UTC().Format("20060102T150405Z"))
}
