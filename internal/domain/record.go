package domain

import (
	"sort"
	"time"
)

// Table names carried in validation failures.
const (
	CurrentTableName = "current_weather"
	HourlyTableName  = "hourly_forecast"
)

// Column names of the normalized tables and the persisted schema.
const (
	ColTime                = "time"
	ColTemperature         = "temperature"
	ColRelativeHumidity    = "relative_humidity"
	ColApparentTemperature = "apparent_temperature"
	ColPrecipitation       = "precipitation"
	ColRain                = "rain"
	ColCloudCover          = "cloud_cover"
	ColWindSpeed           = "wind_speed"
	ColWindDirection       = "wind_direction"
	ColLocationName        = "location_name"
	ColRunTimestamp        = "run_timestamp"
)

// RequiredColumns is the fixed column set every normalized table must carry,
// in persisted column order.
var RequiredColumns = []string{
	ColTime,
	ColTemperature,
	ColRelativeHumidity,
	ColApparentTemperature,
	ColPrecipitation,
	ColRain,
	ColCloudCover,
	ColWindSpeed,
	ColWindDirection,
	ColLocationName,
	ColRunTimestamp,
}

// Row is one normalized observation or forecast hour. Nil pointers are nulls.
type Row struct {
	Time                *time.Time `json:"time"`
	Temperature         *float64   `json:"temperature"`
	RelativeHumidity    *float64   `json:"relative_humidity"`
	ApparentTemperature *float64   `json:"apparent_temperature"`
	Precipitation       *float64   `json:"precipitation"`
	Rain                *float64   `json:"rain"`
	CloudCover          *float64   `json:"cloud_cover"`
	WindSpeed           *float64   `json:"wind_speed"`
	WindDirection       *float64   `json:"wind_direction"`
	LocationName        string     `json:"location_name"`
	RunTimestamp        time.Time  `json:"run_timestamp"`
}

// ColumnSet records which columns a table actually carries.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from column names.
func NewColumnSet(cols ...string) ColumnSet {
	s := make(ColumnSet, len(cols))
	for _, c := range cols {
		s[c] = struct{}{}
	}
	return s
}

func (s ColumnSet) Has(col string) bool {
	_, ok := s[col]
	return ok
}

func (s ColumnSet) add(col string) {
	s[col] = struct{}{}
}

// Missing returns the required columns absent from the set, sorted.
func (s ColumnSet) Missing(required []string) []string {
	var missing []string
	for _, c := range required {
		if !s.Has(c) {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}

// Table is a normalized current snapshot or hourly forecast.
type Table struct {
	Name    string
	Columns ColumnSet
	Rows    []Row

	// TimeCoerced is set once the time column has been parsed into UTC instants.
	TimeCoerced bool
}

// Len returns the row count.
func (t Table) Len() int { return len(t.Rows) }

// hasSourceData reports whether any column beyond the attached
// location_name and run_timestamp came from the payload.
func (t Table) hasSourceData() bool {
	for c := range t.Columns {
		if c != ColLocationName && c != ColRunTimestamp {
			return true
		}
	}
	return false
}
