package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by readers when a location has no stored rows.
var ErrNotFound = errors.New("no stored weather for location")

// Snapshot summarizes one stored location run for downstream consumers.
type Snapshot struct {
	RunID         string     `json:"run_id"`
	LocationName  string     `json:"location_name"`
	RunTimestamp  time.Time  `json:"run_timestamp"`
	Current       Row        `json:"current"`
	HourlyRows    int        `json:"hourly_rows"`
	FirstForecast *time.Time `json:"first_forecast,omitempty"`
	LastForecast  *time.Time `json:"last_forecast,omitempty"`
}

// NewSnapshot builds the summary of a validated current/hourly pair. Hourly
// rows are assumed sorted, as validation guarantees.
func NewSnapshot(runID string, current, hourly Table) Snapshot {
	s := Snapshot{
		RunID:      runID,
		HourlyRows: hourly.Len(),
	}
	if current.Len() > 0 {
		s.Current = current.Rows[0]
		s.LocationName = s.Current.LocationName
		s.RunTimestamp = s.Current.RunTimestamp
	}
	if n := hourly.Len(); n > 0 {
		s.FirstForecast = hourly.Rows[0].Time
		s.LastForecast = hourly.Rows[n-1].Time
	}
	return s
}
