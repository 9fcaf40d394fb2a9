// Package domain models Open-Meteo forecast responses and the two flat tables
// derived from them.
//
// # Data Source
//
// Responses come from the Open-Meteo forecast endpoint
// (https://api.open-meteo.com/v1/forecast) requested with a "current" and an
// "hourly" variable list:
//
//	{"current": {"time": "2025-12-17T00:00", "temperature_2m": 10.0, ...},
//	 "hourly":  {"time": ["2025-12-17T00:00", ...], "temperature_2m": [10.0, ...]}}
//
// The hourly section is a set of parallel arrays indexed by hour.
//
// # Conventions
//
// Times are ISO-8601 without a zone ("2025-12-17T00:00") and are read as UTC.
// RFC 3339 values with an offset are converted to UTC, and numeric values are
// Unix seconds (timeformat=unixtime).
//
// Variable names carry the measurement height ("temperature_2m",
// "wind_speed_10m"). [ColumnRenames] strips it so both tables share one
// column set; values pass through unchanged.
//
// # Tables
//
// [NormalizeCurrent] produces the single-row current_weather table and
// [NormalizeHourly] the hourly_forecast table. Every row carries the location
// slug and the run timestamp, the instant the pipeline ran, which keeps
// repeated snapshots of the same location distinguishable in the
// append-only store.
//
// # Validation
//
// [ValidateCurrent] and [ValidateHourly] stop at the first violated invariant
// and return a [*ValidationError] naming the table and the [ValidationKind].
package domain
