package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// ColumnRenames maps Open-Meteo variable names to normalized column names.
// Fields not listed pass through under their own name.
var ColumnRenames = map[string]string{
	"temperature_2m":       ColTemperature,
	"relative_humidity_2m": ColRelativeHumidity,
	"wind_speed_10m":       ColWindSpeed,
	"wind_direction_10m":   ColWindDirection,
}

// zonedTimeLayouts accept ISO-8601 instants that carry a Z or numeric offset,
// with or without seconds.
var zonedTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04Z07:00",
}

// naiveTimeLayouts are tried in order for timestamps without a zone; the
// API reports them in UTC.
var naiveTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeCurrent wraps the current section as a single row, attaching the
// location name and run timestamp. An empty section yields one row of nulls.
func NormalizeCurrent(p RawPayload, locationName string, runTimestamp time.Time) (Table, error) {
	t := Table{
		Name:    CurrentTableName,
		Columns: NewColumnSet(ColLocationName, ColRunTimestamp),
	}
	row := Row{LocationName: locationName, RunTimestamp: runTimestamp.UTC()}

	for _, key := range orderedKeys(p.Current) {
		col, ok := targetColumn(key)
		if !ok {
			continue
		}
		if err := setField(&row, col, p.Current[key]); err != nil {
			return Table{}, &ParseError{Field: "current." + key, Err: err}
		}
		if col == ColTime {
			t.TimeCoerced = true
		}
		t.Columns.add(col)
	}

	t.Rows = []Row{row}
	return t, nil
}

// NormalizeHourly expands the hourly parallel arrays into one row per index,
// attaching the location name and run timestamp to every row.
func NormalizeHourly(p RawPayload, locationName string, runTimestamp time.Time) (Table, error) {
	t := Table{
		Name:    HourlyTableName,
		Columns: NewColumnSet(ColLocationName, ColRunTimestamp),
	}

	n := hourlyRowCount(p.Hourly)
	keys := orderedKeys(p.Hourly)
	for _, key := range keys {
		// A null in place of an array is a null for every row.
		if p.Hourly[key] == nil {
			continue
		}
		if got := len(p.Hourly[key]); got != n {
			return Table{}, &ParseError{
				Field: "hourly." + key,
				Err:   fmt.Errorf("array has %d values, expected %d", got, n),
			}
		}
	}

	run := runTimestamp.UTC()
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{LocationName: locationName, RunTimestamp: run}
	}

	for _, key := range keys {
		col, ok := targetColumn(key)
		if !ok {
			continue
		}
		values := p.Hourly[key]
		if values == nil {
			values = make([]any, n)
		}
		for i, v := range values {
			if err := setField(&rows[i], col, v); err != nil {
				return Table{}, &ParseError{Field: fmt.Sprintf("hourly.%s[%d]", key, i), Err: err}
			}
		}
		if col == ColTime {
			t.TimeCoerced = true
		}
		t.Columns.add(col)
	}

	t.Rows = rows
	return t, nil
}

// hourlyRowCount is the length of the time array, or of the longest array
// when the time array is absent.
func hourlyRowCount(hourly map[string][]any) int {
	if times, ok := hourly[ColTime]; ok {
		return len(times)
	}
	n := 0
	for _, arr := range hourly {
		n = max(n, len(arr))
	}
	return n
}

// targetColumn maps a payload key to its normalized column. Keys outside
// the fixed column set are dropped.
func targetColumn(key string) (string, bool) {
	if col, ok := ColumnRenames[key]; ok {
		return col, true
	}
	if key == ColTime {
		return key, true
	}
	if _, ok := numericField(&Row{}, key); ok {
		return key, true
	}
	return "", false
}

// orderedKeys sorts keys so that renamed API variables are applied after
// pass-through names and win when both are present.
func orderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		_, ri := ColumnRenames[keys[i]]
		_, rj := ColumnRenames[keys[j]]
		if ri != rj {
			return rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func setField(row *Row, col string, v any) error {
	if col == ColTime {
		ts, err := parseTime(v)
		if err != nil {
			return err
		}
		row.Time = ts
		return nil
	}
	f, err := parseNumber(v)
	if err != nil {
		return err
	}
	field, _ := numericField(row, col)
	*field = f
	return nil
}

func numericField(row *Row, col string) (**float64, bool) {
	switch col {
	case ColTemperature:
		return &row.Temperature, true
	case ColRelativeHumidity:
		return &row.RelativeHumidity, true
	case ColApparentTemperature:
		return &row.ApparentTemperature, true
	case ColPrecipitation:
		return &row.Precipitation, true
	case ColRain:
		return &row.Rain, true
	case ColCloudCover:
		return &row.CloudCover, true
	case ColWindSpeed:
		return &row.WindSpeed, true
	case ColWindDirection:
		return &row.WindDirection, true
	default:
		return nil, false
	}
}

func parseNumber(v any) (*float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", n.String(), err)
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		return nil, fmt.Errorf("expected number, got %T", v)
	}
	return &f, nil
}

// parseTime coerces a payload timestamp to a UTC instant. Naive strings are
// read as UTC and numbers as Unix seconds.
func parseTime(v any) (*time.Time, error) {
	var ts time.Time
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		parsed, err := parseTimeString(s)
		if err != nil {
			return nil, err
		}
		ts = parsed
	case json.Number:
		if sec, err := s.Int64(); err == nil {
			ts = time.Unix(sec, 0)
			break
		}
		f, err := s.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid unix time %q: %w", s.String(), err)
		}
		ts = unixFloat(f)
	case float64:
		ts = unixFloat(s)
	case time.Time:
		ts = s
	default:
		return nil, fmt.Errorf("unsupported time value of type %T", v)
	}
	ts = ts.UTC()
	return &ts, nil
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range zonedTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	for _, layout := range naiveTimeLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func unixFloat(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}
