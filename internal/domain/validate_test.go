package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizedFixture(t *testing.T) (Table, Table) {
	t.Helper()
	p := loadFixture(t)
	current, err := NormalizeCurrent(p, "tokyo", testRunTimestamp)
	require.NoError(t, err)
	hourly, err := NormalizeHourly(p, "tokyo", testRunTimestamp)
	require.NoError(t, err)
	return current, hourly
}

func requireKind(t *testing.T, err error, kind ValidationKind) *ValidationError {
	t.Helper()
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %T: %v", err, err)
	assert.Equal(t, kind, verr.Kind, verr.Error())
	return verr
}

// hourlyTable builds a fully-columned hourly table with the given times.
func hourlyTable(times ...*time.Time) Table {
	rows := make([]Row, len(times))
	for i, ts := range times {
		rows[i] = Row{Time: ts, Temperature: ptr(float64(i)), LocationName: "tokyo", RunTimestamp: testRunTimestamp}
	}
	return Table{
		Name:        HourlyTableName,
		Columns:     NewColumnSet(RequiredColumns...),
		Rows:        rows,
		TimeCoerced: true,
	}
}

func TestValidate_Fixture(t *testing.T) {
	current, hourly := normalizedFixture(t)
	assert.NoError(t, ValidateCurrent(current))
	assert.NoError(t, ValidateHourly(hourly))
	assert.NoError(t, Validate(current, hourly))
}

func TestValidateCurrent(t *testing.T) {
	t.Run("empty section reports empty", func(t *testing.T) {
		table, err := NormalizeCurrent(RawPayload{Current: map[string]any{}}, testLocation, testRunTimestamp)
		require.NoError(t, err)

		verr := requireKind(t, ValidateCurrent(table), KindEmpty)
		assert.Equal(t, CurrentTableName, verr.Table)
	})

	t.Run("no rows reports empty", func(t *testing.T) {
		table := Table{Name: CurrentTableName, Columns: NewColumnSet(RequiredColumns...), TimeCoerced: true}
		requireKind(t, ValidateCurrent(table), KindEmpty)
	})

	t.Run("missing columns listed", func(t *testing.T) {
		p := RawPayload{Current: map[string]any{"time": "2025-12-17T00:00", "temperature": 10.0}}
		table, err := NormalizeCurrent(p, testLocation, testRunTimestamp)
		require.NoError(t, err)

		verr := requireKind(t, ValidateCurrent(table), KindMissingColumns)
		assert.Equal(t, []string{
			ColApparentTemperature,
			ColCloudCover,
			ColPrecipitation,
			ColRain,
			ColRelativeHumidity,
			ColWindDirection,
			ColWindSpeed,
		}, verr.Missing)
		assert.Contains(t, verr.Error(), "current_weather: missing required columns")
		assert.Contains(t, verr.Error(), ColWindSpeed)
	})

	t.Run("time not coerced", func(t *testing.T) {
		current, _ := normalizedFixture(t)
		current.TimeCoerced = false
		requireKind(t, ValidateCurrent(current), KindBadTimeType)
	})

	t.Run("time not in UTC", func(t *testing.T) {
		current, _ := normalizedFixture(t)
		local := current.Rows[0].Time.In(time.FixedZone("JST", 9*60*60))
		current.Rows[0].Time = &local
		requireKind(t, ValidateCurrent(current), KindBadTimeType)
	})

	t.Run("more than one row", func(t *testing.T) {
		current, _ := normalizedFixture(t)
		current.Rows = append(current.Rows, current.Rows[0])

		verr := requireKind(t, ValidateCurrent(current), KindRowCountMismatch)
		assert.Contains(t, verr.Error(), "expected exactly 1 row, found 2")
	})

	t.Run("null temperature", func(t *testing.T) {
		current, _ := normalizedFixture(t)
		current.Rows[0].Temperature = nil
		requireKind(t, ValidateCurrent(current), KindNullTemperature)
	})
}

func TestValidateHourly(t *testing.T) {
	t0 := utc("2025-12-17T00:00:00Z")
	t1 := utc("2025-12-17T01:00:00Z")
	t2 := utc("2025-12-17T02:00:00Z")

	t.Run("strictly increasing", func(t *testing.T) {
		assert.NoError(t, ValidateHourly(hourlyTable(t0, t1, t2)))
	})

	t.Run("single row", func(t *testing.T) {
		assert.NoError(t, ValidateHourly(hourlyTable(t0)))
	})

	t.Run("no rows reports empty", func(t *testing.T) {
		verr := requireKind(t, ValidateHourly(hourlyTable()), KindEmpty)
		assert.Equal(t, HourlyTableName, verr.Table)
	})

	t.Run("empty time array reports empty", func(t *testing.T) {
		p := RawPayload{Hourly: map[string][]any{"time": {}, "temperature_2m": {}}}
		table, err := NormalizeHourly(p, testLocation, testRunTimestamp)
		require.NoError(t, err)
		requireKind(t, ValidateHourly(table), KindEmpty)
	})

	t.Run("null time", func(t *testing.T) {
		requireKind(t, ValidateHourly(hourlyTable(t0, nil, t2)), KindNullTime)
	})

	t.Run("duplicate time", func(t *testing.T) {
		verr := requireKind(t, ValidateHourly(hourlyTable(t0, t1, utc("2025-12-17T01:00:00Z"))), KindDuplicateTime)
		assert.Contains(t, verr.Error(), "duplicate timestamps found")
	})

	t.Run("out of order", func(t *testing.T) {
		requireKind(t, ValidateHourly(hourlyTable(t0, t2, t1)), KindUnsortedTime)
	})

	t.Run("duplicate reported before unsorted", func(t *testing.T) {
		requireKind(t, ValidateHourly(hourlyTable(t2, t0, t2)), KindDuplicateTime)
	})

	t.Run("null reported before duplicate", func(t *testing.T) {
		requireKind(t, ValidateHourly(hourlyTable(t0, t0, nil)), KindNullTime)
	})
}

func TestValidate_RuleOrder(t *testing.T) {
	// Empty and missing columns at once: empty wins.
	table := Table{Name: HourlyTableName, Columns: NewColumnSet(ColLocationName, ColRunTimestamp)}
	requireKind(t, ValidateHourly(table), KindEmpty)

	// Missing columns and an uncoerced time column: missing columns wins.
	table = hourlyTable(utc("2025-12-17T00:00:00Z"))
	delete(table.Columns, ColRain)
	table.TimeCoerced = false
	requireKind(t, ValidateHourly(table), KindMissingColumns)
}

func TestValidate_CurrentCheckedFirst(t *testing.T) {
	current, hourly := normalizedFixture(t)
	current.Rows[0].Temperature = nil
	hourly.Rows = nil

	err := Validate(current, hourly)
	requireKind(t, err, KindNullTemperature)
}

func TestValidate_HourlyProperty(t *testing.T) {
	base := time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)
	for _, n := range []int{1, 2, 24, 168} {
		t.Run(fmt.Sprintf("%d hours", n), func(t *testing.T) {
			times := make([]any, n)
			temps := make([]any, n)
			cols := map[string][]any{"time": times, "temperature_2m": temps}
			for _, c := range []string{"relative_humidity_2m", "apparent_temperature", "precipitation", "rain", "cloud_cover", "wind_speed_10m", "wind_direction_10m"} {
				cols[c] = make([]any, n)
			}
			for i := range n {
				times[i] = base.Add(time.Duration(i) * time.Hour).Format("2006-01-02T15:04")
				temps[i] = float64(i)
			}

			table, err := NormalizeHourly(RawPayload{Hourly: cols}, testLocation, testRunTimestamp)
			require.NoError(t, err)
			require.NoError(t, ValidateHourly(table))
			assert.Equal(t, n, table.Len())
		})
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("location tokyo: %w", &ValidationError{Kind: KindUnsortedTime, Table: HourlyTableName})
	assert.True(t, IsKind(err, KindUnsortedTime))
	assert.False(t, IsKind(err, KindDuplicateTime))
	assert.False(t, IsKind(errors.New("boom"), KindEmpty))
}
