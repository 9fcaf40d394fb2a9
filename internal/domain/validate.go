package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ValidationKind identifies which table invariant was violated.
type ValidationKind string

const (
	KindEmpty            ValidationKind = "empty"
	KindMissingColumns   ValidationKind = "missing_columns"
	KindBadTimeType      ValidationKind = "bad_time_type"
	KindRowCountMismatch ValidationKind = "row_count_mismatch"
	KindNullTemperature  ValidationKind = "null_temperature"
	KindNullTime         ValidationKind = "null_time"
	KindDuplicateTime    ValidationKind = "duplicate_time"
	KindUnsortedTime     ValidationKind = "unsorted_time"
)

// ValidationError reports the first invariant a normalized table violates.
type ValidationError struct {
	Kind    ValidationKind
	Table   string
	Missing []string // set for KindMissingColumns
	Detail  string
}

func (e *ValidationError) Error() string {
	if e.Kind == KindMissingColumns {
		return fmt.Sprintf("%s: missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Detail)
}

// IsKind reports whether err is a ValidationError of the given kind.
func IsKind(err error, kind ValidationKind) bool {
	var verr *ValidationError
	return errors.As(err, &verr) && verr.Kind == kind
}

// Validate checks the current table, then the hourly table.
func Validate(current, hourly Table) error {
	if err := ValidateCurrent(current); err != nil {
		return err
	}
	return ValidateHourly(hourly)
}

// ValidateCurrent enforces the single-row snapshot invariants.
func ValidateCurrent(t Table) error {
	name := tableName(t, CurrentTableName)
	if err := validateCommon(t, name); err != nil {
		return err
	}
	if t.Len() != 1 {
		return &ValidationError{
			Kind:   KindRowCountMismatch,
			Table:  name,
			Detail: fmt.Sprintf("expected exactly 1 row, found %d", t.Len()),
		}
	}
	if t.Rows[0].Temperature == nil {
		return &ValidationError{Kind: KindNullTemperature, Table: name, Detail: "temperature contains nulls"}
	}
	return nil
}

// ValidateHourly enforces the forecast time-series invariants.
func ValidateHourly(t Table) error {
	name := tableName(t, HourlyTableName)
	if err := validateCommon(t, name); err != nil {
		return err
	}

	for i, r := range t.Rows {
		if r.Time == nil {
			return &ValidationError{
				Kind:   KindNullTime,
				Table:  name,
				Detail: fmt.Sprintf("time contains nulls (row %d)", i),
			}
		}
	}

	seen := make(map[time.Time]int, t.Len())
	for i, r := range t.Rows {
		key := r.Time.UTC()
		if first, dup := seen[key]; dup {
			return &ValidationError{
				Kind:   KindDuplicateTime,
				Table:  name,
				Detail: fmt.Sprintf("duplicate timestamps found: %s at rows %d and %d", key.Format(time.RFC3339), first, i),
			}
		}
		seen[key] = i
	}

	for i := 1; i < t.Len(); i++ {
		if !t.Rows[i].Time.After(*t.Rows[i-1].Time) {
			return &ValidationError{
				Kind:   KindUnsortedTime,
				Table:  name,
				Detail: fmt.Sprintf("time is not sorted: row %d precedes row %d", i, i-1),
			}
		}
	}
	return nil
}

// validateCommon applies the checks shared by both tables.
func validateCommon(t Table, name string) error {
	if t.Len() == 0 || !t.hasSourceData() {
		return &ValidationError{Kind: KindEmpty, Table: name, Detail: "table is empty"}
	}
	if missing := t.Columns.Missing(RequiredColumns); len(missing) > 0 {
		return &ValidationError{Kind: KindMissingColumns, Table: name, Missing: missing}
	}
	if !t.TimeCoerced {
		return &ValidationError{Kind: KindBadTimeType, Table: name, Detail: "'time' must be datetime"}
	}
	for i, r := range t.Rows {
		if r.Time != nil && r.Time.Location() != time.UTC {
			return &ValidationError{
				Kind:   KindBadTimeType,
				Table:  name,
				Detail: fmt.Sprintf("'time' must be a UTC instant (row %d is %s)", i, r.Time.Location()),
			}
		}
	}
	return nil
}

func tableName(t Table, fallback string) string {
	if t.Name != "" {
		return t.Name
	}
	return fallback
}
