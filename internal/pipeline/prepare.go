package pipeline

import (
	"errors"
	"strings"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
)

// Prepare reads, normalizes, and validates a raw payload without storing it.
// It returns the tables a run would append.
func Prepare(raw []byte, locationName string, runTS time.Time) (domain.Table, domain.Table, error) {
	current, hourly, err := normalize(raw, locationName, runTS)
	if err != nil {
		return domain.Table{}, domain.Table{}, err
	}
	if err := domain.Validate(current, hourly); err != nil {
		return domain.Table{}, domain.Table{}, err
	}
	return current, hourly, nil
}

func normalize(raw []byte, locationName string, runTS time.Time) (domain.Table, domain.Table, error) {
	if strings.TrimSpace(locationName) == "" {
		return domain.Table{}, domain.Table{}, &domain.ParseError{
			Field: domain.ColLocationName,
			Err:   errors.New("location name is required"),
		}
	}
	payload, err := domain.ReadPayload(raw)
	if err != nil {
		return domain.Table{}, domain.Table{}, err
	}
	current, err := domain.NormalizeCurrent(payload, locationName, runTS)
	if err != nil {
		return domain.Table{}, domain.Table{}, err
	}
	hourly, err := domain.NormalizeHourly(payload, locationName, runTS)
	if err != nil {
		return domain.Table{}, domain.Table{}, err
	}
	return current, hourly, nil
}
