package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// weatherRow maps one row of either persisted table.
type weatherRow struct {
	Time                *time.Time `gorm:"column:time"`
	Temperature         *float64   `gorm:"column:temperature"`
	RelativeHumidity    *float64   `gorm:"column:relative_humidity"`
	ApparentTemperature *float64   `gorm:"column:apparent_temperature"`
	Precipitation       *float64   `gorm:"column:precipitation"`
	Rain                *float64   `gorm:"column:rain"`
	CloudCover          *float64   `gorm:"column:cloud_cover"`
	WindSpeed           *float64   `gorm:"column:wind_speed"`
	WindDirection       *float64   `gorm:"column:wind_direction"`
	LocationName        string     `gorm:"column:location_name"`
	RunTimestamp        time.Time  `gorm:"column:run_timestamp"`
}

func (w weatherRow) toDomain() domain.Row {
	r := domain.Row{
		Temperature:         w.Temperature,
		RelativeHumidity:    w.RelativeHumidity,
		ApparentTemperature: w.ApparentTemperature,
		Precipitation:       w.Precipitation,
		Rain:                w.Rain,
		CloudCover:          w.CloudCover,
		WindSpeed:           w.WindSpeed,
		WindDirection:       w.WindDirection,
		LocationName:        w.LocationName,
		RunTimestamp:        w.RunTimestamp.UTC(),
	}
	if w.Time != nil {
		t := w.Time.UTC()
		r.Time = &t
	}
	return r
}

// Reader serves stored snapshots to the read API. It holds one pooled
// connection for the life of the process, unlike Store.
type Reader struct {
	db *gorm.DB
}

// OpenReader opens the database at path for reading, applying migrations
// first so an API started before the first ingest sees empty tables.
func OpenReader(path string) (*Reader, error) {
	if err := migrateUp(path); err != nil {
		return nil, err
	}

	db, err := gorm.Open(gormsqlite.Open(dsn(path)), &gorm.Config{
		Logger: gormlogger.New(
			log.New(os.Stderr, "", log.LstdFlags),
			gormlogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormlogger.Silent,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm connection: %w", err)
	}
	return &Reader{db: db}, nil
}

// LatestCurrent returns the most recent current-conditions row for a location.
func (r *Reader) LatestCurrent(ctx context.Context, location string) (domain.Row, error) {
	var row weatherRow
	err := r.db.WithContext(ctx).
		Table(CurrentWeatherTable).
		Where("location_name = ?", location).
		Order("run_timestamp DESC").
		Order("time DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Row{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Row{}, fmt.Errorf("query latest current for %s: %w", location, err)
	}
	return row.toDomain(), nil
}

// LatestHourly returns the hourly rows of the most recent run for a location,
// ordered by forecast time.
func (r *Reader) LatestHourly(ctx context.Context, location string) ([]domain.Row, error) {
	latest := r.db.
		Table(HourlyWeatherTable).
		Select("MAX(run_timestamp)").
		Where("location_name = ?", location)

	var rows []weatherRow
	err := r.db.WithContext(ctx).
		Table(HourlyWeatherTable).
		Where("location_name = ? AND run_timestamp = (?)", location, latest).
		Order("time").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query latest hourly for %s: %w", location, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}

	out := make([]domain.Row, len(rows))
	for i, w := range rows {
		out[i] = w.toDomain()
	}
	return out, nil
}

// CheckReadiness pings the database.
func (r *Reader) CheckReadiness(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Reader) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
