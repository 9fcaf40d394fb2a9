// Package sqlite persists normalized weather tables to an append-only SQLite
// database and reads them back for the API.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// Persisted table names.
const (
	CurrentWeatherTable = "current_weather"
	HourlyWeatherTable  = "hourly_weather"
)

const driverName = "sqlite3"

// insertChunkSize keeps a multi-row INSERT under SQLite's bound-variable limit.
const insertChunkSize = 90

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_current_weather_location_time ON current_weather (location_name, time)`,
	`CREATE INDEX IF NOT EXISTS idx_hourly_weather_location_time ON hourly_weather (location_name, time)`,
}

// Store appends validated tables to the SQLite database at path.
// It implements pipeline.Loader.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store for the database file at path. The file and its
// parent directory are created on first append.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Append writes the current table to current_weather and the hourly table to
// hourly_weather in one transaction, then ensures the lookup indexes. Rows
// are never deduplicated. The database is opened for the duration of the
// call only.
func (s *Store) Append(ctx context.Context, current, hourly domain.Table) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	if err := migrateUp(s.path); err != nil {
		return err
	}

	db, err := sql.Open(driverName, dsn(s.path))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	s.logger.Debug("appending weather tables",
		"db_path", s.path,
		"current_rows", current.Len(),
		"hourly_rows", hourly.Len(),
	)
	return appendTables(ctx, db, current, hourly)
}

func appendTables(ctx context.Context, db *sql.DB, current, hourly domain.Table) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertRows(ctx, tx, CurrentWeatherTable, current.Rows); err != nil {
		return err
	}
	if err = insertRows(ctx, tx, HourlyWeatherTable, hourly.Rows); err != nil {
		return err
	}
	if err = ensureIndexes(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ensureIndexes creates the (location_name, time) lookup indexes if absent.
func ensureIndexes(ctx context.Context, e execer) error {
	for _, stmt := range indexStatements {
		if _, err := e.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}

func insertRows(ctx context.Context, e execer, table string, rows []domain.Row) error {
	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))
		chunk := rows[start:end]

		query := insertQuery(table, len(chunk))
		args := make([]any, 0, len(chunk)*len(domain.RequiredColumns))
		for _, r := range chunk {
			args = append(args, rowArgs(r)...)
		}
		if _, err := e.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

func insertQuery(table string, n int) string {
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(domain.RequiredColumns)), ", ") + ")"
	values := make([]string, n)
	for i := range values {
		values[i] = placeholders
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table,
		strings.Join(domain.RequiredColumns, ", "),
		strings.Join(values, ", "),
	)
}

// rowArgs orders a row's values to match domain.RequiredColumns.
func rowArgs(r domain.Row) []any {
	return []any{
		nullTime(r.Time),
		nullFloat(r.Temperature),
		nullFloat(r.RelativeHumidity),
		nullFloat(r.ApparentTemperature),
		nullFloat(r.Precipitation),
		nullFloat(r.Rain),
		nullFloat(r.CloudCover),
		nullFloat(r.WindSpeed),
		nullFloat(r.WindDirection),
		r.LocationName,
		r.RunTimestamp.UTC(),
	}
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}

func dsn(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_txlock=immediate"
}
