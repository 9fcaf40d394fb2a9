// Command validate dry-runs the pipeline on raw Open-Meteo response files:
// each file is read, normalized, and validated exactly as an ingest run
// would, without touching the store. It prints a line per file and exits
// non-zero if any file would be rejected.
//
// Usage:
//
//	go run ./cmd/validate -location tokyo data/raw/tokyo_20251217T033728Z_raw.json
//	go run ./cmd/validate data/raw/*.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/couchcryptid/weather-forecast-etl/internal/pipeline"
)

func main() {
	location := flag.String("location", "", "location name stamped on rows (default: derived from the file name)")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if code := run(os.Stdout, *location, flag.Args()); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, location string, paths []string) int {
	failed := 0
	for _, path := range paths {
		name := location
		if name == "" {
			name = locationFromFileName(path)
		}

		line, err := check(path, name)
		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s: %s\n", path, describe(err))
			continue
		}
		fmt.Fprintf(w, "PASS %s: %s\n", path, line)
	}

	fmt.Fprintf(w, "%d/%d files passed\n", len(paths)-failed, len(paths))
	if failed > 0 {
		return 1
	}
	return 0
}

func check(path, location string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read raw payload: %w", err)
	}

	current, hourly, err := pipeline.Prepare(raw, location, domain.RunTimestamp())
	if err != nil {
		return "", err
	}

	line := fmt.Sprintf("location=%s current_rows=%d hourly_rows=%d", location, current.Len(), hourly.Len())
	if n := hourly.Len(); n > 0 {
		line += fmt.Sprintf(" forecast=%s..%s",
			hourly.Rows[0].Time.Format("2006-01-02T15:04Z"),
			hourly.Rows[n-1].Time.Format("2006-01-02T15:04Z"),
		)
	}
	return line, nil
}

// describe tags validation failures with their kind so rejected files can be
// grouped by cause.
func describe(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("validation [%s] %v", verr.Kind, err)
	}
	return err.Error()
}

// locationFromFileName recovers the slug from "<slug>_<timestamp>_raw.json".
func locationFromFileName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.TrimSuffix(base, "_raw")
	if i := strings.LastIndex(base, "_"); i > 0 {
		return base[:i]
	}
	return base
}
