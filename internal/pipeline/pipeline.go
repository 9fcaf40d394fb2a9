package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/couchcryptid/weather-forecast-etl/internal/observability"
	"github.com/google/uuid"
)

// Loader appends validated tables to the destination store.
type Loader interface {
	Append(ctx context.Context, current, hourly domain.Table) error
}

// Publisher announces a stored snapshot to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, s domain.Snapshot) error
}

// Run outcomes recorded in metrics.
const (
	outcomeSuccess         = "success"
	outcomeFetchError      = "fetch_error"
	outcomeParseError      = "parse_error"
	outcomeValidationError = "validation_error"
	outcomeStoreError      = "store_error"
)

// Result describes one stored location run.
type Result struct {
	RunID        string
	Location     string
	RunTimestamp time.Time
	RawPath      string
	CurrentRows  int
	HourlyRows   int
}

// Pipeline runs ingest, normalize, validate, and load for one location at a
// time. Every stage blocks the caller.
type Pipeline struct {
	source    domain.WeatherSource
	loader    Loader
	publisher Publisher
	rawDir    string
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithPublisher announces every stored run through pub.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// New creates a Pipeline. Raw responses fetched by Ingest are kept under rawDir.
func New(source domain.WeatherSource, loader Loader, rawDir string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  source,
		loader:  loader,
		rawDir:  rawDir,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once at least one location run has been stored.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not stored any runs yet")
	}
	return nil
}

// Ingest fetches the raw response for loc into the raw directory and
// processes it. Any failure aborts the location with nothing appended.
func (p *Pipeline) Ingest(ctx context.Context, loc domain.Location, q domain.Query) (Result, error) {
	slug := domain.LocationSlug(loc.Name)
	runTS := domain.RunTimestamp()
	rawPath := filepath.Join(p.rawDir, domain.RawFileName(slug, runTS))

	start := time.Now()
	err := p.source.Ingest(ctx, loc, q, rawPath)
	p.observeStage("fetch", start)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues(outcomeFetchError).Inc()
		return Result{}, fmt.Errorf("ingest %s: %w", slug, err)
	}

	raw, err := os.ReadFile(rawPath)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues(outcomeFetchError).Inc()
		return Result{}, fmt.Errorf("read raw payload %s: %w", rawPath, err)
	}

	res, err := p.process(ctx, raw, slug, runTS)
	if err != nil {
		return Result{}, err
	}
	res.RawPath = rawPath
	return res, nil
}

// Process normalizes, validates, and stores a raw payload already on hand,
// stamping it with a fresh run timestamp.
func (p *Pipeline) Process(ctx context.Context, raw []byte, locationName string) (Result, error) {
	return p.process(ctx, raw, locationName, domain.RunTimestamp())
}

func (p *Pipeline) process(ctx context.Context, raw []byte, locationName string, runTS time.Time) (Result, error) {
	runID := uuid.NewString()
	log := p.logger.With("location", locationName, "run_id", runID)

	start := time.Now()
	current, hourly, err := normalize(raw, locationName, runTS)
	p.observeStage("normalize", start)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues(outcomeParseError).Inc()
		log.Error("normalize failed", "error", err)
		return Result{}, err
	}

	start = time.Now()
	err = domain.Validate(current, hourly)
	p.observeStage("validate", start)
	if err != nil {
		p.recordValidationFailure(err)
		log.Error("validation failed", "error", err)
		return Result{}, err
	}

	start = time.Now()
	err = p.loader.Append(ctx, current, hourly)
	p.observeStage("store", start)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues(outcomeStoreError).Inc()
		log.Error("store append failed", "error", err)
		return Result{}, fmt.Errorf("store %s: %w", locationName, err)
	}

	p.metrics.RowsAppended.WithLabelValues(current.Name).Add(float64(current.Len()))
	p.metrics.RowsAppended.WithLabelValues(hourly.Name).Add(float64(hourly.Len()))
	p.metrics.RunsTotal.WithLabelValues(outcomeSuccess).Inc()
	p.metrics.LastSuccess.WithLabelValues(locationName).Set(float64(runTS.Unix()))
	p.ready.Store(true)

	log.Info("location run stored",
		"run_timestamp", runTS,
		"current_rows", current.Len(),
		"hourly_rows", hourly.Len(),
	)

	p.publish(ctx, log, domain.NewSnapshot(runID, current, hourly))

	return Result{
		RunID:        runID,
		Location:     locationName,
		RunTimestamp: runTS,
		CurrentRows:  current.Len(),
		HourlyRows:   hourly.Len(),
	}, nil
}

// publish is best effort: stored data is never rolled back for a failed
// notification.
func (p *Pipeline) publish(ctx context.Context, log *slog.Logger, s domain.Snapshot) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, s); err != nil {
		p.metrics.PublishErrors.Inc()
		log.Warn("publish snapshot failed", "error", err)
	}
}

func (p *Pipeline) recordValidationFailure(err error) {
	p.metrics.RunsTotal.WithLabelValues(outcomeValidationError).Inc()

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		p.metrics.ValidationFailures.WithLabelValues(verr.Table, string(verr.Kind)).Inc()
	}
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
