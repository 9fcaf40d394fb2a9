// Command etl runs one ingest pass over every configured location: fetch
// from Open-Meteo, normalize, validate, and append to the SQLite store.
// It exits non-zero when any location fails.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/couchcryptid/weather-forecast-etl/internal/adapter/kafka"
	"github.com/couchcryptid/weather-forecast-etl/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-forecast-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-forecast-etl/internal/config"
	"github.com/couchcryptid/weather-forecast-etl/internal/observability"
	"github.com/couchcryptid/weather-forecast-etl/internal/pipeline"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	pipelineCfg, err := config.LoadPipeline(cfg.ConfigPath)
	if err != nil {
		logger.Error("failed to load pipeline config", "path", cfg.ConfigPath, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, pipelineCfg, logger); err != nil {
		logger.Error("pipeline completed with failures", "error", err)
		os.Exit(1)
	}
	logger.Info("pipeline completed successfully")
}

func run(ctx context.Context, cfg *config.Config, pipelineCfg *config.Pipeline, logger *slog.Logger) error {
	metrics := observability.NewMetrics()
	defer pushMetrics(cfg.PushgatewayURL, logger)

	source := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.OpenMeteoTimeout, logger, metrics)
	store := sqlite.NewStore(cfg.DBPath, logger)

	var opts []pipeline.Option
	if cfg.PublishEnabled() {
		publisher := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSinkTopic)
	}

	p := pipeline.New(source, store, cfg.RawDataDir, logger, metrics, opts...)

	logger.Info("pipeline started",
		"locations", len(pipelineCfg.Locations),
		"db_path", cfg.DBPath,
		"raw_dir", cfg.RawDataDir,
	)

	var result *multierror.Error
	for _, loc := range pipelineCfg.Locations {
		if ctx.Err() != nil {
			result = multierror.Append(result, fmt.Errorf("run interrupted before %s: %w", loc.Name, ctx.Err()))
			break
		}

		res, err := p.Ingest(ctx, loc, pipelineCfg.API)
		if err != nil {
			logger.Error("location failed", "location", loc.Name, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", loc.Name, err))
			continue
		}
		logger.Info("location processed",
			"location", res.Location,
			"current_rows", res.CurrentRows,
			"hourly_rows", res.HourlyRows,
			"raw_path", res.RawPath,
		)
	}
	return result.ErrorOrNil()
}

func pushMetrics(url string, logger *slog.Logger) {
	if url == "" {
		return
	}
	err := push.New(url, "weather_etl").
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		logger.Warn("push metrics failed", "pushgateway", url, "error", err)
	}
}
