package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	RawDataDir string

	OpenMeteoBaseURL string
	OpenMeteoTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Snapshot publishing is disabled when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Metrics push for the batch command; empty disables.
	PushgatewayURL string
}

// PublishEnabled reports whether snapshot notifications should be sent.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	timeoutStr := sharedcfg.EnvOrDefault("OPEN_METEO_TIMEOUT", "10s")
	openMeteoTimeout, err := time.ParseDuration(timeoutStr)
	if err != nil || openMeteoTimeout <= 0 {
		return nil, errors.New("invalid OPEN_METEO_TIMEOUT")
	}

	dataDir := sharedcfg.EnvOrDefault("DATA_DIR", "data")

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		ConfigPath:       sharedcfg.EnvOrDefault("CONFIG_PATH", "config.yaml"),
		DataDir:          dataDir,
		DBPath:           sharedcfg.EnvOrDefault("DB_PATH", filepath.Join(dataDir, "weather.db")),
		RawDataDir:       sharedcfg.EnvOrDefault("RAW_DATA_DIR", filepath.Join(dataDir, "raw")),
		OpenMeteoBaseURL: sharedcfg.EnvOrDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		OpenMeteoTimeout: openMeteoTimeout,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		KafkaBrokers:     brokers,
		KafkaSinkTopic:   sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "weather-snapshots"),
		PushgatewayURL:   os.Getenv("PUSHGATEWAY_URL"),
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.PublishEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// Pipeline is the YAML pipeline file: which locations to ingest and which
// Open-Meteo variables to request for each.
type Pipeline struct {
	Locations []domain.Location `yaml:"locations" validate:"required,min=1,dive"`
	API       domain.Query      `yaml:"api"`
}

var validate = validator.New()

// LoadPipeline reads and validates the YAML pipeline file at path.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline config: %w", err)
	}
	return ParsePipeline(data)
}

// ParsePipeline decodes and validates pipeline YAML.
func ParsePipeline(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse pipeline config: %w", err)
	}
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	return &p, nil
}
