package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-forecast-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SnapshotReader looks up stored weather for a location.
type SnapshotReader interface {
	LatestCurrent(ctx context.Context, location string) (domain.Row, error)
	LatestHourly(ctx context.Context, location string) ([]domain.Row, error)
}

// Server exposes health, readiness, metrics, and location read endpoints.
type Server struct {
	httpServer *http.Server
	reader     SnapshotReader
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /locations/{name} routes. A nil reader serves only the operational routes,
// which is how the batch command exposes metrics while it runs.
func NewServer(addr string, ready sharedobs.ReadinessChecker, reader SnapshotReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reader: reader,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	if reader != nil {
		mux.HandleFunc("GET /locations/{name}/current", s.handleCurrent)
		mux.HandleFunc("GET /locations/{name}/hourly", s.handleHourly)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type currentResponse struct {
	Location string     `json:"location"`
	Current  domain.Row `json:"current"`
}

type hourlyResponse struct {
	Location     string       `json:"location"`
	RunTimestamp time.Time    `json:"run_timestamp"`
	Count        int          `json:"count"`
	Rows         []domain.Row `json:"rows"`
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	location := domain.LocationSlug(r.PathValue("name"))

	row, err := s.reader.LatestCurrent(r.Context(), location)
	if err != nil {
		s.writeLookupError(w, location, err)
		return
	}
	writeJSON(w, http.StatusOK, currentResponse{Location: location, Current: row})
}

func (s *Server) handleHourly(w http.ResponseWriter, r *http.Request) {
	location := domain.LocationSlug(r.PathValue("name"))

	rows, err := s.reader.LatestHourly(r.Context(), location)
	if err != nil {
		s.writeLookupError(w, location, err)
		return
	}
	writeJSON(w, http.StatusOK, hourlyResponse{
		Location:     location,
		RunTimestamp: rows[0].RunTimestamp,
		Count:        len(rows),
		Rows:         rows,
	})
}

func (s *Server) writeLookupError(w http.ResponseWriter, location string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error(), "location": location})
		return
	}
	s.logger.Error("location lookup failed", "location", location, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
