// Package httpserve exposes the processed dataset over HTTP alongside the
// usual health, readiness, and metrics endpoints.
package httpserve

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

const defaultRowLimit = 100

// DatasetReader is the slice of the processed store the API serves from.
// Tables are re-read per request, so a rebuild shows up without a restart.
type DatasetReader interface {
	ReadMetadata() (domain.RunMetadata, error)
	ReadObjects() ([]domain.ObjectRow, error)
	ReadApproaches() ([]domain.ApproachRow, error)
	ReadAggregates() ([]domain.AggregateRow, error)
	ReadOrbits() ([]domain.OrbitRow, error)
}

// Server exposes the dataset API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	reader     DatasetReader
	logger     *slog.Logger
}

func NewServer(addr string, reader DatasetReader, logger *slog.Logger) *Server {
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

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/metadata", s.handleMetadata)
	mux.HandleFunc("GET /api/objects", listHandler(s, DatasetReader.ReadObjects))
	mux.HandleFunc("GET /api/approaches", listHandler(s, DatasetReader.ReadApproaches))
	mux.HandleFunc("GET /api/aggregates", listHandler(s, DatasetReader.ReadAggregates))
	mux.HandleFunc("GET /api/orbits", listHandler(s, DatasetReader.ReadOrbits))

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once a built dataset is on disk.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if _, err := s.reader.ReadMetadata(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "no processed dataset available",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetadata(w http.ResponseWriter, _ *http.Request) {
	md, err := s.reader.ReadMetadata()
	if err != nil {
		s.serveError(w, "reading metadata", err)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

// listHandler serves one table with an optional ?limit= cap on rows.
func listHandler[T any](s *Server, read func(DatasetReader) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := read(s.reader)
		if err != nil {
			s.serveError(w, "reading table", err)
			return
		}

		limit := defaultRowLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
				return
			}
			limit = n
		}
		if limit < len(rows) {
			rows = rows[:limit]
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"count": len(rows),
			"rows":  rows,
		})
	}
}

func (s *Server) serveError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dataset unavailable"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
