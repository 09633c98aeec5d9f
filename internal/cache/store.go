// Package cache is the durable store of raw NeoWs documents: one file per
// fetch window plus one per orbit lookup, written atomically, validated on
// every read, with an append-only failure log alongside.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
	"github.com/couchcryptid/neo-approach-etl/internal/observability"
)

// failureLogName is the append-only log of failed windows in the cache dir.
const failureLogName = "failures.csv"

// Fetcher is the remote side of the store, satisfied by neows.Client.
type Fetcher interface {
	FetchFeed(ctx context.Context, w domain.Window) ([]byte, error)
	FetchOrbit(ctx context.Context, neoID string) ([]byte, error)
}

// Store reads and writes the raw payload cache. A cache entry is either
// entirely absent or holds a payload that passes schema validation; corrupt
// entries are never trusted; each one is logged as a failure and refetched.
type Store struct {
	dir     string
	fetcher Fetcher
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore creates a Store rooted at dir. The directory is created lazily
// on first use.
func NewStore(dir string, fetcher Fetcher, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{dir: dir, fetcher: fetcher, logger: logger, metrics: metrics}
}

// Dir returns the cache root.
func (s *Store) Dir() string {
	return s.dir
}

// EntryPath returns the deterministic cache file path for one feed window.
func (s *Store) EntryPath(w domain.Window) string {
	name := fmt.Sprintf("feed_%s_%s.json",
		w.Start.Format(domain.DateFormat), w.End.Format(domain.DateFormat))
	return filepath.Join(s.dir, name)
}

// OrbitEntryPath returns the cache file path for one orbit lookup.
func (s *Store) OrbitEntryPath(neoID string) string {
	return filepath.Join(s.dir, "neo_"+neoID+".json")
}

// ParseEntryName re-derives the fetch window from a cache file name, for
// diagnostics. Reports ok=false for names that are not feed entries.
func ParseEntryName(name string) (domain.Window, bool) {
	base := strings.TrimSuffix(filepath.Base(name), ".json")
	parts := strings.Split(base, "_")
	if len(parts) != 3 || parts[0] != "feed" {
		return domain.Window{}, false
	}
	start, err := domain.ParseDate(parts[1])
	if err != nil {
		return domain.Window{}, false
	}
	end, err := domain.ParseDate(parts[2])
	if err != nil {
		return domain.Window{}, false
	}
	return domain.Window{Start: start, End: end}, true
}

// GetOrFetch returns the validated payload for one window, reading the
// cache first unless refresh is set. A fetch or validation failure is
// appended to the failure log and returned as an error; callers are
// expected to continue with other windows.
func (s *Store) GetOrFetch(ctx context.Context, w domain.Window, refresh bool) (*domain.FeedPayload, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	path := s.EntryPath(w)
	if !refresh {
		if payload, ok := s.readEntry(w, path); ok {
			s.metrics.WindowsProcessed.WithLabelValues("cache_hit").Inc()
			return payload, nil
		}
	}

	start := time.Now()
	body, err := s.fetcher.FetchFeed(ctx, w)
	var payload *domain.FeedPayload
	if err == nil {
		// A schema-invalid response counts as a fetch failure.
		payload, err = domain.DecodeFeedPayload(body)
	}
	if err != nil {
		s.metrics.WindowsProcessed.WithLabelValues("failed").Inc()
		s.logger.Error("window failed", "window", w.String(), "error", err)
		s.appendFailure(w.Start.Format(domain.DateFormat), w.End.Format(domain.DateFormat), err.Error())
		return nil, err
	}
	s.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err := writeAtomic(path, body); err != nil {
		s.metrics.WindowsProcessed.WithLabelValues("failed").Inc()
		s.appendFailure(w.Start.Format(domain.DateFormat), w.End.Format(domain.DateFormat), err.Error())
		return nil, err
	}

	s.metrics.WindowsProcessed.WithLabelValues("fetched").Inc()
	return payload, nil
}

// readEntry loads and validates a cached window. Corrupt or structurally
// invalid entries are logged as failures and treated as a miss, which
// distinguishes "data is wrong" from "data is absent".
func (s *Store) readEntry(w domain.Window, path string) (*domain.FeedPayload, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.recordBadEntry(w, path, err)
		}
		return nil, false
	}

	payload, err := domain.DecodeFeedPayload(data)
	if err != nil {
		s.recordBadEntry(w, path, err)
		return nil, false
	}
	return payload, true
}

func (s *Store) recordBadEntry(w domain.Window, path string, cause error) {
	s.metrics.CacheCorruption.Inc()
	msg := fmt.Sprintf("invalid cache entry %s: %v", path, cause)
	s.logger.Warn("invalid cache entry, refetching", "path", path, "error", cause)
	s.appendFailure(w.Start.Format(domain.DateFormat), w.End.Format(domain.DateFormat), msg)
}

// GetOrFetchOrbit is the orbit-lookup variant of GetOrFetch: same cache
// discipline, simpler validation (the lookup document only needs to be a
// JSON object).
func (s *Store) GetOrFetchOrbit(ctx context.Context, neoID string, refresh bool) (*domain.OrbitLookup, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	path := s.OrbitEntryPath(neoID)
	if !refresh {
		if data, err := os.ReadFile(path); err == nil {
			var lookup domain.OrbitLookup
			if jerr := json.Unmarshal(data, &lookup); jerr == nil {
				s.metrics.OrbitLookups.WithLabelValues("cache_hit").Inc()
				return &lookup, nil
			}
			s.metrics.CacheCorruption.Inc()
			s.logger.Warn("invalid orbit cache entry, refetching", "path", path)
			s.appendFailure("", "", fmt.Sprintf("invalid orbit cache entry %s", path))
		}
	}

	body, err := s.fetcher.FetchOrbit(ctx, neoID)
	var lookup domain.OrbitLookup
	if err == nil {
		err = json.Unmarshal(body, &lookup)
	}
	if err != nil {
		s.metrics.OrbitLookups.WithLabelValues("failed").Inc()
		s.logger.Error("orbit lookup failed", "neo_id", neoID, "error", err)
		s.appendFailure("", "", fmt.Sprintf("orbit %s: %v", neoID, err))
		return nil, err
	}

	if err := writeAtomic(path, body); err != nil {
		s.metrics.OrbitLookups.WithLabelValues("failed").Inc()
		s.appendFailure("", "", err.Error())
		return nil, err
	}

	s.metrics.OrbitLookups.WithLabelValues("fetched").Inc()
	return &lookup, nil
}

// writeAtomic writes data to a temporary file and renames it into place, so
// a concurrent reader never observes a partially written entry.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cache entry: %w", err)
	}
	return nil
}
