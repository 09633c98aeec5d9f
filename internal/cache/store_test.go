package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
	"github.com/couchcryptid/neo-approach-etl/internal/observability"
)

const validFeedJSON = `{"near_earth_objects": {"2026-01-01": [{"id": "2001"}]}}`

type fakeFetcher struct {
	feedFunc   func(ctx context.Context, w domain.Window) ([]byte, error)
	orbitFunc  func(ctx context.Context, neoID string) ([]byte, error)
	feedCalls  int
	orbitCalls int
}

func (f *fakeFetcher) FetchFeed(ctx context.Context, w domain.Window) ([]byte, error) {
	f.feedCalls++
	if f.feedFunc == nil {
		return []byte(validFeedJSON), nil
	}
	return f.feedFunc(ctx, w)
}

func (f *fakeFetcher) FetchOrbit(ctx context.Context, neoID string) ([]byte, error) {
	f.orbitCalls++
	if f.orbitFunc == nil {
		return []byte(`{"id":"` + neoID + `"}`), nil
	}
	return f.orbitFunc(ctx, neoID)
}

func testStore(t *testing.T, fetcher *fakeFetcher) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(t.TempDir(), fetcher, logger, observability.NewMetricsForTesting())
}

func testWindow() domain.Window {
	return domain.NewWindow(
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC),
	)
}

func TestGetOrFetch_RoundTrip(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := testStore(t, fetcher)
	w := testWindow()

	first, err := s.GetOrFetch(context.Background(), w, false)
	require.NoError(t, err)
	require.Equal(t, 1, fetcher.feedCalls)

	// Second read must be served from the cache and decode identically.
	second, err := s.GetOrFetch(context.Background(), w, false)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.feedCalls, "cache hit must not refetch")
	assert.Equal(t, first, second)

	failures, err := ReadFailures(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestGetOrFetch_RefreshForcesFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := testStore(t, fetcher)
	w := testWindow()

	_, err := s.GetOrFetch(context.Background(), w, false)
	require.NoError(t, err)
	_, err = s.GetOrFetch(context.Background(), w, true)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.feedCalls)
}

func TestGetOrFetch_BadCacheEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"corrupt JSON", `"{bad json`},
		{"valid JSON wrong schema", `{"foo": "bar"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			s := testStore(t, fetcher)
			w := testWindow()

			require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
			require.NoError(t, os.WriteFile(s.EntryPath(w), []byte(tt.content), 0o644))

			payload, err := s.GetOrFetch(context.Background(), w, false)
			require.NoError(t, err)
			require.NotNil(t, payload)

			// Exactly one re-fetch and one failure row.
			assert.Equal(t, 1, fetcher.feedCalls)
			failures, err := ReadFailures(s.Dir())
			require.NoError(t, err)
			require.Len(t, failures, 1)
			assert.Equal(t, "2026-01-01", failures[0].StartDate)
			assert.Equal(t, "2026-01-07", failures[0].EndDate)
			assert.Contains(t, failures[0].Error, "invalid cache entry")

			// The bad entry was replaced by the refetched payload.
			data, err := os.ReadFile(s.EntryPath(w))
			require.NoError(t, err)
			assert.JSONEq(t, validFeedJSON, string(data))
		})
	}
}

func TestGetOrFetch_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		feedFunc: func(context.Context, domain.Window) ([]byte, error) {
			return nil, errors.New("API error 503: unavailable")
		},
	}
	s := testStore(t, fetcher)
	w := testWindow()

	payload, err := s.GetOrFetch(context.Background(), w, false)
	require.Error(t, err)
	assert.Nil(t, payload)

	failures, ferr := ReadFailures(s.Dir())
	require.NoError(t, ferr)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Error, "503")

	_, statErr := os.Stat(s.EntryPath(w))
	assert.True(t, os.IsNotExist(statErr), "failed window must not leave a cache entry")
}

func TestGetOrFetch_InvalidFetchedPayloadIsFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		feedFunc: func(context.Context, domain.Window) ([]byte, error) {
			return []byte(`{"unexpected": true}`), nil
		},
	}
	s := testStore(t, fetcher)

	payload, err := s.GetOrFetch(context.Background(), testWindow(), false)
	require.Error(t, err)
	assert.Nil(t, payload)

	var schemaErr *domain.SchemaError
	assert.ErrorAs(t, err, &schemaErr)

	failures, ferr := ReadFailures(s.Dir())
	require.NoError(t, ferr)
	require.Len(t, failures, 1)
}

func TestGetOrFetch_NoPartialFiles(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := testStore(t, fetcher)

	_, err := s.GetOrFetch(context.Background(), testWindow(), false)
	require.NoError(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "no temporary file may remain at rest")
	}
}

func TestParseEntryName(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		s := testStore(t, &fakeFetcher{})
		w := testWindow()
		parsed, ok := ParseEntryName(filepath.Base(s.EntryPath(w)))
		require.True(t, ok)
		assert.Equal(t, w, parsed)
	})

	t.Run("rejects foreign names", func(t *testing.T) {
		for _, name := range []string{"failures.csv", "neo_3542519.json", "feed_x_y.json", "feed_2026-01-01.json"} {
			_, ok := ParseEntryName(name)
			assert.False(t, ok, name)
		}
	})
}

func TestGetOrFetchOrbit(t *testing.T) {
	t.Run("caches lookups", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		s := testStore(t, fetcher)

		first, err := s.GetOrFetchOrbit(context.Background(), "3542519", false)
		require.NoError(t, err)
		assert.Equal(t, "3542519", first.ID)

		_, err = s.GetOrFetchOrbit(context.Background(), "3542519", false)
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.orbitCalls)
	})

	t.Run("corrupt entry refetches", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		s := testStore(t, fetcher)
		require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
		require.NoError(t, os.WriteFile(s.OrbitEntryPath("3542519"), []byte("{nope"), 0o644))

		lookup, err := s.GetOrFetchOrbit(context.Background(), "3542519", false)
		require.NoError(t, err)
		assert.Equal(t, "3542519", lookup.ID)
		assert.Equal(t, 1, fetcher.orbitCalls)

		failures, err := ReadFailures(s.Dir())
		require.NoError(t, err)
		require.Len(t, failures, 1)
		assert.Empty(t, failures[0].StartDate)
	})

	t.Run("fetch failure", func(t *testing.T) {
		fetcher := &fakeFetcher{
			orbitFunc: func(context.Context, string) ([]byte, error) {
				return nil, errors.New("API error 404: not found")
			},
		}
		s := testStore(t, fetcher)

		_, err := s.GetOrFetchOrbit(context.Background(), "999", false)
		require.Error(t, err)

		failures, ferr := ReadFailures(s.Dir())
		require.NoError(t, ferr)
		require.Len(t, failures, 1)
		assert.Contains(t, failures[0].Error, "orbit 999")
	})
}
