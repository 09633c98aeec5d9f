package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
	"github.com/couchcryptid/neo-approach-etl/internal/observability"
)

type fakeStore struct {
	failOn  map[string]bool
	calls   []domain.Window
	payload func(w domain.Window) *domain.FeedPayload
}

func (f *fakeStore) GetOrFetch(_ context.Context, w domain.Window, _ bool) (*domain.FeedPayload, error) {
	f.calls = append(f.calls, w)
	if f.failOn[w.String()] {
		return nil, errors.New("window failed")
	}
	if f.payload != nil {
		return f.payload(w), nil
	}
	return &domain.FeedPayload{}, nil
}

func testOrchestrator(store *fakeStore, days int) *Orchestrator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrchestrator(store, days, logger, observability.NewMetricsForTesting())
}

func TestOrchestratorRun(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	t.Run("visits windows in range order", func(t *testing.T) {
		store := &fakeStore{}
		results, err := testOrchestrator(store, 7).Run(context.Background(), start, end, false)

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "2026-01-01..2026-01-07", results[0].Window.String())
		assert.Equal(t, "2026-01-08..2026-01-14", results[1].Window.String())
		assert.Equal(t, "2026-01-15..2026-01-20", results[2].Window.String())
		assert.Equal(t, results[0].Window, store.calls[0])
	})

	t.Run("failed window does not stop the run", func(t *testing.T) {
		store := &fakeStore{failOn: map[string]bool{"2026-01-08..2026-01-14": true}}
		results, err := testOrchestrator(store, 7).Run(context.Background(), start, end, false)

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.NotNil(t, results[0].Payload)
		assert.Nil(t, results[1].Payload, "failed window must yield a nil payload")
		assert.NotNil(t, results[2].Payload)
	})

	t.Run("cancellation stops between windows", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		store := &fakeStore{}
		results, err := testOrchestrator(store, 7).Run(ctx, start, end, false)

		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, results)
	})
}

func feedPayload(t *testing.T, raw string) *domain.FeedPayload {
	t.Helper()
	p, err := domain.DecodeFeedPayload([]byte(raw))
	require.NoError(t, err)
	return p
}

const flattenFixture = `{"near_earth_objects": {
	"2026-01-02": [
		{
			"id": "2002",
			"name": "(2002 XY)",
			"close_approach_data": [
				{"close_approach_date": "2026-01-02", "orbiting_body": "Earth",
				 "epoch_date_close_approach": 1767349980000,
				 "relative_velocity": {"kilometers_per_second": "8.77"},
				 "miss_distance": {"kilometers": "1000000.5"}},
				{"close_approach_date": "2026-01-02", "orbiting_body": "Merc"}
			]
		}
	],
	"2026-01-01": [
		{
			"id": "2001",
			"neo_reference_id": "2001",
			"name": "(2001 AB)",
			"nasa_jpl_url": "http://example/2001",
			"absolute_magnitude_h": 21.5,
			"is_potentially_hazardous_asteroid": true,
			"estimated_diameter": {
				"kilometers": {"estimated_diameter_min": 0.1, "estimated_diameter_max": 0.3},
				"meters": {"estimated_diameter_min": 100, "estimated_diameter_max": 300}
			},
			"close_approach_data": [
				{"close_approach_date": "2026-01-01", "orbiting_body": "Earth",
				 "relative_velocity": {"kilometers_per_second": "14.01", "kilometers_per_hour": "50447"},
				 "miss_distance": {"astronomical": "0.31", "lunar": "122.5", "kilometers": "47112732.9", "miles": "29274496.4"}}
			]
		},
		"not an object",
		{"id": "2003", "name": "no approaches"}
	]
}}`

func TestFlatten(t *testing.T) {
	results := []ChunkResult{
		{Window: domain.NewWindow(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC))},
	}
	results[0].Payload = feedPayload(t, flattenFixture)

	t.Run("one row per (object, approach), dates sorted", func(t *testing.T) {
		rows := Flatten(results, OrbitFilterAll)

		require.Len(t, rows, 3)
		assert.Equal(t, "2001", rows[0].ID)
		assert.Equal(t, "2002", rows[1].ID)
		assert.Equal(t, "Merc", rows[2].OrbitingBody)
	})

	t.Run("static fields combined with per-event fields", func(t *testing.T) {
		rows := Flatten(results, OrbitFilterAll)

		first := rows[0]
		assert.Equal(t, "(2001 AB)", first.Name)
		assert.Equal(t, domain.NewFloat(21.5), first.AbsoluteMagnitudeH)
		assert.True(t, first.Hazardous.OrFalse())
		assert.Equal(t, domain.NewFloat(0.1), first.DiameterKmMin)
		assert.Equal(t, domain.NewFloat(300), first.DiameterMMax)
		assert.Equal(t, domain.NewFloat(14.01), first.VelocityKmS)
		assert.Equal(t, domain.NewFloat(47112732.9), first.MissDistanceKm)
		assert.Equal(t, "2026-01-01", first.Date)
	})

	t.Run("orbit filter", func(t *testing.T) {
		rows := Flatten(results, "Earth")
		require.Len(t, rows, 2)
		for _, r := range rows {
			assert.Equal(t, "Earth", r.OrbitingBody)
		}

		assert.Len(t, Flatten(results, "Merc"), 1)
		assert.Len(t, Flatten(results, "ALL"), 3, "all sentinel is case-insensitive")
	})

	t.Run("missing nested structures yield null fields, same shape", func(t *testing.T) {
		rows := Flatten(results, "Merc")
		require.Len(t, rows, 1)

		r := rows[0]
		assert.False(t, r.VelocityKmS.Valid)
		assert.False(t, r.MissDistanceKm.Valid)
		assert.False(t, r.EpochDateCloseApproach.Valid)
		assert.Equal(t, "2002", r.ID)
	})

	t.Run("nil payloads are skipped", func(t *testing.T) {
		withFailure := append([]ChunkResult{{Window: results[0].Window, Payload: nil}}, results...)
		rows := Flatten(withFailure, OrbitFilterAll)
		assert.Len(t, rows, 3)
	})

	t.Run("deterministic output", func(t *testing.T) {
		assert.Equal(t, Flatten(results, OrbitFilterAll), Flatten(results, OrbitFilterAll))
	})
}
