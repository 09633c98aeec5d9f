package orbits

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
	"github.com/couchcryptid/neo-approach-etl/internal/observability"
)

type fakeLookupStore struct {
	lookups map[string]*domain.OrbitLookup
	failOn  map[string]error
	calls   int
}

func (f *fakeLookupStore) GetOrFetchOrbit(_ context.Context, neoID string, _ bool) (*domain.OrbitLookup, error) {
	f.calls++
	if err, ok := f.failOn[neoID]; ok {
		return nil, err
	}
	if l, ok := f.lookups[neoID]; ok {
		return l, nil
	}
	return &domain.OrbitLookup{ID: neoID}, nil
}

func newTestEnricher(store LookupStore) *Enricher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEnricher(store, logger, observability.NewMetricsForTesting())
}

func TestEnrich(t *testing.T) {
	store := &fakeLookupStore{
		lookups: map[string]*domain.OrbitLookup{
			"3001": {
				ID: "3001",
				OrbitalData: &domain.OrbitData{
					OrbitID:                  "42",
					OrbitClass:               &domain.OrbitClass{Name: "Apollo", Type: "APO"},
					Eccentricity:             domain.NewFloat(0.42),
					MinimumOrbitIntersection: domain.NewFloat(0.003),
				},
			},
		},
	}

	objects := []domain.ObjectRow{{ID: "3001"}, {ID: "3002"}}
	rows, err := newTestEnricher(store).Enrich(context.Background(), objects, false)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "3001", rows[0].ID)
	assert.Equal(t, "42", rows[0].OrbitID)
	assert.Equal(t, "Apollo", rows[0].OrbitClassName)
	assert.Equal(t, domain.NewFloat(0.42), rows[0].Eccentricity)
	assert.Equal(t, domain.NewFloat(0.003), rows[0].MinimumOrbitIntersection)

	// Lookup without orbital data still produces a keyed row.
	assert.Equal(t, "3002", rows[1].ID)
	assert.Empty(t, rows[1].OrbitID)
	assert.False(t, rows[1].Eccentricity.Valid)
}

func TestEnrichSkipsFailedLookups(t *testing.T) {
	store := &fakeLookupStore{
		failOn: map[string]error{"3002": errors.New("boom")},
	}

	objects := []domain.ObjectRow{{ID: "3001"}, {ID: "3002"}, {ID: "3003"}}
	rows, err := newTestEnricher(store).Enrich(context.Background(), objects, false)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "3001", rows[0].ID)
	assert.Equal(t, "3003", rows[1].ID)
	assert.Equal(t, 3, store.calls)
}

func TestEnrichCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeLookupStore{}
	rows, err := newTestEnricher(store).Enrich(ctx, []domain.ObjectRow{{ID: "3001"}}, false)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rows)
	assert.Zero(t, store.calls)
}
