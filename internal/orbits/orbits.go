// Package orbits enriches the built dataset with per-object orbital
// elements from the NeoWs lookup endpoint. Lookups go through the raw
// cache, so a rerun over the same objects makes no network calls.
package orbits

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
	"github.com/couchcryptid/neo-approach-etl/internal/observability"
)

// LookupStore is the slice of the raw cache the enricher needs.
type LookupStore interface {
	GetOrFetchOrbit(ctx context.Context, neoID string, refresh bool) (*domain.OrbitLookup, error)
}

type Enricher struct {
	store   LookupStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewEnricher(store LookupStore, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{store: store, logger: logger, metrics: metrics}
}

// Enrich looks up orbital data for every object, preserving input order.
// A failed lookup skips that object rather than failing the run; the
// returned error is non-nil only when the context is cancelled.
func (e *Enricher) Enrich(ctx context.Context, objects []domain.ObjectRow, refresh bool) ([]domain.OrbitRow, error) {
	rows := make([]domain.OrbitRow, 0, len(objects))
	var failed int
	for _, obj := range objects {
		select {
		case <-ctx.Done():
			return rows, ctx.Err()
		default:
		}

		lookup, err := e.store.GetOrFetchOrbit(ctx, obj.ID, refresh)
		if err != nil {
			failed++
			e.metrics.OrbitLookups.WithLabelValues("failed").Inc()
			e.logger.Warn("orbit lookup failed", "id", obj.ID, "error", err)
			continue
		}
		e.metrics.OrbitLookups.WithLabelValues("ok").Inc()
		rows = append(rows, orbitRow(obj.ID, lookup.OrbitalData))
	}

	e.logger.Info("orbit enrichment complete",
		"objects", len(objects), "enriched", len(rows), "failed", failed)
	return rows, nil
}

// orbitRow flattens a lookup into the orbit table schema. A lookup without
// orbital data still yields a row, keyed by id with every element null.
func orbitRow(id string, od *domain.OrbitData) domain.OrbitRow {
	row := domain.OrbitRow{ID: id}
	if od == nil {
		return row
	}
	row.OrbitID = od.OrbitID
	if oc := od.OrbitClass; oc != nil {
		row.OrbitClassName = oc.Name
		row.OrbitClassType = oc.Type
		row.OrbitClassDescription = oc.Description
	}
	row.SemiMajorAxis = od.SemiMajorAxis
	row.Eccentricity = od.Eccentricity
	row.Inclination = od.Inclination
	row.PerihelionDistance = od.PerihelionDistance
	row.AphelionDistance = od.AphelionDistance
	row.MinimumOrbitIntersection = od.MinimumOrbitIntersection
	row.OrbitalPeriod = od.OrbitalPeriod
	row.MeanAnomaly = od.MeanAnomaly
	row.AscendingNodeLongitude = od.AscendingNodeLongitude
	row.PerihelionArgument = od.PerihelionArgument
	return row
}
