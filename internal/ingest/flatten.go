package ingest

import (
	"strings"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

// OrbitFilterAll is the sentinel that disables orbiting-body filtering,
// matched case-insensitively.
const OrbitFilterAll = "all"

// Flatten walks every cached payload date bucket, object record, and
// close-approach entry and emits one flat row per (object, approach) pair.
// Failed windows (nil payloads) are skipped. Records or approach entries
// that are not JSON objects at all are dropped; everything else degrades
// field by field to nulls, so the row shape is always the same.
func Flatten(results []ChunkResult, orbitFilter string) []domain.FlatApproach {
	includeAll := strings.EqualFold(orbitFilter, OrbitFilterAll)

	var rows []domain.FlatApproach
	for _, res := range results {
		if res.Payload == nil {
			continue
		}
		for _, date := range res.Payload.SortedDates() {
			for _, rawRec := range res.Payload.NearEarthObjects[date] {
				rec, ok := domain.DecodeNeoRecord(rawRec)
				if !ok {
					continue
				}
				rows = append(rows, flattenRecord(rec, orbitFilter, includeAll)...)
			}
		}
	}
	return rows
}

func flattenRecord(rec domain.NeoRecord, orbitFilter string, includeAll bool) []domain.FlatApproach {
	var km, m domain.DiameterRange
	if rec.EstimatedDiameter != nil {
		if rec.EstimatedDiameter.Kilometers != nil {
			km = *rec.EstimatedDiameter.Kilometers
		}
		if rec.EstimatedDiameter.Meters != nil {
			m = *rec.EstimatedDiameter.Meters
		}
	}

	var rows []domain.FlatApproach
	for _, rawCA := range rec.CloseApproachData {
		ca, ok := domain.DecodeCloseApproach(rawCA)
		if !ok {
			continue
		}
		if !includeAll && ca.OrbitingBody != orbitFilter {
			continue
		}

		var vel domain.RelativeVelocity
		if ca.RelativeVelocity != nil {
			vel = *ca.RelativeVelocity
		}
		var miss domain.MissDistance
		if ca.MissDistance != nil {
			miss = *ca.MissDistance
		}

		rows = append(rows, domain.FlatApproach{
			Date:                     ca.CloseApproachDate,
			ID:                       rec.ID,
			NeoReferenceID:           rec.NeoReferenceID,
			Name:                     rec.Name,
			NasaJplURL:               rec.NasaJplURL,
			AbsoluteMagnitudeH:       rec.AbsoluteMagnitudeH,
			Hazardous:                rec.Hazardous,
			Sentry:                   rec.Sentry,
			DiameterKmMin:            km.Min,
			DiameterKmMax:            km.Max,
			DiameterMMin:             m.Min,
			DiameterMMax:             m.Max,
			CloseApproachDate:        ca.CloseApproachDate,
			CloseApproachDateFull:    ca.CloseApproachDateFull,
			EpochDateCloseApproach:   ca.EpochDateCloseApproach,
			VelocityKmS:              vel.KilometersPerSecond,
			VelocityKmH:              vel.KilometersPerHour,
			VelocityMph:              vel.MilesPerHour,
			MissDistanceAstronomical: miss.Astronomical,
			MissDistanceLunar:        miss.Lunar,
			MissDistanceKm:           miss.Kilometers,
			MissDistanceMiles:        miss.Miles,
			OrbitingBody:             ca.OrbitingBody,
		})
	}
	return rows
}
