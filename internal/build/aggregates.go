package build

import (
	"sort"
	"time"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
	"github.com/couchcryptid/neo-approach-etl/internal/features"
)

const topN = 50

// Top-N metric tags. Each metric contributes up to topN rows per orbiting
// body; rows with a null metric value are skipped.
const (
	MetricClosestMiss     = "closest_miss"
	MetricLargestDiameter = "largest_diameter"
	MetricFastestVelocity = "fastest_velocity"
	MetricHighestEnergy   = "highest_energy"
)

// ComputeAggregates derives the three aggregate families from the built
// tables: monthly approach counts, hazard rate by size bin, and top-N
// standouts per metric. Output ordering is deterministic.
func ComputeAggregates(approaches []domain.ApproachRow, objects []domain.ObjectRow) []domain.AggregateRow {
	enriched := features.Enrich(join(approaches, objects))

	out := monthlyCounts(enriched)
	out = append(out, hazardRateBySize(enriched)...)
	out = append(out, topStandouts(enriched)...)
	return out
}

func join(approaches []domain.ApproachRow, objects []domain.ObjectRow) []features.JoinedApproach {
	byID := make(map[string]domain.ObjectRow, len(objects))
	for _, obj := range objects {
		byID[obj.ID] = obj
	}

	joined := make([]features.JoinedApproach, 0, len(approaches))
	for _, ar := range approaches {
		ja := features.JoinedApproach{ApproachRow: ar}
		if obj, ok := byID[ar.ID]; ok {
			ja.Name = obj.Name
			ja.DiameterMidKm = obj.DiameterMidKm
			ja.DiameterMidM = obj.DiameterMidM
		}
		joined = append(joined, ja)
	}
	return joined
}

type monthKey struct {
	body      string
	hazardous bool
	dated     bool
	month     time.Time
}

// monthlyCounts buckets approaches by orbiting body, hazard flag, and
// calendar month. Approaches without a parseable date keep their own
// null-month bucket, sorted after the dated months for the same body
// and hazard flag.
func monthlyCounts(rows []features.EnrichedApproach) []domain.AggregateRow {
	counts := make(map[monthKey]int)
	for _, r := range rows {
		key := monthKey{
			body:      r.OrbitingBody,
			hazardous: r.Hazardous,
		}
		if r.CloseApproachDate.Valid {
			d := r.CloseApproachDate.Value
			key.dated = true
			key.month = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		counts[key]++
	}

	keys := make([]monthKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].body != keys[j].body {
			return keys[i].body < keys[j].body
		}
		if keys[i].hazardous != keys[j].hazardous {
			return !keys[i].hazardous
		}
		if keys[i].dated != keys[j].dated {
			return keys[i].dated
		}
		return keys[i].month.Before(keys[j].month)
	})

	out := make([]domain.AggregateRow, 0, len(keys))
	for _, k := range keys {
		row := domain.AggregateRow{
			AggregateType: domain.AggregateMonthlyCounts,
			OrbitingBody:  k.body,
			Hazardous:     domain.NewBool(k.hazardous),
			Count:         domain.NewFloat(float64(counts[k])),
		}
		if k.dated {
			row.Month = domain.NewDate(k.month)
		}
		out = append(out, row)
	}
	return out
}

type sizeKey struct {
	body string
	bin  string
}

// hazardRateBySize tallies approaches per (orbiting body, size bin) and the
// share of those flagged hazardous. Approaches whose object has no usable
// diameter fall in an unlabeled trailing bucket.
func hazardRateBySize(rows []features.EnrichedApproach) []domain.AggregateRow {
	type tally struct {
		total     int
		hazardous int
	}
	tallies := make(map[sizeKey]*tally)
	bodies := make(map[string]struct{})
	for _, r := range rows {
		key := sizeKey{body: r.OrbitingBody, bin: r.SizeBinM}
		t, ok := tallies[key]
		if !ok {
			t = &tally{}
			tallies[key] = t
		}
		t.total++
		if r.Hazardous {
			t.hazardous++
		}
		bodies[r.OrbitingBody] = struct{}{}
	}

	sortedBodies := make([]string, 0, len(bodies))
	for b := range bodies {
		sortedBodies = append(sortedBodies, b)
	}
	sort.Strings(sortedBodies)

	binOrder := append(features.SizeBinLabels(), "")

	var out []domain.AggregateRow
	for _, body := range sortedBodies {
		for _, bin := range binOrder {
			t, ok := tallies[sizeKey{body: body, bin: bin}]
			if !ok {
				continue
			}
			out = append(out, domain.AggregateRow{
				AggregateType:  domain.AggregateHazardRateSize,
				OrbitingBody:   body,
				SizeBinM:       bin,
				Total:          domain.NewFloat(float64(t.total)),
				HazardousTotal: domain.NewFloat(float64(t.hazardous)),
				HazardRate:     domain.NewFloat(float64(t.hazardous) / float64(t.total)),
			})
		}
	}
	return out
}

// topStandouts emits the top rows per orbiting body for each metric, in a
// stable order so reruns produce identical tables.
func topStandouts(rows []features.EnrichedApproach) []domain.AggregateRow {
	byBody := make(map[string][]features.EnrichedApproach)
	bodies := make([]string, 0)
	for _, r := range rows {
		if _, ok := byBody[r.OrbitingBody]; !ok {
			bodies = append(bodies, r.OrbitingBody)
		}
		byBody[r.OrbitingBody] = append(byBody[r.OrbitingBody], r)
	}
	sort.Strings(bodies)

	metrics := []struct {
		name      string
		value     func(features.EnrichedApproach) domain.Float
		ascending bool
	}{
		{MetricClosestMiss, func(r features.EnrichedApproach) domain.Float { return r.MissDistanceKm }, true},
		{MetricLargestDiameter, func(r features.EnrichedApproach) domain.Float { return r.DiameterMidKm }, false},
		{MetricFastestVelocity, func(r features.EnrichedApproach) domain.Float { return r.VelocityKmS }, false},
		{MetricHighestEnergy, func(r features.EnrichedApproach) domain.Float { return r.EnergyProxy }, false},
	}

	var out []domain.AggregateRow
	for _, body := range bodies {
		for _, m := range metrics {
			ranked := make([]features.EnrichedApproach, 0, len(byBody[body]))
			for _, r := range byBody[body] {
				if m.value(r).Valid {
					ranked = append(ranked, r)
				}
			}
			sort.SliceStable(ranked, func(i, j int) bool {
				vi, vj := m.value(ranked[i]).Value, m.value(ranked[j]).Value
				if m.ascending {
					return vi < vj
				}
				return vi > vj
			})
			if len(ranked) > topN {
				ranked = ranked[:topN]
			}
			for _, r := range ranked {
				out = append(out, domain.AggregateRow{
					AggregateType:     domain.AggregateTopN,
					OrbitingBody:      body,
					Metric:            m.name,
					ID:                r.ID,
					Name:              r.Name,
					CloseApproachDate: r.CloseApproachDate,
					MissDistanceKm:    r.MissDistanceKm,
					VelocityKmS:       r.VelocityKmS,
					DiameterMidKm:     r.DiameterMidKm,
					EnergyProxy:       r.EnergyProxy,
				})
			}
		}
	}
	return out
}
