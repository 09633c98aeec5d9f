package build

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

func approach(id, date, body string, hazardous bool, missKm, velKmS float64) domain.ApproachRow {
	return domain.ApproachRow{
		ApproachID:        id + "_" + date,
		ID:                id,
		CloseApproachDate: domain.ParseFlexibleDate(date),
		MissDistanceKm:    domain.NewFloat(missKm),
		VelocityKmS:       domain.NewFloat(velKmS),
		OrbitingBody:      body,
		Hazardous:         hazardous,
	}
}

func object(id, name string, midKm, midM float64) domain.ObjectRow {
	return domain.ObjectRow{
		ID:            id,
		Name:          name,
		DiameterMidKm: domain.NewFloat(midKm),
		DiameterMidM:  domain.NewFloat(midM),
	}
}

func byType(rows []domain.AggregateRow, aggType string) []domain.AggregateRow {
	var out []domain.AggregateRow
	for _, r := range rows {
		if r.AggregateType == aggType {
			out = append(out, r)
		}
	}
	return out
}

func TestMonthlyCounts(t *testing.T) {
	approaches := []domain.ApproachRow{
		approach("1", "2026-01-05", "Earth", false, 1e6, 10),
		approach("2", "2026-01-20", "Earth", false, 2e6, 11),
		approach("3", "2026-02-01", "Earth", true, 3e6, 12),
		approach("4", "2026-01-10", "Merc", false, 4e6, 13),
		approach("5", "", "Earth", false, 5e6, 14),
	}
	objects := []domain.ObjectRow{
		object("1", "a", 0.1, 100), object("2", "b", 0.2, 200),
		object("3", "c", 0.3, 300), object("4", "d", 0.4, 400),
		object("5", "e", 0.5, 500),
	}

	rows := byType(ComputeAggregates(approaches, objects), domain.AggregateMonthlyCounts)
	require.Len(t, rows, 4)

	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Earth", rows[0].OrbitingBody)
	assert.Equal(t, domain.NewBool(false), rows[0].Hazardous)
	assert.Equal(t, domain.NewDate(jan), rows[0].Month)
	assert.Equal(t, domain.NewFloat(2), rows[0].Count)

	assert.Equal(t, "Earth", rows[1].OrbitingBody)
	assert.Equal(t, domain.NewBool(false), rows[1].Hazardous)
	assert.False(t, rows[1].Month.Valid, "undated approaches keep a null-month bucket after the dated months")
	assert.Equal(t, domain.NewFloat(1), rows[1].Count)

	assert.Equal(t, domain.NewBool(true), rows[2].Hazardous)
	assert.Equal(t, domain.NewDate(feb), rows[2].Month)
	assert.Equal(t, domain.NewFloat(1), rows[2].Count)

	assert.Equal(t, "Merc", rows[3].OrbitingBody)
}

func TestHazardRateBySize(t *testing.T) {
	approaches := []domain.ApproachRow{
		approach("1", "2026-01-05", "Earth", true, 1e6, 10),
		approach("2", "2026-01-06", "Earth", false, 2e6, 11),
		approach("3", "2026-01-07", "Earth", false, 3e6, 12),
	}
	objects := []domain.ObjectRow{
		object("1", "a", 0.1, 100),
		object("2", "b", 0.12, 120),
		{ID: "3", Name: "c"}, // no diameter
	}

	rows := byType(ComputeAggregates(approaches, objects), domain.AggregateHazardRateSize)
	require.Len(t, rows, 2)

	assert.Equal(t, "50-140m", rows[0].SizeBinM)
	assert.Equal(t, domain.NewFloat(2), rows[0].Total)
	assert.Equal(t, domain.NewFloat(1), rows[0].HazardousTotal)
	assert.Equal(t, domain.NewFloat(0.5), rows[0].HazardRate)

	assert.Equal(t, "", rows[1].SizeBinM, "unbinned bucket sorts last")
	assert.Equal(t, domain.NewFloat(1), rows[1].Total)
	assert.Equal(t, domain.NewFloat(0), rows[1].HazardousTotal)
}

func TestTopStandouts(t *testing.T) {
	approaches := []domain.ApproachRow{
		approach("1", "2026-01-05", "Earth", false, 3e6, 30),
		approach("2", "2026-01-06", "Earth", false, 1e6, 10),
		approach("3", "2026-01-07", "Earth", false, 2e6, 20),
	}
	objects := []domain.ObjectRow{
		object("1", "a", 0.1, 100),
		object("2", "b", 0.3, 300),
		object("3", "c", 0.2, 200),
	}

	rows := byType(ComputeAggregates(approaches, objects), domain.AggregateTopN)
	require.Len(t, rows, 12, "3 rows per metric, 4 metrics")

	closest := rows[:3]
	assert.Equal(t, MetricClosestMiss, closest[0].Metric)
	assert.Equal(t, []string{"2", "3", "1"},
		[]string{closest[0].ID, closest[1].ID, closest[2].ID}, "ascending miss distance")

	largest := rows[3:6]
	assert.Equal(t, MetricLargestDiameter, largest[0].Metric)
	assert.Equal(t, "2", largest[0].ID)

	fastest := rows[6:9]
	assert.Equal(t, MetricFastestVelocity, fastest[0].Metric)
	assert.Equal(t, "1", fastest[0].ID)

	energy := rows[9:]
	assert.Equal(t, MetricHighestEnergy, energy[0].Metric)
	require.True(t, energy[0].EnergyProxy.Valid)
}

func TestTopStandoutsSkipsNullMetric(t *testing.T) {
	a := approach("1", "2026-01-05", "Earth", false, 1e6, 10)
	b := approach("2", "2026-01-06", "Earth", false, 2e6, 20)
	b.MissDistanceKm = domain.Float{}
	objects := []domain.ObjectRow{object("1", "a", 0.1, 100), object("2", "b", 0.2, 200)}

	rows := byType(ComputeAggregates([]domain.ApproachRow{a, b}, objects), domain.AggregateTopN)

	var closest []domain.AggregateRow
	for _, r := range rows {
		if r.Metric == MetricClosestMiss {
			closest = append(closest, r)
		}
	}
	require.Len(t, closest, 1)
	assert.Equal(t, "1", closest[0].ID)
}

func TestComputeAggregatesDeterministic(t *testing.T) {
	approaches := []domain.ApproachRow{
		approach("1", "2026-01-05", "Earth", true, 1e6, 10),
		approach("2", "2026-03-06", "Merc", false, 2e6, 20),
		approach("3", "2026-02-07", "Earth", false, 3e6, 30),
	}
	objects := []domain.ObjectRow{
		object("1", "a", 0.1, 100),
		object("2", "b", 0.2, 200),
		object("3", "c", 0.3, 300),
	}

	assert.Equal(t,
		ComputeAggregates(approaches, objects),
		ComputeAggregates(approaches, objects))
}
