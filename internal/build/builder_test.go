package build

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func flatRow(id string, epochMS float64) domain.FlatApproach {
	return domain.FlatApproach{
		Date:                   "2026-01-01",
		ID:                     id,
		NeoReferenceID:         id,
		Name:                   "(2026 AB)",
		NasaJplURL:             "https://ssd.jpl.nasa.gov/" + id,
		AbsoluteMagnitudeH:     domain.NewFloat(22.1),
		Hazardous:              domain.NewBool(false),
		Sentry:                 domain.NewBool(false),
		DiameterKmMin:          domain.NewFloat(0.1),
		DiameterKmMax:          domain.NewFloat(0.3),
		DiameterMMin:           domain.NewFloat(100),
		DiameterMMax:           domain.NewFloat(300),
		CloseApproachDate:      "2026-01-01",
		CloseApproachDateFull:  "2026-Jan-01 12:30",
		EpochDateCloseApproach: domain.NewFloat(epochMS),
		VelocityKmS:            domain.NewFloat(15.5),
		MissDistanceKm:         domain.NewFloat(1000000),
		OrbitingBody:           "Earth",
	}
}

func TestBuildEmptyInput(t *testing.T) {
	res, err := Build(nil, discardLogger())
	assert.Nil(t, res)

	var schemaErr *domain.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestBuildApproaches(t *testing.T) {
	t.Run("derived columns", func(t *testing.T) {
		res, err := Build([]domain.FlatApproach{flatRow("3001", 1767268800000)}, discardLogger())
		require.NoError(t, err)
		require.Len(t, res.Approaches, 1)

		ar := res.Approaches[0]
		assert.Equal(t, "3001_1767268800000", ar.ApproachID)
		assert.True(t, ar.CloseApproachDate.Valid)
		assert.Equal(t, "2026-01-01", ar.CloseApproachDate.Value.Format(domain.DateFormat))
		assert.True(t, ar.CloseApproachDateFull.Valid)
		assert.InDelta(t, 6.0, ar.LogMissDistanceKm.Value, 1e-9)
		assert.False(t, ar.Hazardous)
	})

	t.Run("zero miss distance logs to null", func(t *testing.T) {
		row := flatRow("3001", 1)
		row.MissDistanceKm = domain.NewFloat(0)
		res, err := Build([]domain.FlatApproach{row}, discardLogger())
		require.NoError(t, err)
		assert.False(t, res.Approaches[0].LogMissDistanceKm.Valid)
	})

	t.Run("missing flags coerce to false", func(t *testing.T) {
		row := flatRow("3001", 1)
		row.Hazardous = domain.Bool{}
		row.Sentry = domain.Bool{}
		res, err := Build([]domain.FlatApproach{row}, discardLogger())
		require.NoError(t, err)
		assert.False(t, res.Approaches[0].Hazardous)
		assert.False(t, res.Approaches[0].Sentry)
	})
}

func TestBuildDeduplication(t *testing.T) {
	t.Run("exact duplicates dropped keeping first", func(t *testing.T) {
		row := flatRow("3001", 1767268800000)
		res, err := Build([]domain.FlatApproach{row, row, row}, discardLogger())
		require.NoError(t, err)

		assert.Len(t, res.Approaches, 1)
	})

	t.Run("dropped exact duplicates still count their id", func(t *testing.T) {
		row := flatRow("3001", 1767268800000)
		res, err := Build([]domain.FlatApproach{row, row}, discardLogger())
		require.NoError(t, err)

		require.Len(t, res.Approaches, 1)
		assert.Equal(t, 1, res.DuplicateApproachIDCount)
		assert.Equal(t, []string{"3001_1767268800000"}, res.DuplicateIDSamples)
	})

	t.Run("unique rows count nothing", func(t *testing.T) {
		res, err := Build([]domain.FlatApproach{
			flatRow("3001", 1),
			flatRow("3002", 2),
		}, discardLogger())
		require.NoError(t, err)

		assert.Zero(t, res.DuplicateApproachIDCount)
		assert.Empty(t, res.DuplicateIDSamples)
	})

	t.Run("same id with differing content is kept and counted", func(t *testing.T) {
		a := flatRow("3001", 1767268800000)
		b := flatRow("3001", 1767268800000)
		b.VelocityKmS = domain.NewFloat(99)
		res, err := Build([]domain.FlatApproach{a, b}, discardLogger())
		require.NoError(t, err)

		assert.Len(t, res.Approaches, 2)
		assert.Equal(t, 1, res.DuplicateApproachIDCount)
		assert.Equal(t, []string{"3001_1767268800000"}, res.DuplicateIDSamples)
	})

	t.Run("missing epoch falls back to hash identity", func(t *testing.T) {
		row := flatRow("3001", 0)
		row.EpochDateCloseApproach = domain.Float{}
		res, err := Build([]domain.FlatApproach{row}, discardLogger())
		require.NoError(t, err)

		ar := res.Approaches[0]
		assert.Regexp(t, `^3001_[0-9a-f]{8}$`, ar.ApproachID)
	})
}

func TestBuildObjects(t *testing.T) {
	t.Run("one row per object in first-seen order", func(t *testing.T) {
		rows := []domain.FlatApproach{
			flatRow("3002", 1),
			flatRow("3001", 2),
			flatRow("3002", 3),
		}
		res, err := Build(rows, discardLogger())
		require.NoError(t, err)

		require.Len(t, res.Objects, 2)
		assert.Equal(t, "3002", res.Objects[0].ID)
		assert.Equal(t, "3001", res.Objects[1].ID)
	})

	t.Run("first non-null value wins per attribute", func(t *testing.T) {
		a := flatRow("3001", 1)
		a.Name = ""
		a.AbsoluteMagnitudeH = domain.Float{}
		b := flatRow("3001", 2)
		b.Name = "(2026 XY)"
		b.AbsoluteMagnitudeH = domain.NewFloat(19.9)

		res, err := Build([]domain.FlatApproach{a, b}, discardLogger())
		require.NoError(t, err)
		require.Len(t, res.Objects, 1)

		obj := res.Objects[0]
		assert.Equal(t, "(2026 XY)", obj.Name)
		assert.Equal(t, domain.NewFloat(19.9), obj.AbsoluteMagnitudeH)
	})

	t.Run("derived diameters", func(t *testing.T) {
		res, err := Build([]domain.FlatApproach{flatRow("3001", 1)}, discardLogger())
		require.NoError(t, err)

		obj := res.Objects[0]
		assert.Equal(t, domain.NewFloat(0.2), obj.DiameterMidKm)
		assert.Equal(t, domain.NewFloat(200), obj.DiameterMidM)
		assert.InDelta(t, 1.0, obj.DiameterUncertaintyRatioKm.Value, 1e-9)
		assert.InDelta(t, -0.69897, obj.LogDiameterMidKm.Value, 1e-4)
	})

	t.Run("missing diameters keep derived columns null", func(t *testing.T) {
		row := flatRow("3001", 1)
		row.DiameterKmMin = domain.Float{}
		row.DiameterMMin = domain.Float{}
		res, err := Build([]domain.FlatApproach{row}, discardLogger())
		require.NoError(t, err)

		obj := res.Objects[0]
		assert.False(t, obj.DiameterMidKm.Valid)
		assert.False(t, obj.DiameterMidM.Valid)
		assert.False(t, obj.DiameterUncertaintyRatioKm.Valid)
		assert.False(t, obj.LogDiameterMidKm.Valid)
	})

	t.Run("later flag fills a missing earlier flag", func(t *testing.T) {
		a := flatRow("3001", 1)
		a.Hazardous = domain.Bool{}
		b := flatRow("3001", 2)
		b.Hazardous = domain.NewBool(true)

		res, err := Build([]domain.FlatApproach{a, b}, discardLogger())
		require.NoError(t, err)
		assert.True(t, res.Objects[0].Hazardous)
	})
}

func TestBuildReproducible(t *testing.T) {
	rows := []domain.FlatApproach{
		flatRow("3001", 1767268800000),
		flatRow("3002", 1767269900000),
		flatRow("3001", 1767270000000),
	}
	first, err := Build(rows, discardLogger())
	require.NoError(t, err)
	second, err := Build(rows, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
