package store

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

func (s *Store) writeParquetFile(path string, rec arrow.Record) error {
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	writer, err := pqarrow.NewFileWriter(rec.Schema(), &buf, props,
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return fmt.Errorf("creating parquet writer for %s: %w", filepath.Base(path), err)
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return s.writeAtomic(path, buf.Bytes())
}

// recordColumn pairs an Arrow field with its column builder, so each table
// can be declared as a list of (name, getter) pairs.
type recordColumn struct {
	field arrow.Field
	build func(pool memory.Allocator, n int) arrow.Array
}

func buildRecord(cols []recordColumn, n int) arrow.Record {
	pool := memory.NewGoAllocator()
	fields := make([]arrow.Field, len(cols))
	arrays := make([]arrow.Array, len(cols))
	for i, c := range cols {
		fields[i] = c.field
		arrays[i] = c.build(pool, n)
	}
	schema := arrow.NewSchema(fields, nil)
	return array.NewRecord(schema, arrays, int64(n))
}

func stringCol(name string, get func(i int) string) recordColumn {
	return recordColumn{
		field: arrow.Field{Name: name, Type: arrow.BinaryTypes.String},
		build: func(pool memory.Allocator, n int) arrow.Array {
			b := array.NewStringBuilder(pool)
			defer b.Release()
			for i := 0; i < n; i++ {
				b.Append(get(i))
			}
			return b.NewArray()
		},
	}
}

func floatCol(name string, get func(i int) domain.Float) recordColumn {
	return recordColumn{
		field: arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		build: func(pool memory.Allocator, n int) arrow.Array {
			b := array.NewFloat64Builder(pool)
			defer b.Release()
			for i := 0; i < n; i++ {
				if f := get(i); f.Valid {
					b.Append(f.Value)
				} else {
					b.AppendNull()
				}
			}
			return b.NewArray()
		},
	}
}

// dateCol stores dates as their canonical string form, matching the CSV
// rendering of the same column.
func dateCol(name string, get func(i int) domain.Date) recordColumn {
	return recordColumn{
		field: arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true},
		build: func(pool memory.Allocator, n int) arrow.Array {
			b := array.NewStringBuilder(pool)
			defer b.Release()
			for i := 0; i < n; i++ {
				d := get(i)
				text, _ := d.MarshalCSV()
				if !d.Valid {
					b.AppendNull()
					continue
				}
				b.Append(string(text))
			}
			return b.NewArray()
		},
	}
}

func boolCol(name string, get func(i int) bool) recordColumn {
	return recordColumn{
		field: arrow.Field{Name: name, Type: arrow.FixedWidthTypes.Boolean},
		build: func(pool memory.Allocator, n int) arrow.Array {
			b := array.NewBooleanBuilder(pool)
			defer b.Release()
			for i := 0; i < n; i++ {
				b.Append(get(i))
			}
			return b.NewArray()
		},
	}
}

func nullableBoolCol(name string, get func(i int) domain.Bool) recordColumn {
	return recordColumn{
		field: arrow.Field{Name: name, Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
		build: func(pool memory.Allocator, n int) arrow.Array {
			b := array.NewBooleanBuilder(pool)
			defer b.Release()
			for i := 0; i < n; i++ {
				if v := get(i); v.Valid {
					b.Append(v.Value)
				} else {
					b.AppendNull()
				}
			}
			return b.NewArray()
		},
	}
}

func objectsRecord(rows []domain.ObjectRow) arrow.Record {
	return buildRecord([]recordColumn{
		stringCol("id", func(i int) string { return rows[i].ID }),
		stringCol("neo_reference_id", func(i int) string { return rows[i].NeoReferenceID }),
		stringCol("name", func(i int) string { return rows[i].Name }),
		stringCol("nasa_jpl_url", func(i int) string { return rows[i].NasaJplURL }),
		floatCol("absolute_magnitude_h", func(i int) domain.Float { return rows[i].AbsoluteMagnitudeH }),
		boolCol("is_potentially_hazardous_asteroid", func(i int) bool { return rows[i].Hazardous }),
		boolCol("is_sentry_object", func(i int) bool { return rows[i].Sentry }),
		floatCol("diameter_km_min", func(i int) domain.Float { return rows[i].DiameterKmMin }),
		floatCol("diameter_km_max", func(i int) domain.Float { return rows[i].DiameterKmMax }),
		floatCol("diameter_m_min", func(i int) domain.Float { return rows[i].DiameterMMin }),
		floatCol("diameter_m_max", func(i int) domain.Float { return rows[i].DiameterMMax }),
		floatCol("diameter_mid_km", func(i int) domain.Float { return rows[i].DiameterMidKm }),
		floatCol("diameter_mid_m", func(i int) domain.Float { return rows[i].DiameterMidM }),
		floatCol("diameter_uncertainty_ratio_km", func(i int) domain.Float { return rows[i].DiameterUncertaintyRatioKm }),
		floatCol("log_diameter_mid_km", func(i int) domain.Float { return rows[i].LogDiameterMidKm }),
	}, len(rows))
}

func approachesRecord(rows []domain.ApproachRow) arrow.Record {
	return buildRecord([]recordColumn{
		stringCol("approach_id", func(i int) string { return rows[i].ApproachID }),
		stringCol("id", func(i int) string { return rows[i].ID }),
		dateCol("close_approach_date", func(i int) domain.Date { return rows[i].CloseApproachDate }),
		dateCol("close_approach_date_full", func(i int) domain.Date { return rows[i].CloseApproachDateFull }),
		floatCol("epoch_date_close_approach", func(i int) domain.Float { return rows[i].EpochDateCloseApproach }),
		floatCol("velocity_km_s", func(i int) domain.Float { return rows[i].VelocityKmS }),
		floatCol("velocity_km_h", func(i int) domain.Float { return rows[i].VelocityKmH }),
		floatCol("velocity_mph", func(i int) domain.Float { return rows[i].VelocityMph }),
		floatCol("miss_distance_astronomical", func(i int) domain.Float { return rows[i].MissDistanceAstronomical }),
		floatCol("miss_distance_lunar", func(i int) domain.Float { return rows[i].MissDistanceLunar }),
		floatCol("miss_distance_km", func(i int) domain.Float { return rows[i].MissDistanceKm }),
		floatCol("miss_distance_miles", func(i int) domain.Float { return rows[i].MissDistanceMiles }),
		stringCol("orbiting_body", func(i int) string { return rows[i].OrbitingBody }),
		floatCol("log_miss_distance_km", func(i int) domain.Float { return rows[i].LogMissDistanceKm }),
		boolCol("is_potentially_hazardous_asteroid", func(i int) bool { return rows[i].Hazardous }),
		boolCol("is_sentry_object", func(i int) bool { return rows[i].Sentry }),
	}, len(rows))
}

func aggregatesRecord(rows []domain.AggregateRow) arrow.Record {
	return buildRecord([]recordColumn{
		stringCol("aggregate_type", func(i int) string { return rows[i].AggregateType }),
		stringCol("orbiting_body", func(i int) string { return rows[i].OrbitingBody }),
		nullableBoolCol("is_potentially_hazardous_asteroid", func(i int) domain.Bool { return rows[i].Hazardous }),
		dateCol("month", func(i int) domain.Date { return rows[i].Month }),
		floatCol("count", func(i int) domain.Float { return rows[i].Count }),
		stringCol("size_bin_m", func(i int) string { return rows[i].SizeBinM }),
		floatCol("total", func(i int) domain.Float { return rows[i].Total }),
		floatCol("hazardous", func(i int) domain.Float { return rows[i].HazardousTotal }),
		floatCol("hazard_rate", func(i int) domain.Float { return rows[i].HazardRate }),
		stringCol("metric", func(i int) string { return rows[i].Metric }),
		stringCol("id", func(i int) string { return rows[i].ID }),
		stringCol("name", func(i int) string { return rows[i].Name }),
		dateCol("close_approach_date", func(i int) domain.Date { return rows[i].CloseApproachDate }),
		floatCol("miss_distance_km", func(i int) domain.Float { return rows[i].MissDistanceKm }),
		floatCol("velocity_km_s", func(i int) domain.Float { return rows[i].VelocityKmS }),
		floatCol("diameter_mid_km", func(i int) domain.Float { return rows[i].DiameterMidKm }),
		floatCol("energy_proxy", func(i int) domain.Float { return rows[i].EnergyProxy }),
	}, len(rows))
}

func orbitsRecord(rows []domain.OrbitRow) arrow.Record {
	return buildRecord([]recordColumn{
		stringCol("id", func(i int) string { return rows[i].ID }),
		stringCol("orbit_id", func(i int) string { return rows[i].OrbitID }),
		stringCol("orbit_class_name", func(i int) string { return rows[i].OrbitClassName }),
		stringCol("orbit_class_type", func(i int) string { return rows[i].OrbitClassType }),
		stringCol("orbit_class_description", func(i int) string { return rows[i].OrbitClassDescription }),
		floatCol("semi_major_axis", func(i int) domain.Float { return rows[i].SemiMajorAxis }),
		floatCol("eccentricity", func(i int) domain.Float { return rows[i].Eccentricity }),
		floatCol("inclination", func(i int) domain.Float { return rows[i].Inclination }),
		floatCol("perihelion_distance", func(i int) domain.Float { return rows[i].PerihelionDistance }),
		floatCol("aphelion_distance", func(i int) domain.Float { return rows[i].AphelionDistance }),
		floatCol("minimum_orbit_intersection", func(i int) domain.Float { return rows[i].MinimumOrbitIntersection }),
		floatCol("orbital_period", func(i int) domain.Float { return rows[i].OrbitalPeriod }),
		floatCol("mean_anomaly", func(i int) domain.Float { return rows[i].MeanAnomaly }),
		floatCol("ascending_node_longitude", func(i int) domain.Float { return rows[i].AscendingNodeLongitude }),
		floatCol("perihelion_argument", func(i int) domain.Float { return rows[i].PerihelionArgument }),
	}, len(rows))
}
