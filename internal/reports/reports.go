// Package reports derives small analyst-facing summaries from the built
// tables: metric quantiles, the miss-distance ECDF, and a year-by-month
// approach calendar rendered both as CSV and as a standalone HTML heatmap.
package reports

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

const (
	QuantilesFile    = "quantiles.csv"
	ECDFFile         = "ecdf_miss_distance_km.csv"
	CalendarFile     = "calendar.csv"
	CalendarHTMLFile = "calendar.html"
)

var quantileLevels = []float64{0, 0.25, 0.5, 0.75, 0.9, 0.99, 1}

type Reporter struct {
	dir    string
	logger *slog.Logger
}

func NewReporter(dir string, logger *slog.Logger) *Reporter {
	return &Reporter{dir: dir, logger: logger}
}

// Generate writes every report. Null metric values are left out of the
// distributions; a metric with no values at all is omitted entirely.
func (r *Reporter) Generate(approaches []domain.ApproachRow, objects []domain.ObjectRow) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating reports dir: %w", err)
	}

	if err := r.writeQuantiles(approaches, objects); err != nil {
		return err
	}
	if err := r.writeECDF(approaches); err != nil {
		return err
	}
	cal := calendarFrom(approaches)
	if err := r.writeCalendarCSV(cal); err != nil {
		return err
	}
	if err := r.writeCalendarHTML(cal); err != nil {
		return err
	}

	r.logger.Info("reports generated", "dir", r.dir)
	return nil
}

// QuantileRow is one (metric, level) point of the quantile report.
type QuantileRow struct {
	Metric   string  `csv:"metric"`
	Quantile float64 `csv:"quantile"`
	Value    float64 `csv:"value"`
}

func (r *Reporter) writeQuantiles(approaches []domain.ApproachRow, objects []domain.ObjectRow) error {
	metrics := []struct {
		name   string
		values []float64
	}{
		{"miss_distance_km", collect(approaches, func(a domain.ApproachRow) domain.Float { return a.MissDistanceKm })},
		{"velocity_km_s", collect(approaches, func(a domain.ApproachRow) domain.Float { return a.VelocityKmS })},
		{"diameter_mid_m", collect(objects, func(o domain.ObjectRow) domain.Float { return o.DiameterMidM })},
	}

	var rows []QuantileRow
	for _, m := range metrics {
		if len(m.values) == 0 {
			continue
		}
		sort.Float64s(m.values)
		for _, q := range quantileLevels {
			rows = append(rows, QuantileRow{Metric: m.name, Quantile: q, Value: quantile(m.values, q)})
		}
	}
	return r.writeCSV(QuantilesFile, rows)
}

// ECDFRow is one step of the empirical CDF over miss distance.
type ECDFRow struct {
	MissDistanceKm float64 `csv:"miss_distance_km"`
	ECDF           float64 `csv:"ecdf"`
}

func (r *Reporter) writeECDF(approaches []domain.ApproachRow) error {
	values := collect(approaches, func(a domain.ApproachRow) domain.Float { return a.MissDistanceKm })
	sort.Float64s(values)

	rows := make([]ECDFRow, len(values))
	for i, v := range values {
		rows[i] = ECDFRow{MissDistanceKm: v, ECDF: float64(i+1) / float64(len(values))}
	}
	return r.writeCSV(ECDFFile, rows)
}

func (r *Reporter) writeCSV(name string, rows any) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func collect[T any](rows []T, value func(T) domain.Float) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if f := value(row); f.Valid {
			out = append(out, f.Value)
		}
	}
	return out
}

// quantile interpolates linearly between the two nearest order statistics.
// The input must be sorted and non-empty.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
