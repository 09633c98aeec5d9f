// Package build turns flattened close-approach rows into the analytic
// tables: a deduplicated objects table, an approaches table keyed by a
// reproducible approach_id, the flat aggregates table, and the run
// metadata record.
package build

import (
	"log/slog"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

const maxDuplicateSamples = 3

// Result holds the built tables plus the duplicate-identity diagnostics
// that feed the run metadata.
type Result struct {
	Objects    []domain.ObjectRow
	Approaches []domain.ApproachRow

	// DuplicateApproachIDCount is the number of distinct approach ids
	// shared by more than one input row, counted before exact duplicates
	// are dropped. Rows with differing content are kept; the count is a
	// data-quality signal, not an error.
	DuplicateApproachIDCount int
	DuplicateIDSamples       []string
}

// Build derives the objects and approaches tables from flattened rows.
// Exact duplicate approaches are dropped keeping the first occurrence.
// An empty input is a schema problem, not an empty dataset.
func Build(rows []domain.FlatApproach, logger *slog.Logger) (*Result, error) {
	if len(rows) == 0 {
		return nil, &domain.SchemaError{Reason: "no flattened rows to build tables from"}
	}

	res := &Result{
		Objects:    mergeObjects(rows),
		Approaches: make([]domain.ApproachRow, 0, len(rows)),
	}

	// Duplicate ids are counted over the full input, before exact
	// duplicates are removed, so a dropped copy still leaves a record.
	all := make([]domain.ApproachRow, len(rows))
	perID := make(map[string]int, len(rows))
	for i, row := range rows {
		all[i] = approachRow(row)
		perID[all[i].ApproachID]++
	}

	sampled := make(map[string]struct{})
	var dropped int
	seen := make(map[domain.ApproachRow]struct{}, len(all))
	for _, ar := range all {
		if perID[ar.ApproachID] > 1 {
			if _, ok := sampled[ar.ApproachID]; !ok {
				sampled[ar.ApproachID] = struct{}{}
				res.DuplicateApproachIDCount++
				if len(res.DuplicateIDSamples) < maxDuplicateSamples {
					res.DuplicateIDSamples = append(res.DuplicateIDSamples, ar.ApproachID)
				}
			}
		}
		if _, dup := seen[ar]; dup {
			dropped++
			continue
		}
		seen[ar] = struct{}{}
		res.Approaches = append(res.Approaches, ar)
	}
	if res.DuplicateApproachIDCount > 0 {
		logger.Warn("approach ids shared by multiple rows",
			"count", res.DuplicateApproachIDCount,
			"exact_duplicates_dropped", dropped,
			"samples", res.DuplicateIDSamples)
	}

	return res, nil
}

func approachRow(row domain.FlatApproach) domain.ApproachRow {
	return domain.ApproachRow{
		ApproachID:               domain.ApproachID(row),
		ID:                       row.ID,
		CloseApproachDate:        domain.ParseFlexibleDate(row.CloseApproachDate),
		CloseApproachDateFull:    domain.ParseFlexibleDate(row.CloseApproachDateFull),
		EpochDateCloseApproach:   row.EpochDateCloseApproach,
		VelocityKmS:              row.VelocityKmS,
		VelocityKmH:              row.VelocityKmH,
		VelocityMph:              row.VelocityMph,
		MissDistanceAstronomical: row.MissDistanceAstronomical,
		MissDistanceLunar:        row.MissDistanceLunar,
		MissDistanceKm:           row.MissDistanceKm,
		MissDistanceMiles:        row.MissDistanceMiles,
		OrbitingBody:             row.OrbitingBody,
		LogMissDistanceKm:        domain.SafeLog10(row.MissDistanceKm),
		Hazardous:                row.Hazardous.OrFalse(),
		Sentry:                   row.Sentry.OrFalse(),
	}
}

// objectAcc carries the flag columns as nullable booleans during the merge
// so a later true can fill a hole left by an earlier missing flag.
type objectAcc struct {
	row       domain.ObjectRow
	hazardous domain.Bool
	sentry    domain.Bool
}

// mergeObjects collapses flattened rows into one row per object id. For
// every attribute the first non-null value in input order wins, including
// the per-row derived diameter columns. Output preserves first-seen order.
func mergeObjects(rows []domain.FlatApproach) []domain.ObjectRow {
	accs := make(map[string]*objectAcc, len(rows))
	order := make([]string, 0, len(rows))

	for _, row := range rows {
		acc, ok := accs[row.ID]
		if !ok {
			acc = &objectAcc{row: domain.ObjectRow{ID: row.ID}}
			accs[row.ID] = acc
			order = append(order, row.ID)
		}
		midKm := midpoint(row.DiameterKmMin, row.DiameterKmMax)

		fillString(&acc.row.NeoReferenceID, row.NeoReferenceID)
		fillString(&acc.row.Name, row.Name)
		fillString(&acc.row.NasaJplURL, row.NasaJplURL)
		fillFloat(&acc.row.AbsoluteMagnitudeH, row.AbsoluteMagnitudeH)
		fillBool(&acc.hazardous, row.Hazardous)
		fillBool(&acc.sentry, row.Sentry)
		fillFloat(&acc.row.DiameterKmMin, row.DiameterKmMin)
		fillFloat(&acc.row.DiameterKmMax, row.DiameterKmMax)
		fillFloat(&acc.row.DiameterMMin, row.DiameterMMin)
		fillFloat(&acc.row.DiameterMMax, row.DiameterMMax)
		fillFloat(&acc.row.DiameterMidKm, midKm)
		fillFloat(&acc.row.DiameterMidM, midpoint(row.DiameterMMin, row.DiameterMMax))
		fillFloat(&acc.row.DiameterUncertaintyRatioKm, uncertaintyRatio(row.DiameterKmMin, row.DiameterKmMax, midKm))
	}

	objects := make([]domain.ObjectRow, 0, len(order))
	for _, id := range order {
		acc := accs[id]
		acc.row.Hazardous = acc.hazardous.OrFalse()
		acc.row.Sentry = acc.sentry.OrFalse()
		acc.row.LogDiameterMidKm = domain.SafeLog10(acc.row.DiameterMidKm)
		objects = append(objects, acc.row)
	}
	return objects
}

func midpoint(lo, hi domain.Float) domain.Float {
	if !lo.Valid || !hi.Valid {
		return domain.Float{}
	}
	return domain.NewFloat((lo.Value + hi.Value) / 2)
}

func uncertaintyRatio(lo, hi, mid domain.Float) domain.Float {
	if !lo.Valid || !hi.Valid || !mid.Valid || mid.Value == 0 {
		return domain.Float{}
	}
	return domain.NewFloat((hi.Value - lo.Value) / mid.Value)
}

func fillString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func fillFloat(dst *domain.Float, v domain.Float) {
	if !dst.Valid {
		*dst = v
	}
}

func fillBool(dst *domain.Bool, v domain.Bool) {
	if !dst.Valid {
		*dst = v
	}
}
