// Package features derives analytic columns from joined approach rows:
// distance/size/velocity bins, an energy proxy, and normalized rank scores.
// Everything here is a pure function over its input; the same rows always
// enrich to the same output, which is what makes aggregate recomputation a
// usable regression check.
package features

import (
	"math"
	"sort"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

// Bin edges are left-closed, right-open. A null source value gets an empty
// bin label.
var (
	missLDBounds = []float64{1, 5, 20, 50}
	missLDLabels = []string{"<1", "1-5", "5-20", "20-50", ">50"}

	sizeMBounds = []float64{50, 140, 500, 1000}
	sizeMLabels = []string{"<50m", "50-140m", "140-500m", "500m-1km", ">1km"}

	velocityKmSBounds = []float64{10, 20, 30}
	velocityKmSLabels = []string{"<10", "10-20", "20-30", ">30"}
)

// SizeBinLabels exposes the size-bin ordering for aggregate sorting.
func SizeBinLabels() []string {
	return sizeMLabels
}

// JoinedApproach is an approach row joined with its object's name and
// midpoint diameters.
type JoinedApproach struct {
	domain.ApproachRow
	Name          string
	DiameterMidKm domain.Float
	DiameterMidM  domain.Float
}

// EnrichedApproach carries the derived analytic columns.
type EnrichedApproach struct {
	JoinedApproach

	MissDistanceLD   domain.Float
	MissLDBin        string
	SizeBinM         string
	VelocityBinKmS   string
	EnergyProxy      domain.Float
	RankClose        domain.Float
	RankSize         domain.Float
	RankSpeed        domain.Float
	InterestingScore domain.Float
}

// Enrich computes all derived per-approach features. Rank columns are
// normalized to [0, 1] across the input set; null inputs stay null in every
// derived column.
func Enrich(rows []JoinedApproach) []EnrichedApproach {
	out := make([]EnrichedApproach, len(rows))
	for i, row := range rows {
		out[i] = EnrichedApproach{
			JoinedApproach: row,
			MissDistanceLD: row.MissDistanceLunar,
			MissLDBin:      bin(row.MissDistanceLunar, missLDBounds, missLDLabels),
			SizeBinM:       bin(row.DiameterMidM, sizeMBounds, sizeMLabels),
			VelocityBinKmS: bin(row.VelocityKmS, velocityKmSBounds, velocityKmSLabels),
			EnergyProxy:    energyProxy(row.DiameterMidM, row.VelocityKmS),
		}
	}

	rankClose := normalizedRank(rows, func(r JoinedApproach) domain.Float { return r.MissDistanceKm })
	rankSize := normalizedRank(rows, func(r JoinedApproach) domain.Float { return r.DiameterMidM })
	rankSpeed := normalizedRank(rows, func(r JoinedApproach) domain.Float { return r.VelocityKmS })

	for i := range out {
		out[i].RankClose = invert(rankClose[i])
		out[i].RankSize = rankSize[i]
		out[i].RankSpeed = rankSpeed[i]
		out[i].InterestingScore = interestingScore(out[i].RankClose, rankSize[i], rankSpeed[i])
	}
	return out
}

// energyProxy is a heuristic relative-ranking scalar: diameter midpoint in
// meters cubed times velocity in m/s squared. Not physically calibrated.
func energyProxy(diameterMidM, velocityKmS domain.Float) domain.Float {
	if !diameterMidM.Valid || !velocityKmS.Valid {
		return domain.Float{}
	}
	v := velocityKmS.Value * 1000
	return domain.NewFloat(math.Pow(diameterMidM.Value, 3) * v * v)
}

func bin(f domain.Float, bounds []float64, labels []string) string {
	if !f.Valid {
		return ""
	}
	for i, b := range bounds {
		if f.Value < b {
			return labels[i]
		}
	}
	return labels[len(labels)-1]
}

// normalizedRank computes average ranks (ties share the mean of their rank
// positions) scaled to [0, 1]. Null values keep a null rank. When every
// value is identical the rank collapses to zero.
func normalizedRank(rows []JoinedApproach, value func(JoinedApproach) domain.Float) []domain.Float {
	type indexed struct {
		idx int
		v   float64
	}

	valid := make([]indexed, 0, len(rows))
	for i, r := range rows {
		if f := value(r); f.Valid {
			valid = append(valid, indexed{idx: i, v: f.Value})
		}
	}

	ranks := make([]domain.Float, len(rows))
	if len(valid) == 0 {
		return ranks
	}

	sort.SliceStable(valid, func(i, j int) bool { return valid[i].v < valid[j].v })

	// Average ranks across ties.
	raw := make([]float64, len(valid))
	for i := 0; i < len(valid); {
		j := i
		for j < len(valid) && valid[j].v == valid[i].v {
			j++
		}
		avg := float64(i+1+j) / 2 // mean of positions i+1 .. j
		for k := i; k < j; k++ {
			raw[k] = avg
		}
		i = j
	}

	minRank, maxRank := raw[0], raw[len(raw)-1]
	for i, entry := range valid {
		if maxRank == minRank {
			ranks[entry.idx] = domain.NewFloat(0)
			continue
		}
		ranks[entry.idx] = domain.NewFloat((raw[i] - minRank) / (maxRank - minRank))
	}
	return ranks
}

func invert(f domain.Float) domain.Float {
	if !f.Valid {
		return domain.Float{}
	}
	return domain.NewFloat(1 - f.Value)
}

// interestingScore weights closeness over size over speed. Null in any
// component keeps the score null.
func interestingScore(close, size, speed domain.Float) domain.Float {
	if !close.Valid || !size.Valid || !speed.Valid {
		return domain.Float{}
	}
	return domain.NewFloat(0.5*close.Value + 0.3*size.Value + 0.2*speed.Value)
}
