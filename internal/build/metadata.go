package build

import (
	"time"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

const metadataNotes = "each row in approaches is one close-approach event; an object may appear in many events"

// MetadataInput carries the provenance fields the build itself cannot
// derive from the tables.
type MetadataInput struct {
	InputPath          string
	InputSHA256        string
	OrbitingBodyFilter string
}

// BuildMetadata assembles the run provenance record from the built tables.
func BuildMetadata(res *Result, in MetadataInput) domain.RunMetadata {
	md := domain.RunMetadata{
		GeneratedAt:              domain.Now().UTC().Format(time.RFC3339),
		InputPath:                in.InputPath,
		InputSHA256:              in.InputSHA256,
		TotalApproaches:          len(res.Approaches),
		UniqueObjects:            len(res.Objects),
		DuplicateApproachIDCount: res.DuplicateApproachIDCount,
		OrbitingBodyFilter:       in.OrbitingBodyFilter,
		Notes:                    metadataNotes,
	}

	var minDate, maxDate time.Time
	for _, ar := range res.Approaches {
		if ar.Hazardous {
			md.HazardousApproaches++
		}
		if !ar.CloseApproachDate.Valid {
			continue
		}
		d := ar.CloseApproachDate.Value
		if minDate.IsZero() || d.Before(minDate) {
			minDate = d
		}
		if maxDate.IsZero() || d.After(maxDate) {
			maxDate = d
		}
	}
	if !minDate.IsZero() {
		md.DateMin = minDate.Format(domain.DateFormat)
		md.DateMax = maxDate.Format(domain.DateFormat)
	}

	for _, obj := range res.Objects {
		if obj.Hazardous {
			md.HazardousObjects++
		}
		if obj.Sentry {
			md.SentryObjects++
		}
	}
	return md
}
