package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaError reports a structurally invalid document. It marks an upstream
// contract violation rather than a transient condition.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "schema: " + e.Reason
}

// FeedPayload is one decoded feed response for one date window. The per-day
// record lists stay as raw JSON so that a single malformed record cannot
// poison the rest of the payload; records are decoded individually during
// flattening.
type FeedPayload struct {
	NearEarthObjects map[string][]json.RawMessage
}

// DecodeFeedPayload decodes and shape-checks a raw feed document.
// Undecodable bytes return a plain error; structurally wrong documents
// return a *SchemaError. The check stops at the per-day grouping: malformed
// nested records are tolerated here and surface as nulls downstream.
func DecodeFeedPayload(data []byte) (*FeedPayload, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("decode feed payload: invalid JSON")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &SchemaError{Reason: "document is not a JSON object"}
	}

	raw, ok := envelope["near_earth_objects"]
	if !ok {
		return nil, &SchemaError{Reason: "missing near_earth_objects"}
	}

	var perDay map[string][]json.RawMessage
	if err := json.Unmarshal(raw, &perDay); err != nil {
		return nil, &SchemaError{Reason: "near_earth_objects is not a date-to-records mapping"}
	}

	return &FeedPayload{NearEarthObjects: perDay}, nil
}

// SortedDates returns the payload's date buckets in ascending order, so a
// flatten over the payload is deterministic regardless of map iteration.
func (p *FeedPayload) SortedDates() []string {
	dates := make([]string, 0, len(p.NearEarthObjects))
	for d := range p.NearEarthObjects {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// NeoRecord is one object entry inside a feed date bucket. Every field is
// optional; absent nested structures leave their fields null.
type NeoRecord struct {
	ID                 string            `json:"id"`
	NeoReferenceID     string            `json:"neo_reference_id"`
	Name               string            `json:"name"`
	NasaJplURL         string            `json:"nasa_jpl_url"`
	AbsoluteMagnitudeH Float             `json:"absolute_magnitude_h"`
	Hazardous          Bool              `json:"is_potentially_hazardous_asteroid"`
	Sentry             Bool              `json:"is_sentry_object"`
	EstimatedDiameter  *DiameterEstimate `json:"estimated_diameter"`
	CloseApproachData  []json.RawMessage `json:"close_approach_data"`
}

// DiameterEstimate holds the feed's per-unit diameter ranges.
type DiameterEstimate struct {
	Kilometers *DiameterRange `json:"kilometers"`
	Meters     *DiameterRange `json:"meters"`
}

// DiameterRange is an estimated min/max diameter in one unit.
type DiameterRange struct {
	Min Float `json:"estimated_diameter_min"`
	Max Float `json:"estimated_diameter_max"`
}

// CloseApproach is one close-approach entry inside an object record.
type CloseApproach struct {
	CloseApproachDate     string            `json:"close_approach_date"`
	CloseApproachDateFull string            `json:"close_approach_date_full"`
	EpochDateCloseApproach Float            `json:"epoch_date_close_approach"`
	RelativeVelocity      *RelativeVelocity `json:"relative_velocity"`
	MissDistance          *MissDistance     `json:"miss_distance"`
	OrbitingBody          string            `json:"orbiting_body"`
}

// RelativeVelocity carries the three velocity units the feed reports,
// delivered as decimal strings.
type RelativeVelocity struct {
	KilometersPerSecond Float `json:"kilometers_per_second"`
	KilometersPerHour   Float `json:"kilometers_per_hour"`
	MilesPerHour        Float `json:"miles_per_hour"`
}

// MissDistance carries the four miss-distance units the feed reports,
// delivered as decimal strings.
type MissDistance struct {
	Astronomical Float `json:"astronomical"`
	Lunar        Float `json:"lunar"`
	Kilometers   Float `json:"kilometers"`
	Miles        Float `json:"miles"`
}

// DecodeNeoRecord decodes one raw object record. Entries that are not JSON
// objects at all report ok=false and are skipped by the flattener; field
// level garbage inside an object is absorbed by the tolerant types.
func DecodeNeoRecord(raw json.RawMessage) (NeoRecord, bool) {
	var rec NeoRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return NeoRecord{}, false
	}
	return rec, true
}

// DecodeCloseApproach decodes one raw close-approach entry with the same
// tolerance rules as DecodeNeoRecord.
func DecodeCloseApproach(raw json.RawMessage) (CloseApproach, bool) {
	var ca CloseApproach
	if err := json.Unmarshal(raw, &ca); err != nil {
		return CloseApproach{}, false
	}
	return ca, true
}

// OrbitLookup is the subset of the per-object lookup response the orbit
// enrichment consumes.
type OrbitLookup struct {
	ID          string     `json:"id"`
	OrbitalData *OrbitData `json:"orbital_data"`
}

// OrbitData carries the orbital elements from the lookup endpoint, all
// delivered as decimal strings.
type OrbitData struct {
	OrbitID                  string      `json:"orbit_id"`
	OrbitClass               *OrbitClass `json:"orbit_class"`
	SemiMajorAxis            Float       `json:"semi_major_axis"`
	Eccentricity             Float       `json:"eccentricity"`
	Inclination              Float       `json:"inclination"`
	PerihelionDistance       Float       `json:"perihelion_distance"`
	AphelionDistance         Float       `json:"aphelion_distance"`
	MinimumOrbitIntersection Float       `json:"minimum_orbit_intersection"`
	OrbitalPeriod            Float       `json:"orbital_period"`
	MeanAnomaly              Float       `json:"mean_anomaly"`
	AscendingNodeLongitude   Float       `json:"ascending_node_longitude"`
	PerihelionArgument       Float       `json:"perihelion_argument"`
}

// OrbitClass is the classification block inside orbital_data.
type OrbitClass struct {
	Name        string `json:"orbit_class_name"`
	Type        string `json:"orbit_class_type"`
	Description string `json:"orbit_class_description"`
}
