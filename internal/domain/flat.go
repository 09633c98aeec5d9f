package domain

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// FlatApproach is one row per (object, close-approach event) pair: the
// object's static fields combined with a single approach's fields. Field
// order here is the documented column order of the flattened dataset; the
// csv tags drive both the delimited output and the header check on the way
// back in.
type FlatApproach struct {
	Date                     string `csv:"date" json:"date"`
	ID                       string `csv:"id" json:"id"`
	NeoReferenceID           string `csv:"neo_reference_id" json:"neo_reference_id"`
	Name                     string `csv:"name" json:"name"`
	NasaJplURL               string `csv:"nasa_jpl_url" json:"nasa_jpl_url"`
	AbsoluteMagnitudeH       Float  `csv:"absolute_magnitude_h" json:"absolute_magnitude_h"`
	Hazardous                Bool   `csv:"is_potentially_hazardous_asteroid" json:"is_potentially_hazardous_asteroid"`
	Sentry                   Bool   `csv:"is_sentry_object" json:"is_sentry_object"`
	DiameterKmMin            Float  `csv:"diameter_km_min" json:"diameter_km_min"`
	DiameterKmMax            Float  `csv:"diameter_km_max" json:"diameter_km_max"`
	DiameterMMin             Float  `csv:"diameter_m_min" json:"diameter_m_min"`
	DiameterMMax             Float  `csv:"diameter_m_max" json:"diameter_m_max"`
	CloseApproachDate        string `csv:"close_approach_date" json:"close_approach_date"`
	CloseApproachDateFull    string `csv:"close_approach_date_full" json:"close_approach_date_full"`
	EpochDateCloseApproach   Float  `csv:"epoch_date_close_approach" json:"epoch_date_close_approach"`
	VelocityKmS              Float  `csv:"velocity_km_s" json:"velocity_km_s"`
	VelocityKmH              Float  `csv:"velocity_km_h" json:"velocity_km_h"`
	VelocityMph              Float  `csv:"velocity_mph" json:"velocity_mph"`
	MissDistanceAstronomical Float  `csv:"miss_distance_astronomical" json:"miss_distance_astronomical"`
	MissDistanceLunar        Float  `csv:"miss_distance_lunar" json:"miss_distance_lunar"`
	MissDistanceKm           Float  `csv:"miss_distance_km" json:"miss_distance_km"`
	MissDistanceMiles        Float  `csv:"miss_distance_miles" json:"miss_distance_miles"`
	OrbitingBody             string `csv:"orbiting_body" json:"orbiting_body"`
}

// RequiredColumns is the flattened schema a table build refuses to run
// without.
var RequiredColumns = []string{
	"date",
	"id",
	"neo_reference_id",
	"name",
	"nasa_jpl_url",
	"absolute_magnitude_h",
	"is_potentially_hazardous_asteroid",
	"is_sentry_object",
	"diameter_km_min",
	"diameter_km_max",
	"diameter_m_min",
	"diameter_m_max",
	"close_approach_date",
	"close_approach_date_full",
	"epoch_date_close_approach",
	"velocity_km_s",
	"velocity_km_h",
	"velocity_mph",
	"miss_distance_astronomical",
	"miss_distance_lunar",
	"miss_distance_km",
	"miss_distance_miles",
	"orbiting_body",
}

// ApproachID derives the stable identity of one close-approach event.
// When the epoch timestamp is present the id is "{object id}_{epoch ms}".
// Otherwise it falls back to the object id plus a short hash of the
// approach's key fields, so rows without epoch data still get a
// reproducible identity.
func ApproachID(row FlatApproach) string {
	if row.EpochDateCloseApproach.Valid {
		return row.ID + "_" + strconv.FormatInt(int64(row.EpochDateCloseApproach.Value), 10)
	}
	return row.ID + "_" + stableSuffix(row)
}

func stableSuffix(row FlatApproach) string {
	parts := []string{
		row.ID,
		row.CloseApproachDate,
		row.CloseApproachDateFull,
		formatForHash(row.MissDistanceKm),
		formatForHash(row.VelocityKmS),
	}
	digest := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(digest[:])[:8]
}

func formatForHash(f Float) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}
