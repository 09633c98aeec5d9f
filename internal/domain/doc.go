// Package domain models NASA NeoWs (Near Earth Object Web Service)
// close-approach data.
//
// # Data Source
//
// Close-approach records come from the NeoWs feed endpoint,
// https://api.nasa.gov/neo/rest/v1/feed, queried one date window at a time
// (the API caps a window at 7 days). The response nests records three levels
// deep: a "near_earth_objects" object maps each calendar date to a list of
// objects, and each object carries a "close_approach_data" list with one
// entry per close pass. Orbit details come from the per-object lookup
// endpoint, https://api.nasa.gov/neo/rest/v1/neo/{id}.
//
// # Feed Conventions
//
// Loose typing:
//
//	Velocity and miss-distance values are delivered as decimal strings
//	("14.0132066226"), diameters and magnitude as numbers, and any field may
//	be absent. [Float] and [Bool] absorb all of these: a number, a quoted
//	number, null, a missing key, or garbage all decode without error, with
//	anything unusable becoming a null. Null propagates through every derived
//	column rather than turning into a zero.
//
// Identity:
//
//	Objects carry a stable numeric id (as a string) that is consistent
//	across fetch windows; one object appears once per close approach.
//	Approach events have no upstream identity, so [ApproachID] derives one:
//	"{id}_{epochMillis}" when the epoch timestamp is present, otherwise the
//	id plus a short hash of the approach's key fields. Deterministic ids
//	make rebuilds reproducible and let downstream consumers de-duplicate.
//
// Dates:
//
//	"close_approach_date" is "2006-01-02"; "close_approach_date_full" adds a
//	time component in NASA's "2006-Jan-02 15:04" form;
//	"epoch_date_close_approach" is milliseconds since the Unix epoch.
//
// Flags:
//
//	"is_potentially_hazardous_asteroid" and "is_sentry_object" are assigned
//	by the upstream feed, never computed here. Missing flags are treated as
//	false at table-build time.
package domain
