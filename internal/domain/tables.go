package domain

// ObjectRow is one row of the deduplicated objects table: one tracked
// celestial body, identified by the feed's stable id. For attributes that
// could differ across an object's flattened rows, the first non-null value
// in original row order wins.
type ObjectRow struct {
	ID                 string `csv:"id" json:"id"`
	NeoReferenceID     string `csv:"neo_reference_id" json:"neo_reference_id"`
	Name               string `csv:"name" json:"name"`
	NasaJplURL         string `csv:"nasa_jpl_url" json:"nasa_jpl_url"`
	AbsoluteMagnitudeH Float  `csv:"absolute_magnitude_h" json:"absolute_magnitude_h"`
	Hazardous          bool   `csv:"is_potentially_hazardous_asteroid" json:"is_potentially_hazardous_asteroid"`
	Sentry             bool   `csv:"is_sentry_object" json:"is_sentry_object"`
	DiameterKmMin      Float  `csv:"diameter_km_min" json:"diameter_km_min"`
	DiameterKmMax      Float  `csv:"diameter_km_max" json:"diameter_km_max"`
	DiameterMMin       Float  `csv:"diameter_m_min" json:"diameter_m_min"`
	DiameterMMax       Float  `csv:"diameter_m_max" json:"diameter_m_max"`

	// Derived columns.
	DiameterMidKm              Float `csv:"diameter_mid_km" json:"diameter_mid_km"`
	DiameterMidM               Float `csv:"diameter_mid_m" json:"diameter_mid_m"`
	DiameterUncertaintyRatioKm Float `csv:"diameter_uncertainty_ratio_km" json:"diameter_uncertainty_ratio_km"`
	LogDiameterMidKm           Float `csv:"log_diameter_mid_km" json:"log_diameter_mid_km"`
}

// ApproachRow is one row of the approaches table: a single close-approach
// event with a unique, reproducible approach_id.
type ApproachRow struct {
	ApproachID               string `csv:"approach_id" json:"approach_id"`
	ID                       string `csv:"id" json:"id"`
	CloseApproachDate        Date   `csv:"close_approach_date" json:"close_approach_date"`
	CloseApproachDateFull    Date   `csv:"close_approach_date_full" json:"close_approach_date_full"`
	EpochDateCloseApproach   Float  `csv:"epoch_date_close_approach" json:"epoch_date_close_approach"`
	VelocityKmS              Float  `csv:"velocity_km_s" json:"velocity_km_s"`
	VelocityKmH              Float  `csv:"velocity_km_h" json:"velocity_km_h"`
	VelocityMph              Float  `csv:"velocity_mph" json:"velocity_mph"`
	MissDistanceAstronomical Float  `csv:"miss_distance_astronomical" json:"miss_distance_astronomical"`
	MissDistanceLunar        Float  `csv:"miss_distance_lunar" json:"miss_distance_lunar"`
	MissDistanceKm           Float  `csv:"miss_distance_km" json:"miss_distance_km"`
	MissDistanceMiles        Float  `csv:"miss_distance_miles" json:"miss_distance_miles"`
	OrbitingBody             string `csv:"orbiting_body" json:"orbiting_body"`
	LogMissDistanceKm        Float  `csv:"log_miss_distance_km" json:"log_miss_distance_km"`
	Hazardous                bool   `csv:"is_potentially_hazardous_asteroid" json:"is_potentially_hazardous_asteroid"`
	Sentry                   bool   `csv:"is_sentry_object" json:"is_sentry_object"`
}

// Aggregate type tags for AggregateRow.AggregateType.
const (
	AggregateMonthlyCounts  = "monthly_counts"
	AggregateHazardRateSize = "hazard_rate_size"
	AggregateTopN           = "top_n"
)

// AggregateRow is one row of the flat aggregates table. The three aggregate
// families share one schema keyed by aggregate_type; fields that do not
// apply to a family stay null/empty.
type AggregateRow struct {
	AggregateType string `csv:"aggregate_type" json:"aggregate_type"`
	OrbitingBody  string `csv:"orbiting_body" json:"orbiting_body"`

	// monthly_counts fields.
	Hazardous Bool  `csv:"is_potentially_hazardous_asteroid" json:"is_potentially_hazardous_asteroid"`
	Month     Date  `csv:"month" json:"month"`
	Count     Float `csv:"count" json:"count"`

	// hazard_rate_size fields.
	SizeBinM       string `csv:"size_bin_m" json:"size_bin_m"`
	Total          Float  `csv:"total" json:"total"`
	HazardousTotal Float  `csv:"hazardous" json:"hazardous"`
	HazardRate     Float  `csv:"hazard_rate" json:"hazard_rate"`

	// top_n fields.
	Metric            string `csv:"metric" json:"metric"`
	ID                string `csv:"id" json:"id"`
	Name              string `csv:"name" json:"name"`
	CloseApproachDate Date   `csv:"close_approach_date" json:"close_approach_date"`
	MissDistanceKm    Float  `csv:"miss_distance_km" json:"miss_distance_km"`
	VelocityKmS       Float  `csv:"velocity_km_s" json:"velocity_km_s"`
	DiameterMidKm     Float  `csv:"diameter_mid_km" json:"diameter_mid_km"`
	EnergyProxy       Float  `csv:"energy_proxy" json:"energy_proxy"`
}

// OrbitRow is one row of the orbit enrichment table, keyed by object id.
type OrbitRow struct {
	ID                       string `csv:"id" json:"id"`
	OrbitID                  string `csv:"orbit_id" json:"orbit_id"`
	OrbitClassName           string `csv:"orbit_class_name" json:"orbit_class_name"`
	OrbitClassType           string `csv:"orbit_class_type" json:"orbit_class_type"`
	OrbitClassDescription    string `csv:"orbit_class_description" json:"orbit_class_description"`
	SemiMajorAxis            Float  `csv:"semi_major_axis" json:"semi_major_axis"`
	Eccentricity             Float  `csv:"eccentricity" json:"eccentricity"`
	Inclination              Float  `csv:"inclination" json:"inclination"`
	PerihelionDistance       Float  `csv:"perihelion_distance" json:"perihelion_distance"`
	AphelionDistance         Float  `csv:"aphelion_distance" json:"aphelion_distance"`
	MinimumOrbitIntersection Float  `csv:"minimum_orbit_intersection" json:"minimum_orbit_intersection"`
	OrbitalPeriod            Float  `csv:"orbital_period" json:"orbital_period"`
	MeanAnomaly              Float  `csv:"mean_anomaly" json:"mean_anomaly"`
	AscendingNodeLongitude   Float  `csv:"ascending_node_longitude" json:"ascending_node_longitude"`
	PerihelionArgument       Float  `csv:"perihelion_argument" json:"perihelion_argument"`
}

// RunMetadata is the provenance record written once per build.
type RunMetadata struct {
	GeneratedAt              string `json:"generated_at"`
	InputPath                string `json:"input_path"`
	InputSHA256              string `json:"input_sha256"`
	DateMin                  string `json:"date_min"`
	DateMax                  string `json:"date_max"`
	TotalApproaches          int    `json:"total_approaches"`
	UniqueObjects            int    `json:"unique_objects"`
	HazardousObjects         int    `json:"hazardous_objects"`
	HazardousApproaches      int    `json:"hazardous_approaches"`
	SentryObjects            int    `json:"sentry_objects"`
	DuplicateApproachIDCount int    `json:"duplicate_approach_id_count"`
	OrbitingBodyFilter       string `json:"orbiting_body_filter"`
	Notes                    string `json:"notes"`
}
