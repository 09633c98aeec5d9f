// Command genmock generates a synthetic NeoWs raw cache so the pipeline can
// be exercised end to end without an API key. It writes feed windows in the
// cache's naming scheme plus matching per-object orbit lookups; a fetch over
// the same date range then runs entirely from cache.
//
// Usage:
//
//	go run ./cmd/genmock -out data/raw -start 2026-01-01 -windows 4 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

var orbitClasses = []struct{ name, class string }{
	{"Apollo", "APO"},
	{"Aten", "ATE"},
	{"Amor", "AMO"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "cache directory to write fixtures into")
	startFlag := flag.String("start", "2026-01-01", "first window start date (YYYY-MM-DD)")
	windows := flag.Int("windows", 4, "number of 7-day feed windows")
	objects := flag.Int("objects", 5, "distinct objects per window")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	start, err := domain.ParseDate(*startFlag)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))
	seen := map[string]bool{}

	for i := 0; i < *windows; i++ {
		w := domain.NewWindow(start.AddDate(0, 0, i*7), start.AddDate(0, 0, i*7+6))
		payload, ids := mockFeed(rng, w, *objects)

		name := fmt.Sprintf("feed_%s_%s.json",
			w.Start.Format(domain.DateFormat), w.End.Format(domain.DateFormat))
		if err := writeJSON(filepath.Join(*out, name), payload); err != nil {
			return err
		}
		log.Printf("%s: %d objects", name, len(ids))

		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if err := writeJSON(filepath.Join(*out, "neo_"+id+".json"), mockOrbit(rng, id)); err != nil {
				return err
			}
		}
	}

	log.Printf("total: %d windows, %d objects", *windows, len(seen))
	return nil
}

// mockFeed builds one raw feed window. Object ids repeat across windows
// (the pool is small on purpose), so object dedup has something to do.
func mockFeed(rng *rand.Rand, w domain.Window, objects int) (map[string]any, []string) {
	days := map[string]any{}
	var ids []string
	for day := w.Start; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		var entries []any
		for i := 0; i < objects; i++ {
			id := fmt.Sprintf("%d", 3000000+rng.Intn(40))
			ids = append(ids, id)
			entries = append(entries, mockObject(rng, id, day))
		}
		days[day.Format(domain.DateFormat)] = entries
	}
	return map[string]any{
		"element_count":      len(ids),
		"near_earth_objects": days,
	}, ids
}

func mockObject(rng *rand.Rand, id string, day time.Time) map[string]any {
	diamMinKm := 0.01 + rng.Float64()*0.5
	diamMaxKm := diamMinKm * (1.5 + rng.Float64())
	approach := time.Date(day.Year(), day.Month(), day.Day(),
		rng.Intn(24), rng.Intn(60), 0, 0, time.UTC)

	obj := map[string]any{
		"id":                                id,
		"neo_reference_id":                  id,
		"name":                              fmt.Sprintf("(2026 XX%s)", id[len(id)-2:]),
		"nasa_jpl_url":                      "https://ssd.jpl.nasa.gov/tools/sbdb_lookup.html#/?sstr=" + id,
		"absolute_magnitude_h":              fmt.Sprintf("%.2f", 18+rng.Float64()*10),
		"is_potentially_hazardous_asteroid": rng.Float64() < 0.15,
		"is_sentry_object":                  rng.Float64() < 0.05,
		"estimated_diameter": map[string]any{
			"kilometers": diameterRange(diamMinKm, diamMaxKm),
			"meters":     diameterRange(diamMinKm*1000, diamMaxKm*1000),
		},
		"close_approach_data": []any{map[string]any{
			"close_approach_date":       day.Format(domain.DateFormat),
			"close_approach_date_full":  approach.Format("2006-Jan-02 15:04"),
			"epoch_date_close_approach": approach.UnixMilli(),
			"relative_velocity": map[string]any{
				"kilometers_per_second": fmt.Sprintf("%.6f", 5+rng.Float64()*35),
				"kilometers_per_hour":   fmt.Sprintf("%.6f", (5+rng.Float64()*35)*3600),
				"miles_per_hour":        fmt.Sprintf("%.6f", (5+rng.Float64()*35)*2236.9),
			},
			"miss_distance": map[string]any{
				"astronomical": fmt.Sprintf("%.8f", rng.Float64()*0.5),
				"lunar":        fmt.Sprintf("%.6f", rng.Float64()*190),
				"kilometers":   fmt.Sprintf("%.3f", 1e5+rng.Float64()*7e7),
				"miles":        fmt.Sprintf("%.3f", (1e5+rng.Float64()*7e7)*0.6213),
			},
			"orbiting_body": "Earth",
		}},
	}

	// Sprinkle in the feed's known looseness so tolerant decoding is
	// exercised: occasional null magnitude or missing diameter block.
	if rng.Float64() < 0.1 {
		obj["absolute_magnitude_h"] = nil
	}
	if rng.Float64() < 0.05 {
		delete(obj, "estimated_diameter")
	}
	return obj
}

func diameterRange(lo, hi float64) map[string]any {
	return map[string]any{
		"estimated_diameter_min": lo,
		"estimated_diameter_max": hi,
	}
}

func mockOrbit(rng *rand.Rand, id string) map[string]any {
	class := orbitClasses[rng.Intn(len(orbitClasses))]
	return map[string]any{
		"id": id,
		"orbital_data": map[string]any{
			"orbit_id": fmt.Sprintf("%d", 1+rng.Intn(200)),
			"orbit_class": map[string]any{
				"orbit_class_name":        class.name,
				"orbit_class_type":        class.class,
				"orbit_class_description": class.name + "-class near-Earth asteroid",
			},
			"semi_major_axis":            fmt.Sprintf("%.6f", 0.7+rng.Float64()*2),
			"eccentricity":               fmt.Sprintf("%.6f", rng.Float64()*0.8),
			"inclination":                fmt.Sprintf("%.4f", rng.Float64()*30),
			"perihelion_distance":        fmt.Sprintf("%.6f", 0.2+rng.Float64()*0.9),
			"aphelion_distance":          fmt.Sprintf("%.6f", 1.1+rng.Float64()*3),
			"minimum_orbit_intersection": fmt.Sprintf("%.8f", rng.Float64()*0.2),
			"orbital_period":             fmt.Sprintf("%.2f", 200+rng.Float64()*1500),
			"mean_anomaly":               fmt.Sprintf("%.4f", rng.Float64()*360),
			"ascending_node_longitude":   fmt.Sprintf("%.4f", rng.Float64()*360),
			"perihelion_argument":        fmt.Sprintf("%.4f", rng.Float64()*360),
		},
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
