// Command validate performs end-to-end integrity checks on a processed
// dataset: the flattened input, the built tables, the recorded metadata,
// and the aggregates. Tables are rebuilt from the flattened input and
// compared against what is on disk, so any drift between a build and its
// inputs shows up.
//
// Usage:
//
//	go run ./cmd/validate -processed-dir data/processed
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/couchcryptid/neo-approach-etl/internal/build"
	"github.com/couchcryptid/neo-approach-etl/internal/store"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	processedDir := flag.String("processed-dir", "data/processed", "directory holding the processed dataset")
	flag.Parse()

	phases := runChecks(*processedDir)

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	if failed > 0 {
		fmt.Printf("\n%d of %d phases failed\n", failed, len(phases))
		os.Exit(1)
	}
	fmt.Printf("\nall %d phases passed\n", len(phases))
}

func runChecks(dir string) []*phase {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := store.NewStore(dir, logger)

	input := &phase{name: "flattened input"}
	rows, err := s.ReadFlattened()
	if err != nil {
		input.errorf("reading flattened dataset: %v", err)
		return []*phase{input}
	}
	if len(rows) == 0 {
		input.errorf("flattened dataset has no rows")
	}

	rebuild := &phase{name: "table rebuild"}
	res, err := build.Build(rows, logger)
	if err != nil {
		rebuild.errorf("rebuilding tables: %v", err)
		return []*phase{input, rebuild}
	}

	storedObjects, err := s.ReadObjects()
	if err != nil {
		rebuild.errorf("reading objects table: %v", err)
	} else if !reflect.DeepEqual(res.Objects, storedObjects) {
		rebuild.errorf("objects table differs from rebuild (%d stored, %d rebuilt)",
			len(storedObjects), len(res.Objects))
	}

	storedApproaches, err := s.ReadApproaches()
	if err != nil {
		rebuild.errorf("reading approaches table: %v", err)
	} else if !reflect.DeepEqual(res.Approaches, storedApproaches) {
		rebuild.errorf("approaches table differs from rebuild (%d stored, %d rebuilt)",
			len(storedApproaches), len(res.Approaches))
	}

	aggregates := &phase{name: "aggregates"}
	storedAggregates, err := s.ReadAggregates()
	if err != nil {
		aggregates.errorf("reading aggregates table: %v", err)
	} else if recomputed := build.ComputeAggregates(res.Approaches, res.Objects); !reflect.DeepEqual(recomputed, storedAggregates) {
		aggregates.errorf("aggregates differ from recomputation (%d stored, %d recomputed)",
			len(storedAggregates), len(recomputed))
	}

	metadata := &phase{name: "run metadata"}
	md, err := s.ReadMetadata()
	if err != nil {
		metadata.errorf("reading metadata: %v", err)
	} else {
		if md.TotalApproaches != len(res.Approaches) {
			metadata.errorf("total_approaches is %d, rebuild has %d", md.TotalApproaches, len(res.Approaches))
		}
		if md.UniqueObjects != len(res.Objects) {
			metadata.errorf("unique_objects is %d, rebuild has %d", md.UniqueObjects, len(res.Objects))
		}
		if md.DuplicateApproachIDCount != res.DuplicateApproachIDCount {
			metadata.errorf("duplicate_approach_id_count is %d, rebuild found %d",
				md.DuplicateApproachIDCount, res.DuplicateApproachIDCount)
		}
		sum, err := store.HashFile(s.FlattenedPath())
		if err != nil {
			metadata.errorf("hashing flattened input: %v", err)
		} else if md.InputSHA256 != sum {
			metadata.errorf("input_sha256 does not match the flattened file on disk")
		}
	}

	return []*phase{input, rebuild, aggregates, metadata}
}
