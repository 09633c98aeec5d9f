package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jszwec/csvutil"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

func (s *Store) writeCSVFile(path string, rows any) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return s.writeAtomic(path, data)
}

func (s *Store) readCSVFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := csvutil.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadFlatCSV loads a flattened close-approach CSV, rejecting files whose
// header is missing any of the columns the table build depends on. Missing
// columns are reported sorted, all at once.
func ReadFlatCSV(path string) ([]domain.FlatApproach, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	present := make(map[string]struct{}, len(dec.Header()))
	for _, col := range dec.Header() {
		present[col] = struct{}{}
	}
	var missing []string
	for _, col := range domain.RequiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &domain.SchemaError{Reason: fmt.Sprintf("flattened input missing required columns: %v", missing)}
	}

	var rows []domain.FlatApproach
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}
