package cache

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
)

// FailureRecord is one append-only row of the failure log: a window (or a
// windowless orbit lookup) that could not be fetched or validated. The log
// is audit material only; it never drives control flow.
type FailureRecord struct {
	StartDate string `csv:"start_date"`
	EndDate   string `csv:"end_date"`
	Error     string `csv:"error"`
}

// appendFailure adds one row to failures.csv, writing the header first when
// the file does not exist yet. Logging a failure must never mask the
// original problem, so write errors are reported but otherwise swallowed.
func (s *Store) appendFailure(startDate, endDate, errText string) {
	path := filepath.Join(s.dir, failureLogName)

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Error("failure log open failed", "path", path, "error", err)
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	enc := csvutil.NewEncoder(w)
	enc.AutoHeader = writeHeader

	rec := FailureRecord{StartDate: startDate, EndDate: endDate, Error: errText}
	if err := enc.Encode(rec); err != nil {
		s.logger.Error("failure log append failed", "path", path, "error", err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Error("failure log flush failed", "path", path, "error", err)
	}
}

// ReadFailures loads the full failure log, mostly for tests and diagnostics.
func ReadFailures(dir string) ([]FailureRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, failureLogName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var records []FailureRecord
	if err := csvutil.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
