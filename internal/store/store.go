// Package store persists the processed tables. Every table is written as
// CSV and Parquet side by side; metadata is a single JSON document. Writes
// go through a temp file and rename, so readers never observe a partial
// table.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/neo-approach-etl/internal/domain"
)

const (
	FlattenedFile  = "flattened.csv"
	ObjectsFile    = "objects"
	ApproachesFile = "approaches"
	AggregatesFile = "aggregates"
	OrbitsFile     = "orbits"
	MetadataFile   = "metadata.json"
)

// Store reads and writes the processed dataset under one directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

func (s *Store) Dir() string { return s.dir }

// FlattenedPath is the canonical location of the flattened close-approach
// dataset, the input to every table build.
func (s *Store) FlattenedPath() string {
	return filepath.Join(s.dir, FlattenedFile)
}

func (s *Store) WriteFlattened(rows []domain.FlatApproach) (string, error) {
	path := s.FlattenedPath()
	if err := s.writeCSVFile(path, rows); err != nil {
		return "", err
	}
	s.logger.Info("wrote flattened dataset", "path", path, "rows", len(rows))
	return path, nil
}

// ReadFlattened loads the flattened dataset, refusing files whose header is
// missing any required column.
func (s *Store) ReadFlattened() ([]domain.FlatApproach, error) {
	return ReadFlatCSV(s.FlattenedPath())
}

func (s *Store) WriteObjects(rows []domain.ObjectRow) error {
	if err := s.writeCSVFile(filepath.Join(s.dir, ObjectsFile+".csv"), rows); err != nil {
		return err
	}
	return s.writeParquetFile(filepath.Join(s.dir, ObjectsFile+".parquet"), objectsRecord(rows))
}

func (s *Store) WriteApproaches(rows []domain.ApproachRow) error {
	if err := s.writeCSVFile(filepath.Join(s.dir, ApproachesFile+".csv"), rows); err != nil {
		return err
	}
	return s.writeParquetFile(filepath.Join(s.dir, ApproachesFile+".parquet"), approachesRecord(rows))
}

func (s *Store) WriteAggregates(rows []domain.AggregateRow) error {
	if err := s.writeCSVFile(filepath.Join(s.dir, AggregatesFile+".csv"), rows); err != nil {
		return err
	}
	return s.writeParquetFile(filepath.Join(s.dir, AggregatesFile+".parquet"), aggregatesRecord(rows))
}

func (s *Store) WriteOrbits(rows []domain.OrbitRow) error {
	if err := s.writeCSVFile(filepath.Join(s.dir, OrbitsFile+".csv"), rows); err != nil {
		return err
	}
	return s.writeParquetFile(filepath.Join(s.dir, OrbitsFile+".parquet"), orbitsRecord(rows))
}

func (s *Store) ReadObjects() ([]domain.ObjectRow, error) {
	var rows []domain.ObjectRow
	err := s.readCSVFile(filepath.Join(s.dir, ObjectsFile+".csv"), &rows)
	return rows, err
}

func (s *Store) ReadApproaches() ([]domain.ApproachRow, error) {
	var rows []domain.ApproachRow
	err := s.readCSVFile(filepath.Join(s.dir, ApproachesFile+".csv"), &rows)
	return rows, err
}

func (s *Store) ReadAggregates() ([]domain.AggregateRow, error) {
	var rows []domain.AggregateRow
	err := s.readCSVFile(filepath.Join(s.dir, AggregatesFile+".csv"), &rows)
	return rows, err
}

func (s *Store) ReadOrbits() ([]domain.OrbitRow, error) {
	var rows []domain.OrbitRow
	err := s.readCSVFile(filepath.Join(s.dir, OrbitsFile+".csv"), &rows)
	return rows, err
}

func (s *Store) WriteMetadata(md domain.RunMetadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run metadata: %w", err)
	}
	return s.writeAtomic(filepath.Join(s.dir, MetadataFile), append(data, '\n'))
}

func (s *Store) ReadMetadata() (domain.RunMetadata, error) {
	var md domain.RunMetadata
	data, err := os.ReadFile(filepath.Join(s.dir, MetadataFile))
	if err != nil {
		return md, err
	}
	if err := json.Unmarshal(data, &md); err != nil {
		return md, fmt.Errorf("decoding run metadata: %w", err)
	}
	return md, nil
}

// writeAtomic writes through a temp file in the target directory and
// renames into place.
func (s *Store) writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// HashFile returns the hex SHA-256 of a file's contents, the provenance
// hash recorded in run metadata.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
