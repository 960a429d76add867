package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"medsync/internal/models"
)

// storeDocument is the on-disk shape of the source-of-truth file. The format
// is owned by the original deployment; both fields must survive round-trips.
type storeDocument struct {
	Datapoints  []models.Datapoint `json:"datapoints"`
	LastUpdated string             `json:"last_updated"` // RFC3339, UTC
}

// FileStore is a JSON-file-backed DatapointStore. The whole file is read on
// load and rewritten on every save; there is no locking, so concurrent runs
// against the same file can clobber each other (single-scheduled-job usage).
type FileStore struct {
	path string
	doc  storeDocument
}

// LoadFileStore parses the backing file if it exists. Otherwise it creates
// the parent directory and persists an empty document immediately, so
// subsequent runs find a valid file.
func LoadFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &s.doc); err != nil {
			return nil, fmt.Errorf("parse store file %q: %w", path, err)
		}
		return s, nil
	case os.IsNotExist(err):
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
		if err := s.Save(); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("read store file %q: %w", path, err)
	}
}

// Datapoints returns the full record list.
func (s *FileStore) Datapoints() []models.Datapoint {
	return s.doc.Datapoints
}

// Append adds a datapoint with a locally synthesized identifier. It does not
// deduplicate; callers guard with Exists first.
func (s *FileStore) Append(value float64, timestamp int64, comment string) {
	s.doc.Datapoints = append(s.doc.Datapoints, models.Datapoint{
		Value:     value,
		Timestamp: timestamp,
		Comment:   comment,
		ID:        localID(timestamp, value),
	})
}

// Exists reports whether an exact (timestamp, value) match is present.
func (s *FileStore) Exists(timestamp int64, value float64) bool {
	for _, dp := range s.doc.Datapoints {
		if dp.Timestamp == timestamp && dp.Value == value {
			return true
		}
	}
	return false
}

// Save rewrites the backing file with a refreshed last_updated marker.
func (s *FileStore) Save() error {
	s.doc.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if s.doc.Datapoints == nil {
		s.doc.Datapoints = []models.Datapoint{}
	}
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write store file %q: %w", s.path, err)
	}
	return nil
}

func localID(timestamp int64, value float64) string {
	return "local_" + strconv.FormatInt(timestamp, 10) + "_" + strconv.FormatFloat(value, 'f', -1, 64)
}
