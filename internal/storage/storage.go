// Package storage persists travel environment data: JSON snapshots of the
// POI tables on disk and a SQLite mirror served as a paged environment.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ai-travel-planner/internal/poi"
)

// SnapshotStore keeps one JSON file of POI tables per route.
type SnapshotStore struct {
	basePath string
}

// NewSnapshotStore creates a new SnapshotStore and ensures the base directory exists.
func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &SnapshotStore{basePath: basePath}, nil
}

// sanitize makes a city name safe for filenames.
// Dir returns the directory holding the snapshot files.
func (s *SnapshotStore) Dir() string {
	return s.basePath
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "-", " ", "_").Replace(name)
}

func (s *SnapshotStore) path(origin, dest string) string {
	return filepath.Join(s.basePath, fmt.Sprintf("%s_%s.json", sanitize(origin), sanitize(dest)))
}

// Save writes the tables collected for a trip from origin to t.City.
func (s *SnapshotStore) Save(origin string, t *poi.Tables) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tables: %w", err)
	}
	if err := os.WriteFile(s.path(origin, t.City), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot of the trip from origin to dest.
func (s *SnapshotStore) Load(origin, dest string) (*poi.Tables, error) {
	return LoadTablesFile(s.path(origin, dest))
}

// Exists reports whether a snapshot of the trip is stored.
func (s *SnapshotStore) Exists(origin, dest string) bool {
	_, err := os.Stat(s.path(origin, dest))
	return err == nil
}

// LoadTablesFile reads POI tables from a JSON file.
func LoadTablesFile(path string) (*poi.Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var t poi.Tables
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &t, nil
}
