// Package cache memoizes per-workout, per-stage JSON artifacts on disk.
// Artifacts are plain indented JSON so they can be inspected and hand-edited.
// There is no TTL and no locking: stages are idempotent, so concurrent workers
// racing on the same key is harmless and the last writer wins.
package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store reads and writes stage artifacts under a single directory as
// <workout_id>_<stage>.json.
type Store struct {
	dir          string
	forceRefresh bool
	log          *slog.Logger
}

// NewStore creates the cache directory if needed. With forceRefresh set, Get
// always misses while Put keeps writing, so a run repopulates the cache.
func NewStore(dir string, forceRefresh bool) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir, forceRefresh: forceRefresh, log: slog.With("component", "cache")}, nil
}

// Dir returns the cache directory path.
func (s *Store) Dir() string { return s.dir }

// Get loads the artifact for (workoutID, stage) into v. It returns false on a
// miss. A corrupt or unreadable artifact is treated as a miss and logged.
func (s *Store) Get(stage, workoutID string, v any) bool {
	if s.forceRefresh {
		return false
	}
	path := s.path(stage, workoutID)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("Cache artifact unreadable, treating as miss", "path", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("Cache artifact corrupt, treating as miss", "path", path, "error", err)
		return false
	}
	return true
}

// GetRaw is Get for callers that keep the artifact as raw JSON.
func (s *Store) GetRaw(stage, workoutID string) (json.RawMessage, bool) {
	var raw json.RawMessage
	if !s.Get(stage, workoutID, &raw) {
		return nil, false
	}
	return raw, true
}

// Put serializes v as indented UTF-8 JSON. Write errors are logged, not
// returned: a failed cache write only costs a recomputation later.
func (s *Store) Put(stage, workoutID string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.log.Warn("Cache artifact not serializable", "stage", stage, "workout_id", workoutID, "error", err)
		return
	}
	path := s.path(stage, workoutID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Warn("Cache artifact write failed", "path", path, "error", err)
	}
}

func (s *Store) path(stage, workoutID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", workoutID, stage))
}
