package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSnapshotStore writes pretty-printed JSON files under a base directory.
type FileSnapshotStore struct {
	baseDir string
}

func NewFileSnapshotStore(baseDir string) *FileSnapshotStore {
	return &FileSnapshotStore{baseDir: baseDir}
}

// Persist writes data to <baseDir>/<name>.json, creating parent directories.
// name may contain slashes but must stay inside the base directory.
func (s *FileSnapshotStore) Persist(_ context.Context, name string, data any) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", name, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", name, err)
	}
	return nil
}

func (s *FileSnapshotStore) path(name string) (string, error) {
	name = strings.TrimSuffix(name, ".json")
	path := filepath.Join(s.baseDir, filepath.FromSlash(name)+".json")
	rel, err := filepath.Rel(s.baseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("snapshot name %q escapes %s", name, s.baseDir)
	}
	return path, nil
}
