package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fine405/agentic-wiki/crawler/models"
	"go.uber.org/zap"
)

// hashStoreFileName is the deterministic name of the persisted cache
// document under the storage root.
const hashStoreFileName = "file-hashes.json"

// HashStore persists the workspace -> file path -> digest mapping as a
// single pretty-printed JSON document. Loading never fails (a missing
// or corrupt document resolves to an empty one) and a failed save is
// logged and swallowed; a lost update costs a redundant re-read on the
// next run.
type HashStore struct {
	path   string
	logger *zap.SugaredLogger
}

// NewHashStore creates a store rooted at storageRoot. An empty
// storageRoot yields an uninitialized store: loads return an empty
// document and saves are no-ops, each with a warning.
func NewHashStore(storageRoot string, logger *zap.SugaredLogger) *HashStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	path := ""
	if storageRoot != "" {
		path = filepath.Join(storageRoot, hashStoreFileName)
	}

	return &HashStore{
		path:   path,
		logger: logger,
	}
}

// Path returns the location of the persisted document, or an empty
// string for an uninitialized store.
func (s *HashStore) Path() string {
	return s.path
}

// Load reads the persisted document. Missing file, empty file, and
// malformed content all resolve to an empty document; the cache never
// blocks ingestion.
func (s *HashStore) Load() models.HashStoreDocument {
	if s.path == "" {
		s.logger.Warnw("hash store not initialized, treating cache as empty")
		return models.HashStoreDocument{}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnw("failed to read hash store, treating cache as empty", "path", s.path, "error", err)
		}
		return models.HashStoreDocument{}
	}

	if len(data) == 0 {
		return models.HashStoreDocument{}
	}

	var doc models.HashStoreDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warnw("hash store document is malformed, treating cache as empty", "path", s.path, "error", err)
		return models.HashStoreDocument{}
	}

	if doc == nil {
		doc = models.HashStoreDocument{}
	}

	return doc
}

// Save serializes the full document and writes it durably: the bytes
// go to a temporary sibling first, then an atomic rename replaces the
// real path, so a crash mid-write never corrupts the previous valid
// document. The returned error is informational; callers are expected
// to log and continue.
func (s *HashStore) Save(doc models.HashStoreDocument) error {
	if s.path == "" {
		s.logger.Warnw("hash store not initialized, skipping save")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize hash store document: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write hash store temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace hash store document: %w", err)
	}

	return nil
}

// Clear removes the persisted document entirely.
func (s *HashStore) Clear() error {
	if s.path == "" {
		return nil
	}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove hash store document: %w", err)
	}

	return nil
}
