package crawler

import (
	"fmt"
	"os"
	"time"

	"github.com/fine405/agentic-wiki/crawler/models"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

// ChangeDetector answers "has this file changed since the last run"
// by comparing content digests against the persisted HashStore.
// Digests are xxh3 fingerprints: fast and deterministic, used only
// for change detection, not for security.
type ChangeDetector struct {
	store  *HashStore
	logger *zap.SugaredLogger

	// now is swappable so sweep tests can control the clock.
	now func() time.Time
}

// NewChangeDetector creates a detector backed by the given store.
func NewChangeDetector(store *HashStore, logger *zap.SugaredLogger) *ChangeDetector {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &ChangeDetector{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Digest computes the content hash for a file. When content is nil it
// is read from disk first; a read failure is returned to the caller,
// who must treat the file as changed.
func (d *ChangeDetector) Digest(path string, content []byte) (string, error) {
	if content == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file for digest: %s: %w", path, err)
		}
		content = data
	}

	sum := xxh3.Hash128(content).Bytes()
	return fmt.Sprintf("%x", sum), nil
}

// HasChanged reports whether the file differs from the recorded state
// for the workspace. Missing entries and digest failures both count as
// changed; only an exact digest match counts as unchanged.
func (d *ChangeDetector) HasChanged(workspaceID, path string, content []byte) bool {
	digest, err := d.Digest(path, content)
	if err != nil {
		d.logger.Warnw("digest computation failed, assuming file changed", "path", path, "error", err)
		return true
	}

	doc := d.store.Load()
	workspace, ok := doc[workspaceID]
	if !ok {
		return true
	}

	entry, ok := workspace[path]
	if !ok {
		return true
	}

	return entry.Digest != digest
}

// RecordDigest commits the current digest for the file under the
// workspace, stamping it with the current time. The full document is
// loaded and rewritten per call; concurrent callers within a crawl
// batch race on the save and the last writer wins. A lost update costs
// one redundant re-hash on the next run.
func (d *ChangeDetector) RecordDigest(workspaceID, path string, content []byte) error {
	digest, err := d.Digest(path, content)
	if err != nil {
		return err
	}

	doc := d.store.Load()
	workspace, ok := doc[workspaceID]
	if !ok {
		workspace = make(map[string]models.HashCacheEntry)
		doc[workspaceID] = workspace
	}

	workspace[path] = models.HashCacheEntry{
		Digest:   digest,
		LastSeen: d.now(),
	}

	if err := d.store.Save(doc); err != nil {
		d.logger.Warnw("failed to persist hash store update", "workspace", workspaceID, "path", path, "error", err)
	}

	return nil
}

// Sweep removes every entry whose lastSeen is older than maxAge and
// prunes workspaces left empty. The document is persisted only when at
// least one entry was removed. Intended to run once per process
// lifetime to bound cache growth. Returns the number of removed
// entries.
func (d *ChangeDetector) Sweep(maxAge time.Duration) int {
	doc := d.store.Load()
	cutoff := d.now().Add(-maxAge)

	removed := 0
	for workspaceID, workspace := range doc {
		for path, entry := range workspace {
			if entry.LastSeen.Before(cutoff) {
				delete(workspace, path)
				removed++
			}
		}
		if len(workspace) == 0 {
			delete(doc, workspaceID)
		}
	}

	if removed == 0 {
		return 0
	}

	if err := d.store.Save(doc); err != nil {
		d.logger.Warnw("failed to persist hash store after sweep", "removed", removed, "error", err)
	}

	d.logger.Infow("swept stale hash cache entries", "removed", removed, "maxAge", maxAge)
	return removed
}
