package crawler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector(t *testing.T) *ChangeDetector {
	t.Helper()
	return NewChangeDetector(NewHashStore(t.TempDir(), nil), nil)
}

func TestChangeDetector_DigestDeterministic(t *testing.T) {
	detector := newTestDetector(t)

	first, err := detector.Digest("a.txt", []byte("hello"))
	require.NoError(t, err)
	second, err := detector.Digest("other-name.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, first, second, "digest depends only on content")

	changed, err := detector.Digest("a.txt", []byte("hello!"))
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestChangeDetector_DigestReadsFromDisk(t *testing.T) {
	detector := newTestDetector(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	fromDisk, err := detector.Digest(path, nil)
	require.NoError(t, err)
	fromContent, err := detector.Digest(path, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, fromContent, fromDisk)

	_, err = detector.Digest(filepath.Join(dir, "missing.txt"), nil)
	assert.Error(t, err)
}

func TestChangeDetector_HasChanged(t *testing.T) {
	detector := newTestDetector(t)

	// No entry yet: changed.
	assert.True(t, detector.HasChanged("w1", "a.txt", []byte("hello")))

	require.NoError(t, detector.RecordDigest("w1", "a.txt", []byte("hello")))

	// Exact match: unchanged.
	assert.False(t, detector.HasChanged("w1", "a.txt", []byte("hello")))

	// Different content: changed.
	assert.True(t, detector.HasChanged("w1", "a.txt", []byte("changed")))

	// Same path under another workspace: separate namespace.
	assert.True(t, detector.HasChanged("w2", "a.txt", []byte("hello")))
}

func TestChangeDetector_HasChangedUnreadableFile(t *testing.T) {
	detector := newTestDetector(t)

	// Digest failure counts as changed.
	assert.True(t, detector.HasChanged("w1", filepath.Join(t.TempDir(), "missing.txt"), nil))
}

// Recording the same content twice yields a single stable entry.
func TestChangeDetector_RecordDigestIdempotent(t *testing.T) {
	store := NewHashStore(t.TempDir(), nil)
	detector := NewChangeDetector(store, nil)

	require.NoError(t, detector.RecordDigest("w1", "a.txt", []byte("hello")))
	first := store.Load()["w1"]["a.txt"]

	require.NoError(t, detector.RecordDigest("w1", "a.txt", []byte("hello")))
	doc := store.Load()
	require.Len(t, doc, 1)
	require.Len(t, doc["w1"], 1)
	assert.Equal(t, first.Digest, doc["w1"]["a.txt"].Digest)

	assert.False(t, detector.HasChanged("w1", "a.txt", []byte("hello")))
}

func TestChangeDetector_SweepRemovesStaleEntries(t *testing.T) {
	store := NewHashStore(t.TempDir(), nil)
	detector := NewChangeDetector(store, nil)

	now := time.Now()

	// w1 has one fresh and one stale entry; w2 only stale ones.
	detector.now = func() time.Time { return now.Add(-48 * time.Hour) }
	require.NoError(t, detector.RecordDigest("w1", "old.txt", []byte("old")))
	require.NoError(t, detector.RecordDigest("w2", "ancient.txt", []byte("ancient")))

	detector.now = func() time.Time { return now }
	require.NoError(t, detector.RecordDigest("w1", "fresh.txt", []byte("fresh")))

	removed := detector.Sweep(24 * time.Hour)
	assert.Equal(t, 2, removed)

	doc := store.Load()
	require.Len(t, doc, 1, "workspace left empty is pruned")
	require.Len(t, doc["w1"], 1)
	assert.Contains(t, doc["w1"], "fresh.txt")
}

func TestChangeDetector_SweepNothingToRemove(t *testing.T) {
	store := NewHashStore(t.TempDir(), nil)
	detector := NewChangeDetector(store, nil)

	require.NoError(t, detector.RecordDigest("w1", "a.txt", []byte("hello")))

	removed := detector.Sweep(24 * time.Hour)
	assert.Zero(t, removed)
	assert.Len(t, store.Load()["w1"], 1)
}
