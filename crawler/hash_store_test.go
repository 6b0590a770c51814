package crawler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fine405/agentic-wiki/crawler/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Writing a document and reading it back yields an identical mapping.
func TestHashStore_RoundTrip(t *testing.T) {
	store := NewHashStore(t.TempDir(), nil)

	now := time.Now().UTC()
	doc := models.HashStoreDocument{
		"w1": {
			"a.txt":     {Digest: "aaaa", LastSeen: now},
			"sub/b.txt": {Digest: "bbbb", LastSeen: now.Add(-time.Hour)},
		},
		"w2": {
			"c.txt": {Digest: "cccc", LastSeen: now},
		},
	}

	require.NoError(t, store.Save(doc))

	loaded := store.Load()
	require.Len(t, loaded, 2)
	require.Len(t, loaded["w1"], 2)
	assert.Equal(t, "aaaa", loaded["w1"]["a.txt"].Digest)
	assert.Equal(t, "bbbb", loaded["w1"]["sub/b.txt"].Digest)
	assert.True(t, now.Equal(loaded["w1"]["a.txt"].LastSeen))
	assert.Equal(t, "cccc", loaded["w2"]["c.txt"].Digest)

	// Atomic replace leaves no temp sibling behind.
	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestHashStore_LoadMissingFile(t *testing.T) {
	store := NewHashStore(t.TempDir(), nil)

	doc := store.Load()
	require.NotNil(t, doc)
	assert.Empty(t, doc)
}

func TestHashStore_LoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	store := NewHashStore(dir, nil)
	require.NoError(t, os.WriteFile(store.Path(), nil, 0644))

	doc := store.Load()
	require.NotNil(t, doc)
	assert.Empty(t, doc)
}

// Malformed content resolves to an empty document, never an error.
func TestHashStore_LoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	store := NewHashStore(dir, nil)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not valid json"), 0644))

	doc := store.Load()
	require.NotNil(t, doc)
	assert.Empty(t, doc)
}

// An uninitialized store loads empty and saves as a no-op.
func TestHashStore_Uninitialized(t *testing.T) {
	store := NewHashStore("", nil)

	assert.Empty(t, store.Path())
	assert.Empty(t, store.Load())
	assert.NoError(t, store.Save(models.HashStoreDocument{"w": {}}))
	assert.NoError(t, store.Clear())
}

func TestHashStore_SaveCreatesStorageDir(t *testing.T) {
	storageDir := filepath.Join(t.TempDir(), "nested", "storage")
	store := NewHashStore(storageDir, nil)

	require.NoError(t, store.Save(models.HashStoreDocument{}))

	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestHashStore_Clear(t *testing.T) {
	store := NewHashStore(t.TempDir(), nil)
	require.NoError(t, store.Save(models.HashStoreDocument{
		"w1": {"a.txt": {Digest: "aaaa", LastSeen: time.Now()}},
	}))

	require.NoError(t, store.Clear())
	assert.Empty(t, store.Load())

	// Clearing an already-missing document is not an error.
	assert.NoError(t, store.Clear())
}
