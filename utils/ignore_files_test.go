package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	content := "# build output\nb.txt\n\ndist/\n*.log\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte(content), 0644))

	patterns, err := LoadIgnorePatterns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "dist/", "*.log"}, patterns)
}

func TestLoadIgnorePatterns_MissingFile(t *testing.T) {
	patterns, err := LoadIgnorePatterns(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, patterns)
}

func TestIsIgnored(t *testing.T) {
	patterns := []string{"b.txt", "dist/", "*.log"}

	assert.True(t, IsIgnored("b.txt", patterns))
	assert.True(t, IsIgnored("sub/b.txt", patterns), "bare names apply at any depth")
	assert.True(t, IsIgnored("dist", patterns))
	assert.True(t, IsIgnored("dist/bundle.js", patterns))
	assert.True(t, IsIgnored("logs/app.log", patterns))

	assert.False(t, IsIgnored("a.txt", patterns))
	assert.False(t, IsIgnored("distribution/readme.md", patterns))
}

func TestIsDefaultIgnored(t *testing.T) {
	assert.True(t, IsDefaultIgnored(".git"))
	assert.True(t, IsDefaultIgnored(".git/config"))
	assert.True(t, IsDefaultIgnored(".gitignore"))
	assert.True(t, IsDefaultIgnored("sub/.DS_Store"))

	assert.False(t, IsDefaultIgnored("a.txt"))
	assert.False(t, IsDefaultIgnored("src/main.go"))
}

func TestMatchesAnyGlob(t *testing.T) {
	assert.True(t, MatchesAnyGlob("main.go", []string{"*.go"}))
	assert.True(t, MatchesAnyGlob("src/main.go", []string{"*.go"}), "extension globs apply at any depth")
	assert.True(t, MatchesAnyGlob("node_modules/pkg/index.js", []string{"node_modules"}))
	assert.True(t, MatchesAnyGlob("docs/guide.md", []string{"docs/*.md"}))

	assert.False(t, MatchesAnyGlob("main.go", []string{"*.ts"}))
	assert.False(t, MatchesAnyGlob("main.go", nil))
}
