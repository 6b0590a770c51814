package utils

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ignoreFileName is the gitignore-syntax file loaded once per crawl
// from the workspace root. Absence is not an error.
const ignoreFileName = ".gitignore"

// defaultIgnored are always excluded regardless of user rules: VCS
// metadata and the ignore file itself.
var defaultIgnored = []string{
	".git",
	".svn",
	".hg",
	".DS_Store",
	ignoreFileName,
}

// LoadIgnorePatterns reads the ignore file at the workspace root and
// returns its patterns. A missing file yields an empty pattern list.
func LoadIgnorePatterns(rootDir string) ([]string, error) {
	ignorePath := filepath.Join(rootDir, ignoreFileName)

	content, err := os.ReadFile(ignorePath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	return patterns, nil
}

// IsDefaultIgnored reports whether any segment of the slash-separated
// relative path is on the built-in ignore list.
func IsDefaultIgnored(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		for _, name := range defaultIgnored {
			if part == name {
				return true
			}
		}
	}
	return false
}

// IsIgnored checks a slash-separated relative path against ignore
// patterns. Bare patterns match the full path or any path segment, so
// "b.txt" ignores the file at every depth; patterns ending in "/"
// ignore the directory and everything under it.
func IsIgnored(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			prefix := strings.TrimSuffix(pattern, "/")
			if relPath == prefix || strings.HasPrefix(relPath, prefix+"/") {
				return true
			}
			continue
		}

		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// MatchesAnyGlob reports whether the slash-separated relative path
// matches at least one of the glob patterns.
func MatchesAnyGlob(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// matchGlob matches a pattern against the full relative path, its base
// name, and each path segment, so "*.log" and "node_modules" apply at
// any depth.
func matchGlob(pattern, relPath string) bool {
	if ok, _ := path.Match(pattern, relPath); ok {
		return true
	}

	if !strings.Contains(pattern, "/") {
		for _, part := range strings.Split(relPath, "/") {
			if ok, _ := path.Match(pattern, part); ok {
				return true
			}
		}
	}

	return false
}
