package models

import "time"

// FileRecord holds the path and content of a crawled file.
// Records are immutable once returned and owned by the caller.
type FileRecord struct {
	RelativePath string
	Content      string
}

// CrawlResult is the final output of a workspace crawl.
// Unchanged is nil unless the crawl ran in incremental mode.
type CrawlResult struct {
	Files     []FileRecord
	Unchanged *int
}

// HashCacheEntry stores the content digest and last-seen time for a
// single file within a workspace.
type HashCacheEntry struct {
	Digest   string    `json:"digest"`
	LastSeen time.Time `json:"lastSeen"`
}

// HashStoreDocument is the full persisted cache structure: workspace
// identifier -> file path -> entry. The whole document is read and
// rewritten on every mutation.
type HashStoreDocument map[string]map[string]HashCacheEntry
