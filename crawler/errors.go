package crawler

import "errors"

// Fatal and control-flow error kinds surfaced by a crawl. Everything
// else (unreadable files, broken ignore rules, corrupt or unwritable
// cache documents) is recovered locally and only logged.
var (
	// ErrNotFound reports that the crawl root does not exist or is not
	// a directory.
	ErrNotFound = errors.New("root directory not found")

	// ErrEmptyResult reports that no files survived filtering. Surfaced
	// as an error because it almost always indicates misconfigured
	// include/exclude patterns.
	ErrEmptyResult = errors.New("no files matched the crawl filters")

	// ErrCancelled reports cooperative cancellation. Callers should
	// suppress failure reporting for this kind.
	ErrCancelled = errors.New("operation cancelled")
)
