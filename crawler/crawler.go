package crawler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fine405/agentic-wiki/crawler/models"
	"github.com/fine405/agentic-wiki/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// crawlBatchSize bounds the number of concurrent file reads and
// in-flight hash computations. Batches run strictly sequentially,
// giving a natural backpressure point between them.
const crawlBatchSize = 50

// includeAllPattern is the sentinel meaning "include everything"; an
// absent include list means the same.
const includeAllPattern = "*"

// ProgressFunc is invoked after every dispatched file. Returning a
// non-nil error aborts the remaining batches; callers use this to
// propagate cancellation.
type ProgressFunc func(processed, total int, path string) error

// Options configure a single crawl.
type Options struct {
	// IncludePatterns are glob patterns a file must match to be
	// emitted. Empty, or containing "*", means include everything.
	IncludePatterns []string

	// ExcludePatterns are glob patterns that exclude files and prune
	// whole directories.
	ExcludePatterns []string

	// MaxFileSizeBytes skips files larger than this. Zero disables the
	// cap.
	MaxFileSizeBytes int64

	// AbsolutePaths reports absolute instead of root-relative paths.
	AbsolutePaths bool

	// Incremental skips files whose digest matches the recorded one.
	Incremental bool

	// WorkspaceID partitions the hash cache namespace. Falls back to
	// the root directory's base name when empty in incremental mode.
	WorkspaceID string

	// OnProgress receives a tick per dispatched file.
	OnProgress ProgressFunc
}

// candidate is a file that survived ignore rules and glob filters.
type candidate struct {
	absPath string
	// reported is the path as it will appear in the result and as the
	// hash cache key: root-relative by default, absolute on request.
	reported string
}

// DirectoryCrawler walks a workspace tree, filters it through ignore
// rules and glob patterns, and reads the surviving files in bounded
// concurrency. In incremental mode it consults the ChangeDetector per
// file so unchanged files are counted instead of re-emitted.
type DirectoryCrawler struct {
	detector *ChangeDetector
	logger   *zap.SugaredLogger
}

// NewDirectoryCrawler creates a crawler backed by the given detector.
func NewDirectoryCrawler(detector *ChangeDetector, logger *zap.SugaredLogger) *DirectoryCrawler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &DirectoryCrawler{
		detector: detector,
		logger:   logger,
	}
}

// Crawl enumerates rootDir and returns the filtered file set. It fails
// with ErrNotFound when rootDir is missing or not a directory, with
// ErrEmptyResult when no files survive filtering, and with
// ErrCancelled when cancellation is observed; per-file read errors are
// logged and the file is dropped, never aborting the whole crawl.
func (c *DirectoryCrawler) Crawl(ctx context.Context, rootDir string, opts Options) (*models.CrawlResult, error) {
	info, err := os.Stat(rootDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rootDir)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
	}

	// A broken ignore file degrades to "no ignore rules", never aborts.
	ignorePatterns, err := utils.LoadIgnorePatterns(rootDir)
	if err != nil {
		c.logger.Warnw("failed to load ignore rules, continuing without them", "root", rootDir, "error", err)
		ignorePatterns = nil
	}

	candidates, err := c.collectCandidates(rootDir, ignorePatterns, opts)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, rootDir)
	}

	workspaceID := opts.WorkspaceID
	if opts.Incremental && workspaceID == "" {
		workspaceID = filepath.Base(rootDir)
		c.logger.Warnw("incremental crawl without workspace id, falling back to root base name", "workspace", workspaceID)
	}

	var (
		records        = make([]*models.FileRecord, len(candidates))
		unchangedCount atomic.Int64
		processed      atomic.Int64
	)
	total := len(candidates)

	// Sequential batches with full intra-batch concurrency: at most
	// crawlBatchSize open file handles at any time.
	for start := 0; start < total; start += crawlBatchSize {
		end := min(start+crawlBatchSize, total)

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			cand := candidates[i]

			g.Go(func() error {
				record, unchanged := c.processCandidate(gctx, cand, opts, workspaceID)
				if unchanged {
					unchangedCount.Add(1)
				} else if record != nil {
					records[i] = record
				}

				n := processed.Add(1)
				if opts.OnProgress != nil {
					if err := opts.OnProgress(int(n), total, cand.reported); err != nil {
						return err
					}
				}

				return gctx.Err()
			})
		}

		if err := g.Wait(); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
			}
			return nil, err
		}
	}

	result := &models.CrawlResult{}
	for _, record := range records {
		if record != nil {
			result.Files = append(result.Files, *record)
		}
	}

	if opts.Incremental {
		unchanged := int(unchangedCount.Load())
		result.Unchanged = &unchanged
	}

	return result, nil
}

// collectCandidates walks the tree applying exclusion in strict order:
// ignore-rule match first, then exclusion globs. Excluded directories
// are pruned entirely so large ignored subtrees are never descended
// into. Surviving files must then match the inclusion globs.
func (c *DirectoryCrawler) collectCandidates(rootDir string, ignorePatterns []string, opts Options) ([]candidate, error) {
	var candidates []candidate

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == rootDir {
				return err
			}
			c.logger.Warnw("skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if path == rootDir {
			return nil
		}

		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if utils.IsDefaultIgnored(relPath) ||
			utils.IsIgnored(relPath, ignorePatterns) ||
			utils.MatchesAnyGlob(relPath, opts.ExcludePatterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !includeMatch(relPath, opts.IncludePatterns) {
			return nil
		}

		reported := relPath
		if opts.AbsolutePaths {
			reported = path
		}

		candidates = append(candidates, candidate{absPath: path, reported: reported})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", rootDir, err)
	}

	return candidates, nil
}

// processCandidate reads and, in incremental mode, change-checks a
// single file. The content is read once and reused for both the hash
// check and the emitted record to avoid double I/O. A nil record with
// unchanged=false means the file was dropped (size cap or read error).
func (c *DirectoryCrawler) processCandidate(ctx context.Context, cand candidate, opts Options, workspaceID string) (record *models.FileRecord, unchanged bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	if opts.MaxFileSizeBytes > 0 {
		info, err := os.Stat(cand.absPath)
		if err != nil {
			c.logger.Warnw("failed to stat file, skipping", "path", cand.reported, "error", err)
			return nil, false
		}
		if info.Size() > opts.MaxFileSizeBytes {
			c.logger.Debugw("file exceeds size cap, skipping", "path", cand.reported, "size", info.Size())
			return nil, false
		}
	}

	content, err := os.ReadFile(cand.absPath)
	if err != nil {
		c.logger.Warnw("failed to read file, skipping", "path", cand.reported, "error", err)
		return nil, false
	}

	if opts.Incremental && !c.detector.HasChanged(workspaceID, cand.reported, content) {
		return nil, true
	}

	if opts.Incremental {
		if err := c.detector.RecordDigest(workspaceID, cand.reported, content); err != nil {
			c.logger.Warnw("failed to record digest", "workspace", workspaceID, "path", cand.reported, "error", err)
		}
	}

	return &models.FileRecord{RelativePath: cand.reported, Content: string(content)}, false
}

// includeMatch applies the inclusion globs, honoring the "*" sentinel.
func includeMatch(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}

	for _, pattern := range patterns {
		if pattern == includeAllPattern {
			return true
		}
	}

	return utils.MatchesAnyGlob(relPath, patterns)
}
