// Package wiki turns a crawl result into a markdown wiki: one page per
// file with a code-structure outline, plus an index page. This is the
// downstream expensive processing the incremental crawler exists to
// skip for unchanged files.
package wiki

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fine405/agentic-wiki/crawler"
	"github.com/fine405/agentic-wiki/crawler/models"
	"github.com/fine405/agentic-wiki/progress"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// frontMatter is the YAML header on every generated page.
type frontMatter struct {
	Title       string    `yaml:"title"`
	Source      string    `yaml:"source"`
	Language    string    `yaml:"language,omitempty"`
	RunID       string    `yaml:"runId"`
	GeneratedAt time.Time `yaml:"generatedAt"`
}

// Summary reports what a generation run produced.
type Summary struct {
	RunID        string
	PagesWritten int
	Unchanged    int
	IndexPath    string
}

// Generator assembles and writes wiki pages, reporting through the
// shared progress aggregator.
type Generator struct {
	outputDir string
	tracker   *progress.Aggregator
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewGenerator creates a generator writing under outputDir.
func NewGenerator(outputDir string, tracker *progress.Aggregator, logger *zap.SugaredLogger) *Generator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Generator{
		outputDir: outputDir,
		tracker:   tracker,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate runs the analyzing, generating and writing stages over the
// crawl result. Pages for unchanged files (absent from the result in
// incremental mode) are left on disk untouched. Cancellation is
// observed between files and surfaces as ErrCancelled.
func (g *Generator) Generate(result *models.CrawlResult) (*Summary, error) {
	runID := uuid.NewString()
	total := len(result.Files)

	g.tracker.StartStage(progress.StageAnalyzing)
	outlines := make([][]string, total)
	for i, file := range result.Files {
		if g.tracker.IsCancelled() {
			return nil, fmt.Errorf("%w: generation interrupted", crawler.ErrCancelled)
		}
		outlines[i] = ExtractOutline(file.RelativePath, []byte(file.Content))
		g.tracker.UpdateStageProgress(float64(i+1)/float64(total)*100, file.RelativePath)
	}
	g.tracker.CompleteStage()

	g.tracker.StartStage(progress.StageGenerating)
	pages := make([]string, total)
	for i, file := range result.Files {
		if g.tracker.IsCancelled() {
			return nil, fmt.Errorf("%w: generation interrupted", crawler.ErrCancelled)
		}
		page, err := g.renderPage(file, outlines[i], runID)
		if err != nil {
			return nil, fmt.Errorf("failed to render page for %s: %w", file.RelativePath, err)
		}
		pages[i] = page
		g.tracker.UpdateStageProgress(float64(i+1)/float64(total)*100, file.RelativePath)
	}
	g.tracker.CompleteStage()

	g.tracker.StartStage(progress.StageWriting)
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	written := 0
	for i, file := range result.Files {
		if g.tracker.IsCancelled() {
			return nil, fmt.Errorf("%w: generation interrupted", crawler.ErrCancelled)
		}

		pagePath := g.pagePath(file.RelativePath)
		if err := os.MkdirAll(filepath.Dir(pagePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create page directory: %w", err)
		}
		if err := os.WriteFile(pagePath, []byte(pages[i]), 0644); err != nil {
			return nil, fmt.Errorf("failed to write page %s: %w", pagePath, err)
		}

		written++
		g.tracker.UpdateStageProgress(float64(i+1)/float64(total+1)*100, pagePath)
	}

	unchanged := 0
	if result.Unchanged != nil {
		unchanged = *result.Unchanged
	}

	indexPath := filepath.Join(g.outputDir, "index.md")
	index, err := g.renderIndex(result.Files, unchanged, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to render index: %w", err)
	}
	if err := os.WriteFile(indexPath, []byte(index), 0644); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}
	g.tracker.CompleteStage()

	g.tracker.StartStage(progress.StageCompleted)
	g.tracker.CompleteStage()

	g.logger.Infow("wiki generation finished", "runId", runID, "pages", written, "unchanged", unchanged)

	return &Summary{
		RunID:        runID,
		PagesWritten: written,
		Unchanged:    unchanged,
		IndexPath:    indexPath,
	}, nil
}

// pagePath maps a reported file path to its page location. Absolute
// reported paths (absolute-path crawls) collapse to their base name so
// pages always land under the output directory.
func (g *Generator) pagePath(reported string) string {
	rel := reported
	if filepath.IsAbs(rel) {
		rel = filepath.Base(rel)
	}
	return filepath.Join(g.outputDir, filepath.FromSlash(rel)+".md")
}

func (g *Generator) renderPage(file models.FileRecord, outline []string, runID string) (string, error) {
	meta := frontMatter{
		Title:       filepath.Base(file.RelativePath),
		Source:      file.RelativePath,
		Language:    DetectLanguage(file.RelativePath),
		RunID:       runID,
		GeneratedAt: g.now(),
	}

	header, err := yaml.Marshal(&meta)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(fmt.Sprintf("# %s\n\n", meta.Title))

	if len(outline) > 0 {
		b.WriteString("## Structure\n\n")
		for _, element := range outline {
			b.WriteString(fmt.Sprintf("- %s\n", element))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Source\n\n")
	b.WriteString(fmt.Sprintf("```%s\n", meta.Language))
	b.WriteString(file.Content)
	if !strings.HasSuffix(file.Content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	return b.String(), nil
}

func (g *Generator) renderIndex(files []models.FileRecord, unchanged int, runID string) (string, error) {
	meta := frontMatter{
		Title:       "Workspace Wiki",
		Source:      ".",
		RunID:       runID,
		GeneratedAt: g.now(),
	}

	header, err := yaml.Marshal(&meta)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString("# Workspace Wiki\n\n")

	for _, file := range files {
		rel := file.RelativePath
		if filepath.IsAbs(rel) {
			rel = filepath.Base(rel)
		}
		b.WriteString(fmt.Sprintf("- [%s](%s.md)\n", file.RelativePath, rel))
	}

	if unchanged > 0 {
		b.WriteString(fmt.Sprintf("\n%d unchanged file(s) kept their pages from the previous run.\n", unchanged))
	}

	return b.String(), nil
}
