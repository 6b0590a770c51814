package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fine405/agentic-wiki/constants/lipgloss"
	"github.com/fine405/agentic-wiki/crawler"
	"github.com/fine405/agentic-wiki/progress"
	"github.com/fine405/agentic-wiki/utils"
	"github.com/fine405/agentic-wiki/wiki"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var previewFlag bool

var generateCmd = &cobra.Command{
	Use:   "generate [root-dir]",
	Short: "Crawl the workspace and generate its wiki pages.",
	Long: `Crawls the given directory (the current directory by default), applying
.gitignore rules and the configured include/exclude patterns, then writes one
wiki page per file plus an index. In incremental mode, files whose content
hash matches the previous run keep their existing pages.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		deps := handleRootCommand(cmd)
		if deps == nil {
			return
		}

		rootDir := deps.Cwd
		if len(args) > 0 {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Invalid root directory: %v", err)))
				return
			}
			rootDir = abs
		}

		handleGenerateCommand(deps, rootDir)
	},
}

func init() {
	generateCmd.Flags().BoolVar(&previewFlag, "preview", false, "Render the generated index page in the terminal afterwards.")
	rootCmd.AddCommand(generateCmd)
}

func handleGenerateCommand(deps *RootDependencies, rootDir string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Bound cache growth once per process, not per crawl.
	deps.Detector.Sweep(time.Duration(deps.Config.CacheMaxAgeDays) * 24 * time.Hour)

	bar, _ := pterm.DefaultProgressbar.WithTotal(100).WithTitle("Generating wiki").WithRemoveWhenDone(true).Start()
	tracker := progress.NewAggregator(ctx, newProgressSink(bar))
	tracker.Reset()

	tracker.StartStage(progress.StageScanning)
	result, err := deps.Crawler.Crawl(ctx, rootDir, crawler.Options{
		IncludePatterns:  deps.Config.IncludePatterns,
		ExcludePatterns:  deps.Config.ExcludePatterns,
		MaxFileSizeBytes: deps.Config.MaxFileSizeBytes,
		AbsolutePaths:    deps.Config.AbsolutePaths,
		Incremental:      deps.Config.Incremental,
		WorkspaceID:      deps.Config.Workspace,
		OnProgress: func(processed, total int, path string) error {
			if tracker.IsCancelled() {
				return fmt.Errorf("%w: interrupted by user", crawler.ErrCancelled)
			}
			tracker.UpdateStageProgress(float64(processed)/float64(total)*100, path)
			return nil
		},
	})
	if err != nil {
		_, _ = bar.Stop()
		reportGenerateError(err)
		return
	}
	tracker.CompleteStage()

	outputDir := deps.Config.OutputDir
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(rootDir, outputDir)
	}

	generator := wiki.NewGenerator(outputDir, tracker, deps.Logger)
	summary, err := generator.Generate(result)
	_, _ = bar.Stop()
	if err != nil {
		reportGenerateError(err)
		return
	}

	status := fmt.Sprintf("✓ Generated %d page(s) in %s", summary.PagesWritten, outputDir)
	if summary.Unchanged > 0 {
		status += fmt.Sprintf(" (%d unchanged, pages kept)", summary.Unchanged)
	}
	fmt.Println(lipgloss.Green.Render(status))

	if previewFlag {
		content, err := os.ReadFile(summary.IndexPath)
		if err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Could not read index for preview: %v", err)))
			return
		}
		if err := utils.RenderMarkdown(ctx, string(content), deps.Config.Theme); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Preview failed: %v", err)))
		}
	}
}

// reportGenerateError prints a single clear message per error kind.
// User-initiated cancellation is not a failure.
func reportGenerateError(err error) {
	switch {
	case errors.Is(err, crawler.ErrCancelled):
		fmt.Println(lipgloss.Yellow.Render("Generation cancelled."))
	case errors.Is(err, crawler.ErrEmptyResult):
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v. Check the include/exclude patterns.", err)))
	default:
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
	}
}

// newProgressSink adapts aggregator delta ticks to the pterm bar,
// carrying the fractional remainder so the increments still sum to
// the bar total.
func newProgressSink(bar *pterm.ProgressbarPrinter) progress.ReportFunc {
	var mu sync.Mutex
	var remainder float64

	return func(increment float64, message string) {
		mu.Lock()
		defer mu.Unlock()

		remainder += increment
		if step := int(remainder); step > 0 {
			bar.Add(step)
			remainder -= float64(step)
		}
		if message != "" {
			bar.UpdateTitle(message)
		}
	}
}
