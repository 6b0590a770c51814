package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fine405/agentic-wiki/config"
	"github.com/fine405/agentic-wiki/constants/lipgloss"
	"github.com/fine405/agentic-wiki/crawler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootDependencies holds everything the subcommands need.
type RootDependencies struct {
	Config   *config.Config
	Cwd      string
	Logger   *zap.SugaredLogger
	Store    *crawler.HashStore
	Detector *crawler.ChangeDetector
	Crawler  *crawler.DirectoryCrawler
}

var rootCmd = &cobra.Command{
	Use:   "agentic-wiki",
	Short: "Generate a markdown wiki for a workspace, regenerating only what changed.",
	Long: `agentic-wiki crawls a workspace directory, filters it through ignore rules
and glob patterns, and generates one wiki page per file. A content-hash cache
tracks what was seen on previous runs so unchanged files keep their pages
instead of being regenerated.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version, _ := cmd.Flags().GetBool("version"); version {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand loads configuration and wires the shared
// dependencies for a subcommand invocation.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg := config.LoadConfigs(rootCmd, cwd)
	logger := newLogger()

	storageDir := cfg.StorageDir
	if storageDir != "" && !filepath.IsAbs(storageDir) {
		storageDir = filepath.Join(cwd, storageDir)
	}

	store := crawler.NewHashStore(storageDir, logger)
	detector := crawler.NewChangeDetector(store, logger)

	return &RootDependencies{
		Config:   cfg,
		Cwd:      cwd,
		Logger:   logger,
		Store:    store,
		Detector: detector,
		Crawler:  crawler.NewDirectoryCrawler(detector, logger),
	}
}

// newLogger builds the diagnostic logger. User-facing output goes
// through pterm/lipgloss; zap carries warnings and debug detail on
// stderr.
func newLogger() *zap.SugaredLogger {
	zapCfg := zap.NewProductionConfig()
	zapCfg.OutputPaths = []string{"stderr"}
	zapCfg.DisableStacktrace = true

	logger, err := zapCfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}

	return logger.Sugar()
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}
