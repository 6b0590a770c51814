package config

import (
	"fmt"
	"os"

	"github.com/fine405/agentic-wiki/constants/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config represents the structure of the configuration file.
type Config struct {
	Version          string   `mapstructure:"version"`
	Theme            string   `mapstructure:"theme"`
	OutputDir        string   `mapstructure:"output_dir"`
	StorageDir       string   `mapstructure:"storage_dir"`
	IncludePatterns  []string `mapstructure:"include_patterns"`
	ExcludePatterns  []string `mapstructure:"exclude_patterns"`
	MaxFileSizeBytes int64    `mapstructure:"max_file_size_bytes"`
	AbsolutePaths    bool     `mapstructure:"absolute_paths"`
	Incremental      bool     `mapstructure:"incremental"`
	Workspace        string   `mapstructure:"workspace"`
	CacheMaxAgeDays  int      `mapstructure:"cache_max_age_days"`
}

// DefaultConfig values.
var DefaultConfig = Config{
	Version:          "0.3.0",
	Theme:            "dracula",
	OutputDir:        "wiki",
	StorageDir:       ".agentic-wiki",
	IncludePatterns:  []string{"*"},
	ExcludePatterns:  []string{"node_modules", "dist", "out", "vendor"},
	MaxFileSizeBytes: 1024 * 1024,
	AbsolutePaths:    false,
	Incremental:      true,
	Workspace:        "",
	CacheMaxAgeDays:  30,
}

// cfgFile holds the path to the configuration file (set via CLI).
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and
// environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		// Look for agentic-wiki.yaml / agentic-wiki.json in the workspace.
		viper.SetConfigName("agentic-wiki")
		viper.AddConfigPath(cwd)

		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("output_dir", DefaultConfig.OutputDir)
	viper.SetDefault("storage_dir", DefaultConfig.StorageDir)
	viper.SetDefault("include_patterns", DefaultConfig.IncludePatterns)
	viper.SetDefault("exclude_patterns", DefaultConfig.ExcludePatterns)
	viper.SetDefault("max_file_size_bytes", DefaultConfig.MaxFileSizeBytes)
	viper.SetDefault("absolute_paths", DefaultConfig.AbsolutePaths)
	viper.SetDefault("incremental", DefaultConfig.Incremental)
	viper.SetDefault("workspace", DefaultConfig.Workspace)
	viper.SetDefault("cache_max_age_days", DefaultConfig.CacheMaxAgeDays)
}

// bindEnv explicitly binds environment variables to configuration keys.
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("output_dir", "OUTPUT_DIR")
	_ = viper.BindEnv("storage_dir", "STORAGE_DIR")
	_ = viper.BindEnv("max_file_size_bytes", "MAX_FILE_SIZE_BYTES")
	_ = viper.BindEnv("incremental", "INCREMENTAL")
	_ = viper.BindEnv("workspace", "WORKSPACE")
	_ = viper.BindEnv("cache_max_age_days", "CACHE_MAX_AGE_DAYS")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("output_dir", rootCmd.PersistentFlags().Lookup("output_dir"))
	_ = viper.BindPFlag("storage_dir", rootCmd.PersistentFlags().Lookup("storage_dir"))
	_ = viper.BindPFlag("include_patterns", rootCmd.PersistentFlags().Lookup("include"))
	_ = viper.BindPFlag("exclude_patterns", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("max_file_size_bytes", rootCmd.PersistentFlags().Lookup("max_file_size"))
	_ = viper.BindPFlag("absolute_paths", rootCmd.PersistentFlags().Lookup("absolute_paths"))
	_ = viper.BindPFlag("incremental", rootCmd.PersistentFlags().Lookup("incremental"))
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("cache_max_age_days", rootCmd.PersistentFlags().Lookup("cache_max_age_days"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a configuration file (JSON or YAML).")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Highlighting theme for terminal preview (e.g. 'dracula', 'monokai').")
	rootCmd.PersistentFlags().String("output_dir", DefaultConfig.OutputDir, "Directory the generated wiki pages are written to.")
	rootCmd.PersistentFlags().String("storage_dir", DefaultConfig.StorageDir, "Directory the hash cache document is stored in.")
	rootCmd.PersistentFlags().StringSlice("include", DefaultConfig.IncludePatterns, "Glob patterns a file must match to be included ('*' = everything).")
	rootCmd.PersistentFlags().StringSlice("exclude", DefaultConfig.ExcludePatterns, "Glob patterns that exclude files and prune directories.")
	rootCmd.PersistentFlags().Int64("max_file_size", DefaultConfig.MaxFileSizeBytes, "Maximum file size in bytes; larger files are skipped (0 = no limit).")
	rootCmd.PersistentFlags().Bool("absolute_paths", DefaultConfig.AbsolutePaths, "Report absolute instead of workspace-relative paths.")
	rootCmd.PersistentFlags().Bool("incremental", DefaultConfig.Incremental, "Skip regenerating pages for files whose content is unchanged.")
	rootCmd.PersistentFlags().String("workspace", DefaultConfig.Workspace, "Workspace identifier partitioning the hash cache (defaults to the root directory name).")
	rootCmd.PersistentFlags().Int("cache_max_age_days", DefaultConfig.CacheMaxAgeDays, "Hash cache entries unseen for this many days are swept at startup.")

	rootCmd.Flags().BoolP("version", "v", false, "Print the application version.")
}
