package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fine405/agentic-wiki/constants/lipgloss"
	"github.com/spf13/cobra"
)

// cacheStatsCmd reports the state of the persisted hash cache.
var cacheStatsCmd = &cobra.Command{
	Use:   "cache-stats",
	Short: "Show hash cache statistics.",
	Run: func(cmd *cobra.Command, args []string) {
		deps := handleRootCommand(cmd)
		if deps == nil {
			return
		}

		doc := deps.Store.Load()

		entries := 0
		var oldest, newest time.Time
		for _, workspace := range doc {
			for _, entry := range workspace {
				entries++
				if oldest.IsZero() || entry.LastSeen.Before(oldest) {
					oldest = entry.LastSeen
				}
				if entry.LastSeen.After(newest) {
					newest = entry.LastSeen
				}
			}
		}

		fmt.Println(lipgloss.Info.Render("Hash Cache Statistics:"))
		fmt.Printf("  Document: %s\n", deps.Store.Path())
		if info, err := os.Stat(deps.Store.Path()); err == nil {
			fmt.Printf("  Size: %.2f KB\n", float64(info.Size())/1024)
		}
		fmt.Printf("  Workspaces: %d\n", len(doc))
		fmt.Printf("  Entries: %d\n", entries)
		if entries > 0 {
			fmt.Printf("  Oldest entry: %s\n", oldest.Format(time.RFC3339))
			fmt.Printf("  Newest entry: %s\n", newest.Format(time.RFC3339))
		}
	},
}

func init() {
	rootCmd.AddCommand(cacheStatsCmd)
}
