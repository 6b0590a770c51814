package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fine405/agentic-wiki/constants/lipgloss"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command.
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Delete the persisted hash cache.",
	Long: `The 'reset-cache' command removes the hash cache document. The next
generation run will treat every file as changed and regenerate all pages.
Use this when the cache is suspected to be stale or corrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		handleResetCacheCommand(cmd, force)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Reset without confirmation")
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(cmd *cobra.Command, force bool) {
	deps := handleRootCommand(cmd)
	if deps == nil {
		return
	}

	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Are you sure you want to reset the hash cache? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	if err := deps.Store.Clear(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render("✓ Hash cache has been reset."))
}
