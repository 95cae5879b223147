package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "universe",
	Short: "Universe enrichment engine for daily NSE equity snapshots",
	Long: `Universe Enrichment Engine

Builds one enriched row per listed equity for the latest trading day:
price change, sector reference data, circuit band, 52 week extremes,
turnover averages and relative strength ranks.

Usage:
  go run ./cmd/universe [command]

Examples:
  go run ./cmd/universe run
  go run ./cmd/universe run --date 2026-01-09 --dry-run
  go run ./cmd/universe serve
  go run ./cmd/universe refresh circuit
  go run ./cmd/universe check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
