package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/internal/pipeline"
)

// runCmd builds one snapshot and exits
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the universe snapshot once",
	Long: `Resolves the latest trading day at or before --date (default: now),
enriches every equity and writes the snapshot files.

Example:
  go run ./cmd/universe run
  go run ./cmd/universe run --date 2026-01-09
  go run ./cmd/universe run --dry-run`,
	RunE: runSnapshot,
}

var (
	runDate   string
	runDryRun bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "start date YYYY-MM-DD (default: now)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "assemble without writing")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	start := time.Now().In(a.cfg.Location())
	if runDate != "" {
		start, err = time.ParseInLocation(contracts.DateLayout, runDate, a.cfg.Location())
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", runDate, err)
		}
	}

	PrintHeader("Universe Snapshot")
	PrintKeyValue("Start", start.Format(contracts.DateLayout), 12)
	PrintKeyValue("Dry run", fmt.Sprint(runDryRun), 12)

	result, err := a.orchestrator.Run(ctx, pipeline.RunConfig{Start: start, DryRun: runDryRun})
	if result != nil {
		PrintSeparator()
		PrintReferences(result.References)
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintRunResult(result)
	PrintSuccess(fmt.Sprintf("Snapshot for %s completed", result.TradeDate))
	return nil
}
