package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/universe/internal/refdata"
)

// refreshCmd refreshes reference files from upstream
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh reference files",
}

var refreshCircuitCmd = &cobra.Command{
	Use:   "circuit",
	Short: "Download today's circuit bands into CIRCUIT_FILE",
	Long: `Reads the last traded state of every equity and rewrites the circuit
band file. The existing file is kept when the download fails.

Example:
  go run ./cmd/universe refresh circuit`,
	RunE: runRefreshCircuit,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.AddCommand(refreshCircuitCmd)
}

func runRefreshCircuit(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	doc, err := a.strike.FetchCircuitBands(cmd.Context())
	if err != nil {
		PrintError(err.Error())
		return err
	}
	if len(doc.Data) == 0 {
		return fmt.Errorf("no circuit bands returned")
	}

	if err := refdata.WriteCircuitBands(a.cfg.Data.CircuitFile, doc); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("Wrote %d circuit bands (source date %s) to %s",
		len(doc.Data), doc.SourceDate, a.cfg.Data.CircuitFile))
	return nil
}
