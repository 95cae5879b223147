package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/universe/internal/refdata"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/logger"
)

// checkCmd validates configuration and reference files without fetching
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate config, feed mapping and reference files",
	Long: `Loads the configuration, the feed mapping and every reference file,
and reports which enrichment stages would be skipped.

Example:
  go run ./cmd/universe check`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// stageByReference lists the stage skipped when a reference file is unusable
var stageByReference = map[string]string{
	"sector":  "s1_merge",
	"circuit": "s1_circuit",
	"52wk":    "s2_extremes",
	"history": "s3_rs",
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintHeader("Universe Check")
	PrintKeyValue("Env", cfg.Env, 12)
	PrintKeyValue("Timezone", cfg.Timezone, 12)
	PrintKeyValue("Feed", cfg.Feed.Name, 12)
	PrintKeyValue("Output", cfg.UniversePath(), 12)

	feeds, err := config.LoadFeeds(cfg.Feed.MappingFile)
	if err != nil {
		PrintError(err.Error())
		return err
	}
	if _, err := config.Feed(feeds, cfg.Feed.Name); err != nil {
		PrintError(err.Error())
		return err
	}
	PrintSuccess(fmt.Sprintf("Feed mapping %q is valid", cfg.Feed.Name))

	PrintSeparator()
	set := refdata.Load(cfg.Data, logger.Nop())
	PrintReferences(set.Status)
	PrintSeparator()

	for _, st := range set.Status {
		if !st.Loaded {
			PrintWarning(fmt.Sprintf("%s unusable, stage %s will be skipped", st.Name, stageByReference[st.Name]))
		}
	}
	if set.Sectors == nil {
		PrintWarning("Without the sector file the identity filter is not applied")
	}

	return nil
}
