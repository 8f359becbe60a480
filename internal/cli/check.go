package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raolev/hostage-records/internal/pipeline"
)

var (
	checkJSON string
	checkFix  bool
	checkOut  string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <store.csv>",
	Short: "Check the store's cross-field invariants without merging",
	Long: `Check scans every record for field combinations that contradict its
status: a held record with a release date, a released record with no
circumstances, a returned body with no death context.

Nothing is auto-corrected. With --fix, the minimal status changes the
checker suggests are applied and the store is rewritten.

Example:
  hrec check hostages.csv
  hrec check hostages.csv --fix
  hrec check hostages.csv --json violations.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkJSON, "json", "", "write the full report as JSON")
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "apply suggested status fixes and write the store")
	checkCmd.Flags().StringVar(&checkOut, "out", "", "output path when fixing (default: in place)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := pipeline.NewPipeline(loadConfig())
	if err != nil {
		return err
	}

	report, err := p.Check(args[0], checkFix, checkOut)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	renderer := pipeline.NewRenderer()
	if checkJSON != "" {
		if err := renderer.RenderJSON(report, checkJSON); err != nil {
			return err
		}
	}
	renderer.RenderSummary(report)
	return nil
}
