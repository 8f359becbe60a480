package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/pipeline"
)

var (
	archivePaths  []string
	rulesPath     string
	overridesPath string
	outPath       string
	reportJSON    string
	dryRun        bool
	applyFixes    bool
	threshold     float64
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <store.csv>",
	Short: "Run the full reconciliation pipeline against the store",
	Long: `Run loads the canonical store, applies every configured source in
order (archive cross-references, then pattern rules, then manual
overrides), merges their proposals under the non-overwrite policy,
checks the invariants, and writes the store back.

Re-running with the same inputs is idempotent: nothing changes on the
second pass and the output is byte-identical.

Example:
  hrec run hostages.csv --archive archive/complete-final.csv
  hrec run hostages.csv --rules rules/hebrew-patterns.yaml --dry-run
  hrec run hostages.csv --overrides overrides.yaml --fix --json report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceVar(&archivePaths, "archive", nil, "archive CSV to cross-reference (repeatable, applied in order)")
	runCmd.Flags().StringVar(&rulesPath, "rules", "", "pattern rules YAML file")
	runCmd.Flags().StringVar(&overridesPath, "overrides", "", "manual overrides YAML file")
	runCmd.Flags().StringVar(&outPath, "out", "", "output path (default: reconcile in place)")
	runCmd.Flags().StringVar(&reportJSON, "json", "", "write the full run report as JSON")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without writing the store")
	runCmd.Flags().BoolVar(&applyFixes, "fix", false, "apply suggested status fixes")
	runCmd.Flags().Float64Var(&threshold, "threshold", 0, "fuzzy match threshold override (0 = config default)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if threshold > 0 {
		cfg.Match.Threshold = threshold
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Store: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Archives: %v\n", archivePaths)
		fmt.Fprintf(os.Stderr, "Rules: %s  Overrides: %s\n", rulesPath, overridesPath)
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	report, err := p.Run(pipeline.Options{
		StorePath:     args[0],
		ArchivePaths:  archivePaths,
		RulesPath:     rulesPath,
		OverridesPath: overridesPath,
		OutPath:       outPath,
		DryRun:        dryRun,
		ApplyFixes:    applyFixes,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d proposals applied, %d rejected, %d ambiguous\n",
			report.Applied, report.RejectedConflict+report.RejectedInvalid, len(report.Ambiguities))
	}

	renderer := pipeline.NewRenderer()
	if reportJSON != "" {
		if err := renderer.RenderJSON(report, reportJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote report: %s\n", reportJSON)
		}
	}
	renderer.RenderSummary(report)
	return nil
}

// loadConfig merges viper state over the defaults
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if err := unmarshalConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: bad config, using defaults: %v\n", err)
		cfg = model.DefaultConfig()
	}
	return cfg
}
