package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/raolev/hostage-records/internal/citations"
	"github.com/raolev/hostage-records/internal/pipeline"
	"github.com/raolev/hostage-records/internal/store"
)

var (
	citeConcurrency int
	citeRate        float64
	citeTimeout     time.Duration
	citeNoCache     bool
	citeRobots      bool
	citeJSON        string
)

// citationsCmd represents the citations command
var citationsCmd = &cobra.Command{
	Use:   "citations <store.csv>",
	Short: "Verify that every citation URL in the store still resolves",
	Long: `Citations collects every distinct citation URL in the store and checks
it live: HEAD requests on a worker pool, per-domain rate limiting,
retries with backoff on transient failures, and cached results so
repeated passes stay cheap. The store itself is never modified.

Example:
  hrec citations hostages.csv
  hrec citations hostages.csv --concurrency 16 --rate 4
  hrec citations hostages.csv --robots --json links.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCitations,
}

func init() {
	rootCmd.AddCommand(citationsCmd)

	citationsCmd.Flags().IntVar(&citeConcurrency, "concurrency", 0, "worker count (0 = config default)")
	citationsCmd.Flags().Float64Var(&citeRate, "rate", 0, "requests per second per domain (0 = config default)")
	citationsCmd.Flags().DurationVar(&citeTimeout, "timeout", 0, "per-request timeout (0 = config default)")
	citationsCmd.Flags().BoolVar(&citeNoCache, "no-cache", false, "disable the result cache (force fresh checks)")
	citationsCmd.Flags().BoolVar(&citeRobots, "robots", false, "respect robots.txt before checking a URL")
	citationsCmd.Flags().StringVar(&citeJSON, "json", "", "write the full report as JSON")
}

func runCitations(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if citeConcurrency > 0 {
		cfg.Citations.Workers = citeConcurrency
	}
	if citeRate > 0 {
		cfg.Citations.RatePerSecond = citeRate
	}
	if citeTimeout > 0 {
		cfg.Citations.Timeout = citeTimeout
	}
	if citeNoCache {
		cfg.Citations.CacheEnabled = false
	}
	if citeRobots {
		cfg.Citations.RespectRobots = true
	}
	if cfg.Citations.CacheEnabled && cfg.Citations.CacheDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Citations.CacheDir = home + "/.hrec/citation-cache"
		}
	}

	ds, err := store.Load(args[0], cfg.Store.KeyColumn)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking citations with %d workers, %.1f req/s per domain\n",
			cfg.Citations.Workers, cfg.Citations.RatePerSecond)
	}

	verifier := citations.NewVerifier(cfg.Citations)
	report := verifier.VerifyStore(context.Background(), ds)

	renderer := pipeline.NewRenderer()
	if citeJSON != "" {
		if err := renderer.RenderJSON(report, citeJSON); err != nil {
			return err
		}
	}
	renderer.RenderCitationSummary(report)

	if report.Dead > 0 {
		return fmt.Errorf("%d dead citation link(s)", report.Dead)
	}
	return nil
}
