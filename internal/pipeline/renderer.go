package pipeline

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/raolev/hostage-records/internal/merge"
	"github.com/raolev/hostage-records/internal/model"
)

// Renderer writes the run report: JSON for machines, a stdout summary for
// the operator deciding whether to add rules or overrides.
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderJSON writes the full report to path
func (r *Renderer) RenderJSON(report any, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderSummary prints the human summary of a reconciliation run
func (r *Renderer) RenderSummary(report *model.RunReport) {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Reconciliation Run %s\n", report.RunID)
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Store:    %s\n", report.Store)
	if report.DryRun {
		fmt.Println("  Mode:     dry-run (nothing written)")
	}
	fmt.Println()

	if len(report.Sources) > 0 {
		fmt.Println("  Sources:")
		for _, s := range report.Sources {
			fmt.Printf("    %-32s proposals=%-4d applied=%-4d conflict=%-3d invalid=%-3d ambiguous=%d\n",
				s.Source, s.Proposals, s.Applied, s.RejectedConflict, s.RejectedInvalid, s.Ambiguous)
		}
		fmt.Println()
	}

	fmt.Printf("  Applied:            %d\n", report.Applied)
	fmt.Printf("  Rejected (held):    %d\n", report.RejectedConflict)
	fmt.Printf("  Rejected (invalid): %d\n", report.RejectedInvalid)
	fmt.Printf("  Ambiguous:          %d\n", len(report.Ambiguities))
	fmt.Println()

	if len(report.Rejections) > 0 {
		fmt.Println("  Rejection log:")
		for _, rej := range report.Rejections {
			fmt.Printf("    %s\n", merge.Describe(rej))
		}
		fmt.Println()
	}

	if len(report.Ambiguities) > 0 {
		fmt.Println("  Unresolved source names:")
		for _, amb := range report.Ambiguities {
			fmt.Printf("    %s: %q", amb.Source, amb.Name)
			if len(amb.Candidates) > 0 {
				fmt.Printf(" — tied candidates: %v", amb.Candidates)
			}
			if len(amb.Suggestions) > 0 {
				fmt.Printf(" (near misses: %v)", amb.Suggestions)
			}
			fmt.Println()
		}
		fmt.Println()
	}

	if len(report.FixesApplied) > 0 {
		fmt.Println("  Status fixes applied:")
		for _, s := range report.FixesApplied {
			fmt.Printf("    %s: %s -> %s (%s)\n", s.Name, s.FromStatus, s.ToStatus, s.Reason)
		}
		fmt.Println()
	}

	if len(report.Violations) > 0 {
		fmt.Printf("  Invariant violations (%d):\n", len(report.Violations))
		for _, v := range report.Violations {
			fmt.Printf("    %s [%s]: %s\n", v.Name, v.Rule, v.Detail)
		}
		fmt.Println()
	}

	if len(report.Suggestions) > 0 {
		fmt.Println("  Suggested status fixes (re-run with --fix to apply):")
		for _, s := range report.Suggestions {
			fmt.Printf("    %s: %s -> %s (%s)\n", s.Name, s.FromStatus, s.ToStatus, s.Reason)
		}
		fmt.Println()
	}

	if len(report.Violations) == 0 && len(report.Ambiguities) == 0 {
		fmt.Println("  ✓ Store is consistent")
	}
}

// RenderCitationSummary prints the human summary of a citation pass
func (r *Renderer) RenderCitationSummary(report *model.CitationReport) {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Citation Verification %s\n", report.RunID)
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Store:      %s\n", report.Store)
	fmt.Printf("  Checked:    %d\n", report.URLsChecked)
	fmt.Printf("  Dead:       %d\n", report.Dead)
	fmt.Printf("  Redirected: %d\n", report.Redirected)
	fmt.Printf("  Stale:      %d\n", report.Stale)
	fmt.Println()

	for _, res := range report.Results {
		switch {
		case res.Skipped != "":
			fmt.Printf("  - %s (%s)\n", res.URL, res.Skipped)
		case res.IsDead:
			fmt.Printf("  ✗ %s (dead", res.URL)
			if res.StatusCode != 0 {
				fmt.Printf(", status %d", res.StatusCode)
			}
			fmt.Printf(") cited by %v\n", res.Records)
		case res.RedirectURL != "":
			fmt.Printf("  → %s now at %s\n", res.URL, res.RedirectURL)
		}
	}
	if report.Dead == 0 && report.Redirected == 0 {
		fmt.Println("  ✓ All citations resolve")
	}
}
