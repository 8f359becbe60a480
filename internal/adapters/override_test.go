package adapters

import (
	"testing"

	"github.com/raolev/hostage-records/internal/model"
)

const overridesYAML = `version: 1
overrides:
  - name: כרמל גת
    reason: "status confirmed by family statement"
    force: true
    set:
      Current Status: Deceased - Returned
    citations:
      - https://example.com/family-statement
  - name: דנה כהן
    citations:
      - https://example.com/interview
`

func loadOverrideFile(t *testing.T, content string) *OverrideFile {
	t.Helper()
	of, err := LoadOverrides(writeTempFile(t, "overrides.yaml", content))
	if err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	return of
}

func TestLoadOverrides_Validation(t *testing.T) {
	bad := []string{
		// no name
		"version: 1\noverrides:\n  - reason: r\n    set:\n      Current Status: Released\n",
		// changes nothing
		"version: 1\noverrides:\n  - name: x\n    reason: r\n",
		// force without reason
		"version: 1\noverrides:\n  - name: x\n    force: true\n    set:\n      Current Status: Released\n",
		// unknown field
		"version: 1\noverrides:\n  - name: x\n    sets:\n      Current Status: Released\n",
	}
	for i, content := range bad {
		if _, err := LoadOverrides(writeTempFile(t, "overrides.yaml", content)); err == nil {
			t.Errorf("Case %d: expected error for malformed overrides file", i)
		}
	}
}

func TestOverrides_ForcedProposalCarriesReasonAndCitations(t *testing.T) {
	ds := loadDataset(t,
		"Hebrew Name,Current Status,Citation URLs\n"+
			"כרמל גת,Held in Gaza,\n"+
			"דנה כהן,Released,\n")

	o := NewOverrides("overrides.yaml", loadOverrideFile(t, overridesYAML), testMatchCfg)
	proposals, ambiguities, err := o.Propose(ds)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(ambiguities) != 0 {
		t.Errorf("Expected no ambiguities, got %v", ambiguities)
	}
	if len(proposals) != 2 {
		t.Fatalf("Expected 2 proposals, got %d: %v", len(proposals), proposals)
	}

	forced := proposals[0]
	if forced.Name != "כרמל גת" || forced.Column != model.ColStatus {
		t.Fatalf("Unexpected first proposal %+v", forced)
	}
	if !forced.Force {
		t.Error("Expected forced proposal")
	}
	if forced.Reason == "" {
		t.Error("Expected reason on forced proposal")
	}
	if len(forced.Citations) != 1 {
		t.Errorf("Expected provenance citation, got %v", forced.Citations)
	}
	if forced.Source != "override:overrides.yaml" {
		t.Errorf("Expected override provenance tag, got %q", forced.Source)
	}

	// Citation-only entry lands on the citations column.
	citOnly := proposals[1]
	if citOnly.Name != "דנה כהן" || citOnly.Column != model.ColCitations {
		t.Fatalf("Unexpected second proposal %+v", citOnly)
	}
	if citOnly.Force {
		t.Error("Citation-only entry must not be forced")
	}
}

func TestOverrides_UnresolvedEntryBecomesAmbiguity(t *testing.T) {
	ds := loadDataset(t, "Hebrew Name,Current Status\nיוסי לוי,Held in Gaza\n")

	o := NewOverrides("overrides.yaml", loadOverrideFile(t, overridesYAML), testMatchCfg)
	proposals, ambiguities, err := o.Propose(ds)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(proposals) != 0 {
		t.Errorf("Expected no proposals, got %v", proposals)
	}
	if len(ambiguities) != 2 {
		t.Errorf("Expected both entries reported as ambiguities, got %d", len(ambiguities))
	}
}
