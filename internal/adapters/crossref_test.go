package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
)

var testMatchCfg = model.MatchConfig{Threshold: 0.7, MaxSuggestions: 3}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func loadDataset(t *testing.T, content string) *store.Dataset {
	t.Helper()
	ds, err := store.Load(writeTempFile(t, "store.csv", content), model.ColName)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	return ds
}

func TestCrossRef_ProposesNonEmptyImportColumns(t *testing.T) {
	ds := loadDataset(t,
		"Hebrew Name,Current Status,Release Date,Citation URLs\n"+
			"כרמל גת,Held in Gaza,,\n")
	archive := writeTempFile(t, "archive.csv",
		"Hebrew Name,Current Status,Release Date,Citation URLs\n"+
			"כרמל גת,Released,2024-01-25,\n")

	cr := NewCrossRef(archive, []string{model.ColStatus, model.ColReleaseDate}, testMatchCfg)
	proposals, ambiguities, err := cr.Propose(ds)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(ambiguities) != 0 {
		t.Errorf("Expected no ambiguities, got %v", ambiguities)
	}

	// Both archive values are offered; whether the filled status survives
	// is the merge engine's decision, not the adapter's.
	byColumn := make(map[string]model.Proposal)
	for _, p := range proposals {
		byColumn[p.Column] = p
	}
	if len(byColumn) != 2 {
		t.Fatalf("Expected proposals for both import columns, got %v", proposals)
	}
	p := byColumn[model.ColReleaseDate]
	if p.Value != "2024-01-25" || p.Name != "כרמל גת" {
		t.Errorf("Unexpected proposal %+v", p)
	}
	if p.Source != "archive:archive.csv" {
		t.Errorf("Expected provenance tag archive:archive.csv, got %q", p.Source)
	}
	if byColumn[model.ColStatus].Force {
		t.Error("Archive proposals must never be forced")
	}
}

func TestCrossRef_CitationsAreAlwaysOffered(t *testing.T) {
	ds := loadDataset(t,
		"Hebrew Name,Current Status,Citation URLs\n"+
			"כרמל גת,Released,https://example.com/a\n")
	archive := writeTempFile(t, "kan.csv",
		"Hebrew Name,Current Status,Citation URLs\n"+
			"כרמל גת,Released,https://example.com/a; https://example.com/b\n")

	cr := NewCrossRef(archive, []string{model.ColStatus}, testMatchCfg)
	proposals, _, err := cr.Propose(ds)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}

	var found bool
	for _, p := range proposals {
		if p.Column == model.ColCitations {
			found = true
			if len(p.Citations) != 2 {
				t.Errorf("Expected 2 citations, got %v", p.Citations)
			}
		}
	}
	if !found {
		t.Error("Expected a citations proposal even though the target already has citations")
	}
}

func TestCrossRef_UnresolvedRowBecomesAmbiguity(t *testing.T) {
	ds := loadDataset(t,
		"Hebrew Name,Current Status,Release Date\n"+
			"Avraham Cohen-Levi,Held in Gaza,\n")
	archive := writeTempFile(t, "archive.csv",
		"Hebrew Name,Current Status,Release Date\n"+
			"Avraham Cohen,Released,2024-01-25\n")

	cr := NewCrossRef(archive, []string{model.ColStatus, model.ColReleaseDate}, testMatchCfg)
	proposals, ambiguities, err := cr.Propose(ds)
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if len(proposals) != 0 {
		t.Errorf("Near-namesake below threshold must not produce proposals, got %v", proposals)
	}
	if len(ambiguities) != 1 {
		t.Fatalf("Expected 1 ambiguity, got %d", len(ambiguities))
	}
	if ambiguities[0].Name != "Avraham Cohen" {
		t.Errorf("Expected source name in ambiguity, got %q", ambiguities[0].Name)
	}
	if len(ambiguities[0].Suggestions) == 0 {
		t.Error("Expected near-miss suggestions for the operator")
	}
}

func TestCrossRef_MissingArchiveFileFails(t *testing.T) {
	ds := loadDataset(t, "Hebrew Name,Current Status\nכרמל גת,Released\n")
	cr := NewCrossRef(filepath.Join(t.TempDir(), "nope.csv"), []string{model.ColStatus}, testMatchCfg)
	if _, _, err := cr.Propose(ds); err == nil {
		t.Error("Expected error for missing archive file")
	}
}
