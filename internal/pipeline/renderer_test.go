package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/raolev/hostage-records/internal/model"
)

func TestRenderJSON_RoundTrips(t *testing.T) {
	report := &model.RunReport{
		RunID:   "01TESTRUN",
		Store:   "store.csv",
		Applied: 3,
		Rejections: []model.Rejection{
			{Name: "כרמל גת", Column: model.ColStatus, OldValue: "Held in Gaza", Proposed: "Released", Source: "archive:a.csv", Reason: "target not empty"},
		},
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := NewRenderer().RenderJSON(report, path); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Read report: %v", err)
	}
	var decoded model.RunReport
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if decoded.RunID != report.RunID || decoded.Applied != 3 {
		t.Errorf("Round trip lost fields: %+v", decoded)
	}
	if len(decoded.Rejections) != 1 || decoded.Rejections[0].OldValue != "Held in Gaza" {
		t.Errorf("Rejection audit lost in JSON: %+v", decoded.Rejections)
	}
	if raw[len(raw)-1] != '\n' {
		t.Error("Report file should end with a newline")
	}
}

func TestRenderJSON_BadPath(t *testing.T) {
	if err := NewRenderer().RenderJSON(&model.RunReport{}, filepath.Join(t.TempDir(), "missing", "report.json")); err == nil {
		t.Error("Expected error writing to a missing directory")
	}
}
