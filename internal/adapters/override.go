package adapters

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/raolev/hostage-records/internal/match"
	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
)

// Override is one human-curated correction to a single record. Each entry
// must name its justification; force is the only way any source may replace
// a non-empty value.
type Override struct {
	Name      string            `yaml:"name"`
	Reason    string            `yaml:"reason"`
	Force     bool              `yaml:"force"`
	Set       map[string]string `yaml:"set"`
	Citations []string          `yaml:"citations"`
}

// OverrideFile is the parsed overrides YAML
type OverrideFile struct {
	Version   int        `yaml:"version"`
	Overrides []Override `yaml:"overrides"`
}

// LoadOverrides parses and sanity-checks an overrides YAML file. Forced
// entries without a reason are a config error, not a merge-time rejection.
func LoadOverrides(path string) (*OverrideFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open overrides file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var of OverrideFile
	if err := dec.Decode(&of); err != nil {
		return nil, fmt.Errorf("parse overrides file %s: %w", path, err)
	}
	for i, o := range of.Overrides {
		if o.Name == "" {
			return nil, fmt.Errorf("overrides file %s: entry %d has no name", path, i+1)
		}
		if len(o.Set) == 0 && len(o.Citations) == 0 {
			return nil, fmt.Errorf("overrides file %s: entry %d (%s) changes nothing", path, i+1, o.Name)
		}
		if o.Force && o.Reason == "" {
			return nil, fmt.Errorf("overrides file %s: entry %d (%s) forces without a reason", path, i+1, o.Name)
		}
	}
	return &of, nil
}

// Overrides feeds manual corrections through the same merge entry point as
// any other source, tagged so the audit trail distinguishes them.
type Overrides struct {
	path     string
	file     *OverrideFile
	matchCfg model.MatchConfig
}

// NewOverrides creates the manual-override adapter
func NewOverrides(path string, file *OverrideFile, matchCfg model.MatchConfig) *Overrides {
	return &Overrides{path: path, file: file, matchCfg: matchCfg}
}

// Name returns the provenance tag for the file as a whole
func (o *Overrides) Name() string {
	return "override:" + filepath.Base(o.path)
}

// Propose resolves each override entry to its record and emits its updates.
// Overrides are individually sourced, so an entry that does not resolve to
// exactly one record is an ambiguity like any other.
func (o *Overrides) Propose(ds *store.Dataset) ([]model.Proposal, []model.Ambiguity, error) {
	resolver := match.NewResolver(ds.Keys(), o.matchCfg.Threshold, o.matchCfg.MaxSuggestions)

	var proposals []model.Proposal
	var ambiguities []model.Ambiguity
	for _, entry := range o.file.Overrides {
		key, err := resolver.Resolve(entry.Name)
		if err != nil {
			if amb := ambiguityFor(o.Name(), entry.Name, err, resolver); amb != nil {
				ambiguities = append(ambiguities, *amb)
			}
			continue
		}

		for _, col := range sortedColumns(entry.Set) {
			proposals = append(proposals, model.Proposal{
				Name:      key,
				Column:    col,
				Value:     entry.Set[col],
				Source:    o.Name(),
				Citations: entry.Citations,
				Force:     entry.Force,
				Reason:    entry.Reason,
			})
		}
		if len(entry.Set) == 0 && len(entry.Citations) > 0 {
			proposals = append(proposals, model.Proposal{
				Name:      key,
				Column:    model.ColCitations,
				Source:    o.Name(),
				Citations: entry.Citations,
				Reason:    entry.Reason,
			})
		}
	}
	return proposals, ambiguities, nil
}
