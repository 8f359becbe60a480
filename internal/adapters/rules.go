package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
)

// Rule is one declarative pattern: if any of the substrings appears in a
// record's free text, propose the listed column values. Rules live in a
// versioned YAML file so order and coverage can be reviewed without touching
// code.
type Rule struct {
	Name  string            `yaml:"name"`
	AnyOf []string          `yaml:"any_of"`
	Set   map[string]string `yaml:"set"`
}

// RuleSet is the parsed rules file. Rule order is the file order and is
// significant: the first matching rule per column wins.
type RuleSet struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// LoadRuleSet parses and sanity-checks a rules YAML file
func LoadRuleSet(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var rs RuleSet
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	for i, rule := range rs.Rules {
		if len(rule.AnyOf) == 0 {
			return nil, fmt.Errorf("rules file %s: rule %d (%s) has no patterns", path, i+1, rule.Name)
		}
		if len(rule.Set) == 0 {
			return nil, fmt.Errorf("rules file %s: rule %d (%s) sets nothing", path, i+1, rule.Name)
		}
	}
	return &rs, nil
}

// Patterns applies an ordered rule list to each record's free-text columns
// and proposes values for columns the record has not filled yet.
type Patterns struct {
	path            string
	rules           *RuleSet
	freeTextColumns []string
}

// NewPatterns creates a pattern-extraction adapter from a loaded rule set
func NewPatterns(path string, rules *RuleSet, freeTextColumns []string) *Patterns {
	return &Patterns{path: path, rules: rules, freeTextColumns: freeTextColumns}
}

// Name returns the provenance tag, e.g. "rules:release-patterns.yaml"
func (p *Patterns) Name() string {
	return "rules:" + filepath.Base(p.path)
}

// Propose evaluates the rules in file order against every record. For each
// record and column, only the first matching rule proposes; later rules
// never displace it.
func (p *Patterns) Propose(ds *store.Dataset) ([]model.Proposal, []model.Ambiguity, error) {
	var proposals []model.Proposal
	for _, rec := range ds.Records {
		text := p.freeText(rec)
		if text == "" {
			continue
		}
		claimed := make(map[string]bool)
		for _, rule := range p.rules.Rules {
			if !matchesAny(text, rule.AnyOf) {
				continue
			}
			for _, col := range sortedColumns(rule.Set) {
				if claimed[col] {
					continue
				}
				claimed[col] = true
				if !rec.Empty(col) {
					continue
				}
				proposals = append(proposals, model.Proposal{
					Name:   rec.Key(),
					Column: col,
					Value:  rule.Set[col],
					Source: p.Name(),
					Reason: "rule: " + rule.Name,
				})
			}
		}
	}
	return proposals, nil, nil
}

func (p *Patterns) freeText(rec *store.Record) string {
	var parts []string
	for _, col := range p.freeTextColumns {
		if v := strings.TrimSpace(rec.Get(col)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// sortedColumns keeps proposal order deterministic across runs
func sortedColumns(set map[string]string) []string {
	cols := make([]string, 0, len(set))
	for col := range set {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func matchesAny(text string, patterns []string) bool {
	for _, pat := range patterns {
		if pat != "" && strings.Contains(text, pat) {
			return true
		}
	}
	return false
}
