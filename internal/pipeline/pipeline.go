package pipeline

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/raolev/hostage-records/internal/adapters"
	"github.com/raolev/hostage-records/internal/check"
	"github.com/raolev/hostage-records/internal/merge"
	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
	"github.com/raolev/hostage-records/internal/validate"
)

// Options selects the sources and outputs for one reconciliation run
type Options struct {
	StorePath     string
	ArchivePaths  []string // cross-reference CSVs, applied in order
	RulesPath     string   // pattern rules YAML, optional
	OverridesPath string   // manual overrides YAML, optional
	OutPath       string   // defaults to StorePath (reconcile in place)
	DryRun        bool     // report without writing
	ApplyFixes    bool     // apply confirmed status suggestions
}

// Pipeline runs the full reconciliation pass:
// load -> adapters -> merge -> check -> (fixes) -> write.
// A load failure aborts before anything is written; every other condition
// accumulates into the run report.
type Pipeline struct {
	cfg     *model.Config
	engine  *merge.Engine
	checker *check.Checker
}

// NewPipeline wires a pipeline from config
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	values, err := validate.New(cfg.Validate.EarliestDate)
	if err != nil {
		return nil, fmt.Errorf("validator: %w", err)
	}
	return &Pipeline{
		cfg:     cfg,
		engine:  merge.NewEngine(values),
		checker: check.New(),
	}, nil
}

// Run executes one full pass and returns the run report. The returned
// error is fatal only: a LoadError or an unreadable source file.
func (p *Pipeline) Run(opts Options) (*model.RunReport, error) {
	ds, err := store.Load(opts.StorePath, p.cfg.Store.KeyColumn)
	if err != nil {
		return nil, err
	}

	registry, err := p.buildRegistry(opts)
	if err != nil {
		return nil, err
	}

	report := &model.RunReport{
		RunID:     ulid.Make().String(),
		Store:     opts.StorePath,
		StartedAt: time.Now().UTC(),
		DryRun:    opts.DryRun,
	}

	// Adapters run one at a time, in registration order, so a later
	// source sees the dataset as the earlier sources left it.
	for _, adapter := range registry.Adapters() {
		proposals, ambiguities, err := adapter.Propose(ds)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", adapter.Name(), err)
		}
		outcome := p.engine.Apply(ds, proposals)

		report.Sources = append(report.Sources, model.SourceReport{
			Source:           adapter.Name(),
			Proposals:        len(proposals),
			Applied:          outcome.Applied,
			RejectedConflict: outcome.RejectedConflict,
			RejectedInvalid:  outcome.RejectedInvalid,
			Ambiguous:        len(ambiguities),
		})
		report.Applied += outcome.Applied
		report.RejectedConflict += outcome.RejectedConflict
		report.RejectedInvalid += outcome.RejectedInvalid
		report.Rejections = append(report.Rejections, outcome.Rejections...)
		report.Ambiguities = append(report.Ambiguities, ambiguities...)
		if outcome.Changed {
			report.Changed = true
		}
	}

	report.Violations = p.checker.Check(ds)
	report.Suggestions = p.checker.Suggest(ds, report.Violations)

	if opts.ApplyFixes && len(report.Suggestions) > 0 {
		for _, s := range report.Suggestions {
			if err := check.ApplySuggestion(ds, s); err != nil {
				return nil, fmt.Errorf("apply fix for %s: %w", s.Name, err)
			}
			report.FixesApplied = append(report.FixesApplied, s)
			report.Changed = true
		}
		// Re-check: fixes should resolve their violations, not mask new ones
		report.Violations = p.checker.Check(ds)
		report.Suggestions = p.checker.Suggest(ds, report.Violations)
	}

	if !opts.DryRun {
		out := opts.OutPath
		if out == "" {
			out = opts.StorePath
		}
		if err := ds.Write(out); err != nil {
			return nil, fmt.Errorf("write store: %w", err)
		}
	}
	return report, nil
}

func (p *Pipeline) buildRegistry(opts Options) (*adapters.Registry, error) {
	registry := adapters.NewRegistry()
	for _, path := range opts.ArchivePaths {
		registry.Register(adapters.NewCrossRef(path, p.cfg.Store.ImportColumns, p.cfg.Match))
	}
	if opts.RulesPath != "" {
		rules, err := adapters.LoadRuleSet(opts.RulesPath)
		if err != nil {
			return nil, err
		}
		registry.Register(adapters.NewPatterns(opts.RulesPath, rules, p.cfg.Store.FreeTextColumns))
	}
	if opts.OverridesPath != "" {
		overrides, err := adapters.LoadOverrides(opts.OverridesPath)
		if err != nil {
			return nil, err
		}
		registry.Register(adapters.NewOverrides(opts.OverridesPath, overrides, p.cfg.Match))
	}
	return registry, nil
}

// Check runs the consistency checker alone, without touching any source
func (p *Pipeline) Check(storePath string, applyFixes bool, outPath string) (*model.RunReport, error) {
	ds, err := store.Load(storePath, p.cfg.Store.KeyColumn)
	if err != nil {
		return nil, err
	}
	report := &model.RunReport{
		RunID:     ulid.Make().String(),
		Store:     storePath,
		StartedAt: time.Now().UTC(),
		DryRun:    !applyFixes,
	}
	report.Violations = p.checker.Check(ds)
	report.Suggestions = p.checker.Suggest(ds, report.Violations)

	if applyFixes && len(report.Suggestions) > 0 {
		for _, s := range report.Suggestions {
			if err := check.ApplySuggestion(ds, s); err != nil {
				return nil, fmt.Errorf("apply fix for %s: %w", s.Name, err)
			}
			report.FixesApplied = append(report.FixesApplied, s)
			report.Changed = true
		}
		report.Violations = p.checker.Check(ds)
		report.Suggestions = p.checker.Suggest(ds, report.Violations)

		out := outPath
		if out == "" {
			out = storePath
		}
		if err := ds.Write(out); err != nil {
			return nil, fmt.Errorf("write store: %w", err)
		}
	}
	return report, nil
}
