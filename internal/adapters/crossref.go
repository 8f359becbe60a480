package adapters

import (
	"fmt"
	"path/filepath"

	"github.com/raolev/hostage-records/internal/match"
	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
)

// CrossRef proposes updates from an archive CSV of the same shape as the
// canonical store. Rows are matched by exact key, then normalized key, then
// token-overlap similarity; anything short of a unique match is reported as
// an ambiguity, never guessed.
type CrossRef struct {
	path          string
	importColumns []string
	matchCfg      model.MatchConfig
}

// NewCrossRef creates a cross-reference adapter for one archive file.
// importColumns limits which archive columns may be proposed.
func NewCrossRef(path string, importColumns []string, matchCfg model.MatchConfig) *CrossRef {
	return &CrossRef{path: path, importColumns: importColumns, matchCfg: matchCfg}
}

// Name returns the provenance tag, e.g. "archive:hostages-list.csv"
func (c *CrossRef) Name() string {
	return "archive:" + filepath.Base(c.path)
}

// Propose loads the archive and offers every importable value that is
// non-empty in the archive. Filled target cells are the merge engine's
// call: it keeps them and logs the conflict, which is the audit trail
// a silent skip here would lose.
func (c *CrossRef) Propose(ds *store.Dataset) ([]model.Proposal, []model.Ambiguity, error) {
	archive, err := store.Load(c.path, ds.KeyColumn)
	if err != nil {
		return nil, nil, fmt.Errorf("archive %s: %w", c.path, err)
	}

	resolver := match.NewResolver(ds.Keys(), c.matchCfg.Threshold, c.matchCfg.MaxSuggestions)

	var proposals []model.Proposal
	var ambiguities []model.Ambiguity
	for _, row := range archive.Records {
		key, err := resolver.Resolve(row.Key())
		if err != nil {
			if amb := ambiguityFor(c.Name(), row.Key(), err, resolver); amb != nil {
				ambiguities = append(ambiguities, *amb)
			}
			continue
		}
		for _, col := range c.importColumns {
			if row.Empty(col) {
				continue
			}
			proposals = append(proposals, model.Proposal{
				Name:   key,
				Column: col,
				Value:  row.Get(col),
				Source: c.Name(),
			})
		}

		// Citations are additive rather than conditional on emptiness:
		// the merge engine appends and deduplicates.
		if !row.Empty(model.ColCitations) {
			proposals = append(proposals, model.Proposal{
				Name:      key,
				Column:    model.ColCitations,
				Source:    c.Name(),
				Citations: store.SplitCitations(row.Get(model.ColCitations)),
			})
		}
	}
	return proposals, ambiguities, nil
}
