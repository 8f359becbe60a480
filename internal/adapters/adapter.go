package adapters

import (
	"errors"

	"github.com/raolev/hostage-records/internal/match"
	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
)

// Adapter turns one external source into proposed field updates. Adapters
// never mutate the dataset; everything lands through the merge engine.
type Adapter interface {
	// Name returns the provenance tag recorded on every proposal
	Name() string

	// Propose reads the dataset and returns the updates this source offers,
	// plus any source rows it could not uniquely resolve. An error is only
	// returned for source-level failures (unreadable file, bad config).
	Propose(ds *store.Dataset) ([]model.Proposal, []model.Ambiguity, error)
}

// Registry holds the adapters for one run in application order: archive
// cross-references first, then pattern rules, then manual overrides last.
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an adapter; order of registration is order of application
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Adapters returns the registered adapters in application order
func (r *Registry) Adapters() []Adapter {
	return r.adapters
}

// ambiguityFor converts a resolver failure into a report entry. A nil
// return means the error was not a resolution failure.
func ambiguityFor(source, name string, err error, resolver *match.Resolver) *model.Ambiguity {
	var ambErr *match.AmbiguousMatchError
	switch {
	case errors.As(err, &ambErr):
		return &model.Ambiguity{
			Source:      source,
			Name:        name,
			Candidates:  ambErr.Candidates,
			Suggestions: resolver.Suggest(name),
		}
	case errors.Is(err, match.ErrNoMatch):
		return &model.Ambiguity{
			Source:      source,
			Name:        name,
			Suggestions: resolver.Suggest(name),
		}
	}
	return nil
}
