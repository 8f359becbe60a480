package merge

import (
	"fmt"

	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
	"github.com/raolev/hostage-records/internal/validate"
)

// Outcome is the result of applying one batch of proposals
type Outcome struct {
	Applied          int
	RejectedConflict int
	RejectedInvalid  int
	Rejections       []model.Rejection
	Changed          bool
}

// Engine applies proposals to the dataset under the conflict policy: an
// empty target is filled after validation, a non-empty target is never
// overwritten unless the proposal is explicitly forced, and every refusal
// lands in the rejection log for manual audit.
type Engine struct {
	values *validate.Values
}

// NewEngine creates a merge engine using the given value validator
func NewEngine(values *validate.Values) *Engine {
	return &Engine{values: values}
}

// Apply runs one batch of proposals against the dataset. The decision per
// proposal is pure; all console reporting happens elsewhere from the
// returned Outcome.
func (e *Engine) Apply(ds *store.Dataset, proposals []model.Proposal) Outcome {
	var out Outcome
	for _, prop := range proposals {
		e.applyOne(ds, prop, &out)
	}
	return out
}

func (e *Engine) applyOne(ds *store.Dataset, prop model.Proposal, out *Outcome) {
	rec, ok := ds.Lookup(prop.Name)
	if !ok {
		out.reject(prop, "", "no such record")
		out.RejectedInvalid++
		return
	}

	if prop.Column == model.ColCitations {
		e.applyCitations(rec, prop, out)
		return
	}

	value, err := e.values.Column(prop.Column, prop.Value)
	if err != nil {
		out.reject(prop, rec.Get(prop.Column), err.Error())
		out.RejectedInvalid++
		return
	}
	if value == "" {
		out.reject(prop, rec.Get(prop.Column), "empty value")
		out.RejectedInvalid++
		return
	}

	if !rec.Empty(prop.Column) && !prop.Force {
		if rec.Get(prop.Column) == value {
			return // already holds the proposed value, nothing to audit
		}
		out.reject(prop, rec.Get(prop.Column), "target not empty")
		out.RejectedConflict++
		return
	}

	rec.Set(prop.Column, value)
	out.Applied++
	out.Changed = true

	// Provenance rides along with the applied value
	e.appendCitations(rec, e.validCitations(prop, prop.Citations, out), out)
}

// applyCitations handles the append-only citations column. Existing URLs
// are never removed; invalid or duplicate URLs are dropped.
func (e *Engine) applyCitations(rec *store.Record, prop model.Proposal, out *Outcome) {
	urls := prop.Citations
	if len(urls) == 0 && prop.Value != "" {
		urls = store.SplitCitations(prop.Value)
	}
	valid := e.validCitations(prop, urls, out)
	if added := e.appendCitations(rec, valid, out); added > 0 {
		out.Applied++
	}
}

// validCitations drops URLs that fail validation, auditing each drop
func (e *Engine) validCitations(prop model.Proposal, urls []string, out *Outcome) []string {
	var valid []string
	for _, url := range urls {
		if err := validate.CitationURL(url); err != nil {
			out.reject(model.Proposal{
				Name:   prop.Name,
				Column: model.ColCitations,
				Value:  url,
				Source: prop.Source,
			}, "", err.Error())
			out.RejectedInvalid++
			continue
		}
		valid = append(valid, url)
	}
	return valid
}

func (e *Engine) appendCitations(rec *store.Record, urls []string, out *Outcome) int {
	if len(urls) == 0 {
		return 0
	}
	existing := store.SplitCitations(rec.Get(model.ColCitations))
	have := make(map[string]bool, len(existing))
	for _, url := range existing {
		have[url] = true
	}
	added := 0
	for _, url := range urls {
		if have[url] {
			continue
		}
		have[url] = true
		existing = append(existing, url)
		added++
	}
	if added > 0 {
		rec.Set(model.ColCitations, store.JoinCitations(existing))
		out.Changed = true
	}
	return added
}

func (o *Outcome) reject(prop model.Proposal, oldValue, reason string) {
	o.Rejections = append(o.Rejections, model.Rejection{
		Name:     prop.Name,
		Column:   prop.Column,
		OldValue: oldValue,
		Proposed: prop.Value,
		Source:   prop.Source,
		Reason:   reason,
	})
}

// Describe renders one rejection for the human report
func Describe(r model.Rejection) string {
	if r.OldValue != "" {
		return fmt.Sprintf("%s / %s: kept %q, refused %q from %s (%s)",
			r.Name, r.Column, r.OldValue, r.Proposed, r.Source, r.Reason)
	}
	return fmt.Sprintf("%s / %s: refused %q from %s (%s)",
		r.Name, r.Column, r.Proposed, r.Source, r.Reason)
}
