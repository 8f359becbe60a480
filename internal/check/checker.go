package check

import (
	"fmt"

	"github.com/raolev/hostage-records/internal/model"
	"github.com/raolev/hostage-records/internal/store"
)

// Checker scans the dataset after a merge and reports every record whose
// field combination contradicts the status rules. It never auto-corrects:
// fixing a violation takes another adapter pass, a manual override, or an
// explicitly confirmed status suggestion.
type Checker struct{}

// New creates a checker
func New() *Checker {
	return &Checker{}
}

// Check returns every invariant violation in the dataset, in row order
func (c *Checker) Check(ds *store.Dataset) []model.Violation {
	var violations []model.Violation
	for _, rec := range ds.Records {
		violations = append(violations, c.checkRecord(rec)...)
	}
	return violations
}

func (c *Checker) checkRecord(rec *store.Record) []model.Violation {
	status := model.Status(rec.Get(model.ColStatus))
	var out []model.Violation
	add := func(rule, detail string) {
		out = append(out, model.Violation{
			Name:   rec.Key(),
			Status: status,
			Rule:   rule,
			Detail: detail,
		})
	}

	hasRelease := !rec.Empty(model.ColReleaseDate)
	hasCircumstances := !rec.Empty(model.ColCircumstances)
	hasDeathContext := !rec.Empty(model.ColDeathContext)
	circumstances := rec.Get(model.ColCircumstances)

	switch status {
	case model.StatusHeld:
		if hasRelease {
			add("held-has-release-date",
				fmt.Sprintf("held but release date %q is set", rec.Get(model.ColReleaseDate)))
		}
		if hasCircumstances {
			add("held-has-circumstances",
				fmt.Sprintf("held but return circumstances %q are set", circumstances))
		}
		if !rec.Empty(model.ColDeathDate) || hasDeathContext {
			add("held-has-death-facts", "held but death facts are recorded")
		}

	case model.StatusReleased:
		if !hasRelease {
			add("released-missing-date", "released but no release date")
		}
		if !hasCircumstances {
			add("released-missing-circumstances", "released but no release circumstances")
		} else if model.IsBodyReturn(circumstances) {
			add("released-body-circumstances",
				fmt.Sprintf("released alive but circumstances %q describe a body return", circumstances))
		}

	case model.StatusDeceased:
		if !hasDeathContext {
			add("deceased-missing-context", "deceased but no death context")
		}
		if hasRelease {
			add("deceased-has-return-date",
				fmt.Sprintf("deceased (not returned) but return date %q is set", rec.Get(model.ColReleaseDate)))
		}

	case model.StatusDeceasedReturned:
		if !hasDeathContext {
			add("returned-missing-context", "body returned but no death context")
		}
		if !hasRelease {
			add("returned-missing-date", "body returned but no return date")
		}
		if !hasCircumstances {
			add("returned-missing-circumstances", "body returned but no return circumstances")
		} else if !model.IsBodyReturn(circumstances) {
			add("returned-live-circumstances",
				fmt.Sprintf("body returned but circumstances %q describe a live release", circumstances))
		}

	case model.StatusUnknown:
		// Unknown with supporting facts means a status was never inferred
		if hasRelease || hasCircumstances {
			add("unknown-has-release-facts", "status unknown but release facts are recorded")
		}

	default:
		add("invalid-status", fmt.Sprintf("status %q is not a known value", status))
	}

	return out
}

// Suggest proposes, per violation, the minimal status change that would
// resolve it. Suggestions require explicit confirmation before they are
// applied; a status change is still an individually recorded decision.
func (c *Checker) Suggest(ds *store.Dataset, violations []model.Violation) []model.Suggestion {
	var suggestions []model.Suggestion
	suggested := make(map[string]bool)
	for _, v := range violations {
		rec, ok := ds.Lookup(v.Name)
		if !ok || suggested[v.Name] {
			continue
		}
		if s, ok := c.suggestRecord(rec, v); ok {
			suggestions = append(suggestions, s)
			suggested[v.Name] = true
		}
	}
	return suggestions
}

func (c *Checker) suggestRecord(rec *store.Record, v model.Violation) (model.Suggestion, bool) {
	status := model.Status(rec.Get(model.ColStatus))
	circumstances := rec.Get(model.ColCircumstances)
	hasRelease := !rec.Empty(model.ColReleaseDate)
	hasCircumstances := !rec.Empty(model.ColCircumstances)
	hasDeathContext := !rec.Empty(model.ColDeathContext)

	propose := func(to model.Status, reason string) (model.Suggestion, bool) {
		if !ValidTransition(status, to) {
			return model.Suggestion{}, false
		}
		return model.Suggestion{
			Name:       rec.Key(),
			FromStatus: status,
			ToStatus:   to,
			Rule:       v.Rule,
			Reason:     reason,
		}, true
	}

	switch status {
	case model.StatusHeld, model.StatusUnknown:
		if hasRelease && hasCircumstances {
			if model.IsBodyReturn(circumstances) && hasDeathContext {
				return propose(model.StatusDeceasedReturned,
					"release facts describe a body return and a death context is recorded")
			}
			if !model.IsBodyReturn(circumstances) {
				return propose(model.StatusReleased, "release date and circumstances are recorded")
			}
		}
	case model.StatusDeceased:
		if hasRelease && model.IsBodyReturn(circumstances) {
			return propose(model.StatusDeceasedReturned, "a body-return date and circumstances are recorded")
		}
	}
	return model.Suggestion{}, false
}

// ValidTransition encodes the status state machine. Transitions only move
// toward more-resolved states; nothing ever removes recorded facts.
func ValidTransition(from, to model.Status) bool {
	if from == to {
		return false
	}
	switch from {
	case model.StatusUnknown:
		return to == model.StatusHeld || to == model.StatusReleased ||
			to == model.StatusDeceased || to == model.StatusDeceasedReturned
	case model.StatusHeld:
		return to == model.StatusReleased || to == model.StatusDeceased ||
			to == model.StatusDeceasedReturned
	case model.StatusDeceased:
		return to == model.StatusDeceasedReturned
	}
	return false
}

// ApplySuggestion writes a confirmed status change. The supporting fields
// were what produced the suggestion, so only the status cell moves.
func ApplySuggestion(ds *store.Dataset, s model.Suggestion) error {
	rec, ok := ds.Lookup(s.Name)
	if !ok {
		return fmt.Errorf("no record %q", s.Name)
	}
	current := model.Status(rec.Get(model.ColStatus))
	if current != s.FromStatus {
		return fmt.Errorf("record %q status is %q, suggestion expected %q", s.Name, current, s.FromStatus)
	}
	if !ValidTransition(s.FromStatus, s.ToStatus) {
		return fmt.Errorf("invalid status transition %q -> %q for %q", s.FromStatus, s.ToStatus, s.Name)
	}
	rec.Set(model.ColStatus, string(s.ToStatus))
	return nil
}
