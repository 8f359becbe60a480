package match

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ErrNoMatch means no canonical record scored at or above the threshold
var ErrNoMatch = errors.New("no matching record")

// AmbiguousMatchError means several canonical records scored equally well.
// The caller must report it for manual review, never pick one.
type AmbiguousMatchError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for %q: %d equally-scored candidates (%s)",
		e.Name, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Normalize reduces a name to a comparable form: punctuation (including
// geresh and gershayim) becomes spaces, runs of whitespace collapse, Latin
// letters are lowercased. Hebrew passes through unchanged.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '\'', '"', '׳', '״', '-', '–', '_', ',', '.', '(', ')':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(b.String()), " "))
}

// Tokens returns the normalized name parts
func Tokens(name string) []string {
	return strings.Fields(Normalize(name))
}

// TokenOverlap scores two names in [0,1]: shared token count over the
// larger token count. "avraham cohen" vs "avraham cohen levi" scores 2/3,
// which is what keeps near-namesakes from merging at the 0.7 threshold.
func TokenOverlap(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	shared := 0
	for _, t := range tb {
		if set[t] {
			shared++
			set[t] = false // count each token once
		}
	}
	larger := len(ta)
	if len(tb) > larger {
		larger = len(tb)
	}
	return float64(shared) / float64(larger)
}

// Resolver maps external source names onto canonical dataset keys.
// Stages: exact key, normalized key, token-overlap fuzzy match.
type Resolver struct {
	threshold      float64
	maxSuggestions int
	keys           []string
	exact          map[string]bool
	normalized     map[string][]string
}

// NewResolver builds a resolver over the canonical keys.
// threshold is the minimum token-overlap similarity for a fuzzy match.
func NewResolver(keys []string, threshold float64, maxSuggestions int) *Resolver {
	r := &Resolver{
		threshold:      threshold,
		maxSuggestions: maxSuggestions,
		keys:           keys,
		exact:          make(map[string]bool, len(keys)),
		normalized:     make(map[string][]string, len(keys)),
	}
	for _, key := range keys {
		r.exact[key] = true
		norm := Normalize(key)
		r.normalized[norm] = append(r.normalized[norm], key)
	}
	return r
}

// Resolve returns the unique canonical key for a source name.
// Returns ErrNoMatch when nothing scores at the threshold, and
// *AmbiguousMatchError when the best score is shared by several keys.
func (r *Resolver) Resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoMatch
	}

	if r.exact[name] {
		return name, nil
	}

	if keys, ok := r.normalized[Normalize(name)]; ok {
		if len(keys) == 1 {
			return keys[0], nil
		}
		return "", &AmbiguousMatchError{Name: name, Candidates: keys}
	}

	best := 0.0
	var candidates []string
	for _, key := range r.keys {
		score := TokenOverlap(name, key)
		if score < r.threshold {
			continue
		}
		switch {
		case score > best:
			best = score
			candidates = candidates[:0]
			candidates = append(candidates, key)
		case score == best:
			candidates = append(candidates, key)
		}
	}

	switch len(candidates) {
	case 0:
		return "", ErrNoMatch
	case 1:
		return candidates[0], nil
	default:
		return "", &AmbiguousMatchError{Name: name, Candidates: candidates}
	}
}

// Suggest returns near-miss canonical keys for an unresolved name, for the
// operator section of the run report. Suggestions are advisory only.
func (r *Resolver) Suggest(name string) []string {
	matches := fuzzy.Find(Normalize(name), r.normalizedKeys())
	n := len(matches)
	if n > r.maxSuggestions {
		n = r.maxSuggestions
	}
	suggestions := make([]string, 0, n)
	for _, m := range matches[:n] {
		suggestions = append(suggestions, r.keys[m.Index])
	}
	return suggestions
}

func (r *Resolver) normalizedKeys() []string {
	norm := make([]string, len(r.keys))
	for i, key := range r.keys {
		norm[i] = Normalize(key)
	}
	return norm
}
