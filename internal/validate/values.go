package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/raolev/hostage-records/internal/model"
)

// ISO is the canonical on-disk date layout
const ISO = "2006-01-02"

// dateLayouts are the formats accepted from sources, tried in order.
// Everything is normalized to ISO before it reaches the store.
var dateLayouts = []string{
	ISO,
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
}

// nowFunc is injectable for tests
var nowFunc = time.Now

// Values validates proposed cell values against the fixed enumerations and
// the plausible historical window.
type Values struct {
	earliest     time.Time
	deathCtx     map[string]bool
	circumstance map[string]bool
}

// New builds a validator. earliestDate bounds the historical window from
// below (ISO format); the upper bound is always "now".
func New(earliestDate string) (*Values, error) {
	earliest, err := time.Parse(ISO, earliestDate)
	if err != nil {
		return nil, fmt.Errorf("parse earliest date %q: %w", earliestDate, err)
	}
	v := &Values{
		earliest:     earliest,
		deathCtx:     make(map[string]bool, len(model.DeathContexts)),
		circumstance: make(map[string]bool, len(model.ReleaseCircumstances)),
	}
	for _, c := range model.DeathContexts {
		v.deathCtx[c] = true
	}
	for _, c := range model.ReleaseCircumstances {
		v.circumstance[c] = true
	}
	return v, nil
}

// Date parses and normalizes a proposed date. Rejects unparseable input,
// impossible calendar dates, and dates outside [earliest, now].
func (v *Values) Date(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty date")
	}
	var parsed time.Time
	var err error
	for _, layout := range dateLayouts {
		parsed, err = time.Parse(layout, raw)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("unrecognized date format %q", raw)
	}
	// time.Parse silently normalizes impossible dates like 31/02; a
	// round-trip through the matched layout catches that.
	if parsed.Format(ISO) != raw && !sameDateUnderAnyLayout(raw, parsed) {
		return "", fmt.Errorf("invalid calendar date %q", raw)
	}
	if parsed.Before(v.earliest) {
		return "", fmt.Errorf("date %s precedes earliest plausible date %s",
			parsed.Format(ISO), v.earliest.Format(ISO))
	}
	if parsed.After(nowFunc()) {
		return "", fmt.Errorf("date %s is in the future", parsed.Format(ISO))
	}
	return parsed.Format(ISO), nil
}

func sameDateUnderAnyLayout(raw string, parsed time.Time) bool {
	for _, layout := range dateLayouts {
		if parsed.Format(layout) == raw {
			return true
		}
	}
	return false
}

// Status rejects anything outside the fixed status enumeration
func (v *Values) Status(raw string) error {
	if !model.ValidStatus(strings.TrimSpace(raw)) {
		return fmt.Errorf("unknown status %q", raw)
	}
	return nil
}

// DeathContext rejects free-form death context strings: only the fixed
// categories pass, nothing is coerced.
func (v *Values) DeathContext(raw string) error {
	if !v.deathCtx[strings.TrimSpace(raw)] {
		return fmt.Errorf("unknown death context category %q", raw)
	}
	return nil
}

// Circumstances rejects free-form release/return circumstance strings
func (v *Values) Circumstances(raw string) error {
	if !v.circumstance[strings.TrimSpace(raw)] {
		return fmt.Errorf("unknown circumstances category %q", raw)
	}
	return nil
}

// Column dispatches to the right check for a store column and returns the
// normalized value to apply. Columns without a typed check pass through
// trimmed.
func (v *Values) Column(column, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch column {
	case model.ColDeathDate, model.ColReleaseDate:
		return v.Date(raw)
	case model.ColStatus:
		return raw, v.Status(raw)
	case model.ColDeathContext:
		return raw, v.DeathContext(raw)
	case model.ColCircumstances:
		return raw, v.Circumstances(raw)
	default:
		return raw, nil
	}
}

// genericURL matches bare domains with no article path
var genericURL = regexp.MustCompile(`^https?://[^/]+/?#?$`)

// CitationURL accepts only specific article URLs: parseable, http(s), and
// not a bare domain.
func CitationURL(raw string) error {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	if genericURL.MatchString(raw) {
		return fmt.Errorf("generic domain, not a specific article: %q", raw)
	}
	return nil
}
