package model

// Canonical store column names. The store round-trips columns it does not
// know about, so this list is the reconciliation surface, not the schema.
const (
	ColName          = "Hebrew Name"
	ColEnglishName   = "English Name"
	ColStatus        = "Current Status"
	ColDeathDate     = "Date of Death"
	ColDeathContext  = "Context of Death"
	ColReleaseDate   = "Release Date"
	ColCircumstances = "Release/Death Circumstances"
	ColCitations     = "Citation URLs"
	ColCountries     = "Countries Involved in Deals"

	// Free-text columns carried from the original extraction. Inputs to the
	// pattern rules, never themselves reconciled.
	ColDescShort   = "Hebrew Description Short"
	ColDescLong    = "Hebrew Description Long"
	ColKidnapSumm  = "Kidnapping Summary (Hebrew)"
)

// Status is the current disposition of one tracked individual
type Status string

const (
	StatusHeld             Status = "Held in Gaza"
	StatusReleased         Status = "Released"
	StatusDeceased         Status = "Deceased"
	StatusDeceasedReturned Status = "Deceased - Returned"
	StatusUnknown          Status = "Unknown"
)

// ValidStatus reports whether s is one of the fixed status values
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusHeld, StatusReleased, StatusDeceased, StatusDeceasedReturned, StatusUnknown:
		return true
	}
	return false
}

// ReleaseCircumstances is the fixed enumeration for the
// "Release/Death Circumstances" column
var ReleaseCircumstances = []string{
	"Returned in Deal",
	"Returned in Deal - Body",
	"Returned in Military Operation",
	"Returned in Military Operation - Body",
}

// DeathContexts is the fixed enumeration for the "Context of Death" column
var DeathContexts = []string{
	"Died Before/During Kidnapping",
	"Died in Captivity - Unknown Circumstances",
	"Died in Captivity - Killed by IDF",
	"Died in Captivity - Hunger/Conditions",
	"Died in Captivity - Killed by Hamas",
	"Died in Captivity - Killed by Fleeing Hamas",
	"Died in Captivity - Unprovoked Execution",
}

// IsBodyReturn reports whether a circumstances value describes the return of
// a body rather than a live release
func IsBodyReturn(circumstances string) bool {
	switch circumstances {
	case "Returned in Deal - Body", "Returned in Military Operation - Body":
		return true
	}
	return false
}

// Proposal is one field update offered by a source adapter. The merge engine
// decides whether it lands; adapters never touch the dataset directly.
type Proposal struct {
	Name      string   `json:"name"`                // canonical key of the target record
	Column    string   `json:"column"`              // target column
	Value     string   `json:"value"`               // proposed value
	Source    string   `json:"source"`              // adapter tag, e.g. "archive:kan.csv" or "override:carmel-gat"
	Citations []string `json:"citations,omitempty"` // provenance URLs appended on apply
	Force     bool     `json:"force,omitempty"`     // manual overrides only: may replace a non-empty value
	Reason    string   `json:"reason,omitempty"`    // human justification (required when Force is set)
}

// Ambiguity records a source row the adapter could not uniquely resolve to a
// canonical record. Reported for manual review, never guessed.
type Ambiguity struct {
	Source      string   `json:"source"`                // adapter tag
	Name        string   `json:"name"`                  // name as it appeared in the source
	Candidates  []string `json:"candidates,omitempty"`  // equally-scored canonical keys, empty if none matched
	Suggestions []string `json:"suggestions,omitempty"` // fuzzy near-misses for the operator
}
