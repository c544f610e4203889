package state

// TriageOutcome is the final call recorded for a reviewed account.
type TriageOutcome string

const (
	TriageKeep    TriageOutcome = "keep"
	TriagePark    TriageOutcome = "park"
	TriageDiscard TriageOutcome = "discard"
)

// TriageDecision is one record per processed account during the triage
// chapter. The decision log is append-only.
type TriageDecision struct {
	AccountID     string        `json:"accountId"`
	Outcome       TriageOutcome `json:"outcome"`
	Edits         []string      `json:"edits,omitempty"`
	RevealedFlags []int         `json:"revealedFlags,omitempty"`
	TimeSpent     float64       `json:"timeSpent"`
}
