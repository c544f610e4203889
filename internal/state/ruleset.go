package state

// RuleSet bundles the four detection-factor weights. Exactly one rule set is
// active at any simulated instant; swapping it models the platform changing
// its algorithm.
type RuleSet struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	SynchronyWeight  float64 `json:"synchronyWeight"`
	RepetitionWeight float64 `json:"repetitionWeight"`
	PersonaWeight    float64 `json:"personaWeight"`
	OveruseWeight    float64 `json:"overuseWeight"`
}

const (
	// RuleSetBaseline is the rule set every run starts on.
	RuleSetBaseline = "baseline"
	// RuleSetStrict is the post-change regime the adaptive chapter swaps to.
	RuleSetStrict = "strict"
)

// BaselineRuleSet returns the default launch-regime weights.
func BaselineRuleSet() RuleSet {
	return RuleSet{
		ID:               RuleSetBaseline,
		Name:             "Launch algorithm",
		SynchronyWeight:  1.0,
		RepetitionWeight: 1.0,
		PersonaWeight:    1.0,
		OveruseWeight:    1.0,
	}
}

// StrictRuleSet returns the tightened weights applied after the mid-run
// algorithm change. Every factor is strictly heavier than the baseline.
func StrictRuleSet() RuleSet {
	return RuleSet{
		ID:               RuleSetStrict,
		Name:             "Updated algorithm",
		SynchronyWeight:  1.8,
		RepetitionWeight: 1.5,
		PersonaWeight:    1.4,
		OveruseWeight:    2.0,
	}
}
