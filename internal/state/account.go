package state

// RiskClass is an account's value tier. Frontline accounts carry the largest
// reach multipliers and the tightest overuse sensitivity.
type RiskClass string

const (
	RiskBackground RiskClass = "background"
	RiskMid        RiskClass = "mid"
	RiskFrontline  RiskClass = "frontline"
)

// AccountStatus is the mutable operational state of an account. Accounts are
// never deleted; removal is modelled as a status transition.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusFlagged   AccountStatus = "flagged"
	StatusBanned    AccountStatus = "banned"
	StatusParked    AccountStatus = "parked"
	StatusDiscarded AccountStatus = "discarded"
)

// PersonaTag marks a behavioural archetype an account is dressed as.
type PersonaTag string

const (
	PersonaNormie     PersonaTag = "normie"
	PersonaSpecialist PersonaTag = "specialist"
	PersonaBuilder    PersonaTag = "builder"
	PersonaLurker     PersonaTag = "lurker"
	PersonaMemer      PersonaTag = "memer"
)

// FlagSeverity grades a latent history flag.
type FlagSeverity string

const (
	FlagSevere   FlagSeverity = "severe"
	FlagModerate FlagSeverity = "moderate"
	FlagMild     FlagSeverity = "mild"
)

// HistoryFlag is a latent note on an account's past, hidden until revealed
// during triage.
type HistoryFlag struct {
	Text     string       `json:"text"`
	Severity FlagSeverity `json:"severity"`
}

// Account is a synthetic actor in the fleet. HiddenBanRisk is the covert
// 0..1 score used by the detection engine; it must never be written to an
// operator-facing payload.
type Account struct {
	ID            string              `json:"id"`
	Handle        string              `json:"handle"`
	AgeDays       int                 `json:"ageDays"`
	Followers     int                 `json:"followers"`
	RiskClass     RiskClass           `json:"riskClass"`
	Status        AccountStatus       `json:"status"`
	Personas      map[PersonaTag]bool `json:"personas"`
	HistoryFlags  []HistoryFlag       `json:"historyFlags"`
	HiddenBanRisk float64             `json:"hiddenBanRisk"`
}

// Active reports whether the account can still carry scheduled actions.
func (a *Account) Active() bool {
	return a != nil && a.Status == StatusActive
}

// HasPersona reports whether a persona tag is set.
func (a *Account) HasPersona(tag PersonaTag) bool {
	if a == nil || a.Personas == nil {
		return false
	}
	return a.Personas[tag]
}

// ReachMultiplier maps the risk class onto the reach/depth scaling applied to
// every executed action.
func (a *Account) ReachMultiplier() float64 {
	if a == nil {
		return 0
	}
	switch a.RiskClass {
	case RiskFrontline:
		return 1.8
	case RiskMid:
		return 1.0
	default:
		return 0.6
	}
}

// Clone deep-copies the account so snapshots cannot alias live state.
func (a *Account) Clone() Account {
	cloned := *a
	if a.Personas != nil {
		cloned.Personas = make(map[PersonaTag]bool, len(a.Personas))
		for tag, set := range a.Personas {
			cloned.Personas[tag] = set
		}
	}
	if len(a.HistoryFlags) > 0 {
		cloned.HistoryFlags = append([]HistoryFlag(nil), a.HistoryFlags...)
	}
	return cloned
}
