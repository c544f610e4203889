package phase

import (
	"context"

	"fleetsim/server/internal/journal"
	"fleetsim/server/internal/sim"
	"fleetsim/server/internal/state"
	"fleetsim/server/logging"
	loggingtriage "fleetsim/server/logging/triage"
)

// TriageCosts are the fixed simulated-minute prices of each triage action.
type TriageCosts struct {
	Open       float64 `json:"open"`
	Edit       float64 `json:"edit"`
	ToggleTag  float64 `json:"toggleTag"`
	ChangeRisk float64 `json:"changeRisk"`
	RevealFlag float64 `json:"revealFlag"`
	Decide     float64 `json:"decide"`
	Skip       float64 `json:"skip"`
}

// DefaultTriageCosts returns the standard price list.
func DefaultTriageCosts() TriageCosts {
	return TriageCosts{
		Open:       1.5,
		Edit:       0.5,
		ToggleTag:  0.5,
		ChangeRisk: 1.0,
		RevealFlag: 2.0,
		Decide:     1.0,
		Skip:       0.5,
	}
}

// TriageConfig tunes the time-boxed triage chapter.
type TriageConfig struct {
	// Budget is the chapter's time allowance in simulated minutes. It is a
	// resource counter, not a wall-clock deadline.
	Budget float64
	Costs  TriageCosts
}

// DefaultTriageConfig returns the standard 60-minute budget.
func DefaultTriageConfig() TriageConfig {
	return TriageConfig{Budget: 60, Costs: DefaultTriageCosts()}
}

// Triage presents a fixed, shuffled queue of accounts one at a time and
// debits a real-valued time budget per action. The chapter is complete when
// the budget reaches zero or the queue is exhausted, whichever comes first.
type Triage struct {
	run    *sim.Run
	cfg    TriageConfig
	queue  []string
	idx    int
	budget float64

	// Per-current-account bookkeeping, reset whenever the pointer advances.
	spentOnCurrent float64
	edits          []string
	revealed       []int

	exhaustedLogged bool
}

// NewTriage builds the controller. The queue order is shuffled once with a
// deterministic stream derived from the run seed.
func NewTriage(run *sim.Run, cfg TriageConfig) *Triage {
	if cfg.Budget <= 0 {
		cfg = DefaultTriageConfig()
	}
	queue := make([]string, 0, len(run.Accounts()))
	for _, account := range run.Accounts() {
		queue = append(queue, account.ID)
	}
	rng := sim.NewDeterministicRNG(run.Seed(), "triage.queue")
	rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	return &Triage{
		run:    run,
		cfg:    cfg,
		queue:  queue,
		budget: cfg.Budget,
	}
}

// Begin takes over the run.
func (p *Triage) Begin() {
	p.run.SetPhase(string(KindTriage))
	p.run.Journal().Append(journal.Entry{
		Minute:  p.run.Minutes(),
		Phase:   string(KindTriage),
		Type:    "phase.entered",
		Payload: map[string]any{"queue": len(p.queue), "budget": p.budget},
	})
}

// Tick keeps simulated time and content aging flowing while the operator
// works the queue; the budget itself is not wall-clock driven.
func (p *Triage) Tick(deltaMs float64) sim.TickResult {
	return p.run.Advance(deltaMs)
}

// Budget returns the remaining allowance. It never goes negative.
func (p *Triage) Budget() float64 { return p.budget }

// Processed reports how many accounts the pointer has moved past.
func (p *Triage) Processed() int { return p.idx }

// Pending reports how many accounts remain, including the current one.
func (p *Triage) Pending() int { return len(p.queue) - p.idx }

// QueueLength is the fixed total.
func (p *Triage) QueueLength() int { return len(p.queue) }

// Done reports chapter completion: budget exhausted or queue empty.
func (p *Triage) Done() bool {
	return p.budget <= 0 || p.idx >= len(p.queue)
}

// Current returns the account under review, or false when the queue is
// exhausted.
func (p *Triage) Current() (*state.Account, bool) {
	if p.idx >= len(p.queue) {
		return nil, false
	}
	account, ok := p.run.Account(p.queue[p.idx])
	return account, ok
}

// spend debits the budget, refusing (and leaving the budget untouched) when
// the cost exceeds what is left.
func (p *Triage) spend(cost float64) bool {
	if p.Done() || cost > p.budget {
		if p.budget <= 0 {
			p.noteExhausted()
		}
		return false
	}
	p.budget -= cost
	p.spentOnCurrent += cost
	if p.budget <= 0 {
		p.budget = 0
		p.noteExhausted()
	}
	return true
}

func (p *Triage) noteExhausted() {
	if p.exhaustedLogged {
		return
	}
	p.exhaustedLogged = true
	loggingtriage.BudgetExhausted(context.Background(), p.run.Publisher(), p.run.Minutes(),
		loggingtriage.BudgetExhaustedPayload{Processed: p.Processed(), Pending: p.Pending()})
}

// Open debits the record-opening cost for the current account.
func (p *Triage) Open() bool {
	if _, ok := p.Current(); !ok {
		return false
	}
	return p.spend(p.cfg.Costs.Open)
}

// EditField debits an edit and records which field changed.
func (p *Triage) EditField(field string) bool {
	if _, ok := p.Current(); !ok {
		return false
	}
	if !p.spend(p.cfg.Costs.Edit) {
		return false
	}
	p.edits = append(p.edits, "field:"+field)
	return true
}

// TogglePersona flips a persona tag on the current account.
func (p *Triage) TogglePersona(tag state.PersonaTag) bool {
	account, ok := p.Current()
	if !ok {
		return false
	}
	if !p.spend(p.cfg.Costs.ToggleTag) {
		return false
	}
	if account.Personas == nil {
		account.Personas = make(map[state.PersonaTag]bool, 1)
	}
	account.Personas[tag] = !account.Personas[tag]
	p.edits = append(p.edits, "persona:"+string(tag))
	return true
}

// SetRiskClass reassigns the current account's risk class.
func (p *Triage) SetRiskClass(class state.RiskClass) bool {
	account, ok := p.Current()
	if !ok {
		return false
	}
	if !p.spend(p.cfg.Costs.ChangeRisk) {
		return false
	}
	account.RiskClass = class
	p.edits = append(p.edits, "risk:"+string(class))
	return true
}

// RevealFlag uncovers one history flag by index, consuming budget. It
// returns false for an out-of-range index or an unaffordable reveal, leaving
// the budget unchanged; flags are never revealed automatically.
func (p *Triage) RevealFlag(index int) (string, bool) {
	account, ok := p.Current()
	if !ok {
		return "", false
	}
	if index < 0 || index >= len(account.HistoryFlags) {
		return "", false
	}
	if !p.spend(p.cfg.Costs.RevealFlag) {
		return "", false
	}
	flag := account.HistoryFlags[index]
	p.revealed = append(p.revealed, index)
	loggingtriage.FlagRevealed(context.Background(), p.run.Publisher(), p.run.Minutes(),
		logging.EntityRef{ID: account.ID, Kind: logging.EntityKindAccount},
		loggingtriage.FlagRevealedPayload{Index: index, Severity: string(flag.Severity), Cost: p.cfg.Costs.RevealFlag})
	return flag.Text, true
}

// Decide records the final call for the current account, mutates its status,
// and advances the pointer. The decision itself is budgeted.
func (p *Triage) Decide(outcome state.TriageOutcome) bool {
	account, ok := p.Current()
	if !ok {
		return false
	}
	if !p.spend(p.cfg.Costs.Decide) {
		return false
	}

	switch outcome {
	case state.TriageKeep:
		account.Status = state.StatusActive
	case state.TriagePark:
		account.Status = state.StatusParked
	case state.TriageDiscard:
		account.Status = state.StatusDiscarded
	}

	decision := state.TriageDecision{
		AccountID:     account.ID,
		Outcome:       outcome,
		Edits:         append([]string(nil), p.edits...),
		RevealedFlags: append([]int(nil), p.revealed...),
		TimeSpent:     p.spentOnCurrent,
	}
	p.run.AppendTriage(decision)
	p.run.Journal().Append(journal.Entry{
		Minute:  p.run.Minutes(),
		Phase:   string(KindTriage),
		Type:    "triage.decision",
		Payload: decision,
	})
	loggingtriage.Decision(context.Background(), p.run.Publisher(), p.run.Minutes(),
		logging.EntityRef{ID: account.ID, Kind: logging.EntityKindAccount},
		loggingtriage.DecisionPayload{
			Outcome:       string(outcome),
			TimeSpent:     decision.TimeSpent,
			Edits:         len(decision.Edits),
			FlagsRevealed: len(decision.RevealedFlags),
		})

	p.advancePointer()
	return true
}

// Skip moves past the current account without recording a decision, at a
// fraction of the open/decide cost.
func (p *Triage) Skip() bool {
	if _, ok := p.Current(); !ok {
		return false
	}
	if !p.spend(p.cfg.Costs.Skip) {
		return false
	}
	p.advancePointer()
	return true
}

func (p *Triage) advancePointer() {
	p.idx++
	p.spentOnCurrent = 0
	p.edits = nil
	p.revealed = nil
}
