package sim

import (
	"fmt"
	"math/rand"

	"fleetsim/server/internal/journal"
	"fleetsim/server/internal/state"
	"fleetsim/server/logging"
)

// Run owns the authoritative simulation state for one assessment. It is the
// single source of truth every component reads and mutates; access is
// single-writer and synchronous.
type Run struct {
	cfg          Config
	accounts     []*state.Account
	accountIndex map[string]*state.Account
	tweets       []*state.Tweet
	tweetIndex   map[string]*state.Tweet
	queue        []state.ScheduledAction
	executed     []state.ExecutedAction
	triage       []state.TriageDecision
	notices      *noticeRing
	meter        float64
	minutes      float64
	ruleSets     map[string]state.RuleSet
	activeRules  string
	pacing       state.Pacing
	nextActionID uint64
	rng          *rand.Rand
	publisher    logging.Publisher
	journal      *journal.Journal
	phase        string
}

// NewRun constructs a run over an externally generated population. The engine
// performs no validation of the population beyond indexing it. Exactly the
// supplied rule sets are known for the whole run; the first one is active.
func NewRun(cfg Config, accounts []*state.Account, tweets []*state.Tweet, ruleSets []state.RuleSet, publisher logging.Publisher) *Run {
	normalized := cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if len(ruleSets) == 0 {
		ruleSets = []state.RuleSet{state.BaselineRuleSet(), state.StrictRuleSet()}
	}

	r := &Run{
		cfg:          normalized,
		accounts:     accounts,
		accountIndex: make(map[string]*state.Account, len(accounts)),
		tweets:       tweets,
		tweetIndex:   make(map[string]*state.Tweet, len(tweets)),
		queue:        make([]state.ScheduledAction, 0),
		executed:     make([]state.ExecutedAction, 0),
		triage:       make([]state.TriageDecision, 0),
		notices:      newNoticeRing(normalized.NoticeCapacity),
		ruleSets:     make(map[string]state.RuleSet, len(ruleSets)),
		activeRules:  ruleSets[0].ID,
		pacing:       state.DefaultPacing(),
		rng:          NewDeterministicRNG(normalized.Seed, "penalties"),
		publisher:    publisher,
		journal:      journal.New(),
		phase:        "engagement",
	}
	for _, account := range accounts {
		r.accountIndex[account.ID] = account
	}
	for _, tweet := range tweets {
		r.tweetIndex[tweet.ID] = tweet
	}
	for _, rs := range ruleSets {
		r.ruleSets[rs.ID] = rs
	}
	return r
}

// Config returns the normalized engine tuning.
func (r *Run) Config() Config { return r.cfg }

// Seed returns the root seed for deterministic subsystem streams.
func (r *Run) Seed() string { return r.cfg.Seed }

// Minutes returns the elapsed simulated time.
func (r *Run) Minutes() float64 { return r.minutes }

// Meter returns the current detection meter, always within [0,100].
func (r *Run) Meter() float64 { return r.meter }

// Phase names the chapter currently driving the run; trace entries carry it.
func (r *Run) Phase() string { return r.phase }

// SetPhase is called by phase controllers when they take over the run.
func (r *Run) SetPhase(phase string) { r.phase = phase }

// Accounts returns the live account list. Callers mutate through it; the run
// never copies it.
func (r *Run) Accounts() []*state.Account { return r.accounts }

// Account looks up a live account by id.
func (r *Run) Account(id string) (*state.Account, bool) {
	account, ok := r.accountIndex[id]
	return account, ok
}

// Tweets returns the live tweet list.
func (r *Run) Tweets() []*state.Tweet { return r.tweets }

// Tweet looks up a live tweet by id.
func (r *Run) Tweet(id string) (*state.Tweet, bool) {
	tweet, ok := r.tweetIndex[id]
	return tweet, ok
}

// PendingCount reports the queued-action backlog.
func (r *Run) PendingCount() int { return len(r.queue) }

// ExecutedLog returns a copy of the append-only executed-action log.
func (r *Run) ExecutedLog() []state.ExecutedAction {
	copied := make([]state.ExecutedAction, len(r.executed))
	copy(copied, r.executed)
	return copied
}

// ExecutedCount reports the executed-log length without copying it.
func (r *Run) ExecutedCount() int { return len(r.executed) }

// ExecutedSince returns a copy of the executed-log tail starting at offset.
func (r *Run) ExecutedSince(offset int) []state.ExecutedAction {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(r.executed) {
		return nil
	}
	return append([]state.ExecutedAction(nil), r.executed[offset:]...)
}

// TriageLog returns a copy of the append-only triage-decision log.
func (r *Run) TriageLog() []state.TriageDecision {
	copied := make([]state.TriageDecision, len(r.triage))
	copy(copied, r.triage)
	return copied
}

// AppendTriage records a triage decision.
func (r *Run) AppendTriage(decision state.TriageDecision) {
	r.triage = append(r.triage, decision)
}

// Notices returns the retained operator advisories, oldest first.
func (r *Run) Notices() []string { return r.notices.list() }

// NoticesTotal reports how many advisories the run has ever recorded,
// counting entries the ring has since rotated out.
func (r *Run) NoticesTotal() int { return r.notices.pushed() }

// Pacing returns the current engagement constraints.
func (r *Run) Pacing() state.Pacing { return r.pacing.Clone() }

// SetPacing replaces the engagement constraints; only the countermeasure
// reducer should call it.
func (r *Run) SetPacing(p state.Pacing) { r.pacing = p.Clone() }

// ActiveRuleSet returns the rule set in force. It panics when the active id
// is unknown, since that can only be host misuse.
func (r *Run) ActiveRuleSet() state.RuleSet {
	rs, ok := r.ruleSets[r.activeRules]
	if !ok {
		panic(fmt.Sprintf("sim: active rule set %q is not registered", r.activeRules))
	}
	return rs
}

// RuleSets lists every registered rule set.
func (r *Run) RuleSets() []state.RuleSet {
	listed := make([]state.RuleSet, 0, len(r.ruleSets))
	for _, id := range []string{state.RuleSetBaseline, state.RuleSetStrict} {
		if rs, ok := r.ruleSets[id]; ok {
			listed = append(listed, rs)
		}
	}
	for id, rs := range r.ruleSets {
		if id != state.RuleSetBaseline && id != state.RuleSetStrict {
			listed = append(listed, rs)
		}
	}
	return listed
}

// SwitchRuleSet activates a registered rule set by id. Unknown ids are a
// programmer error and panic.
func (r *Run) SwitchRuleSet(id string) {
	if _, ok := r.ruleSets[id]; !ok {
		panic(fmt.Sprintf("sim: unknown rule set %q", id))
	}
	r.activeRules = id
	r.journal.Append(journal.Entry{
		Minute:  r.minutes,
		Phase:   r.phase,
		Type:    "ruleset.switched",
		Payload: map[string]string{"to": id},
	})
}

// Journal exposes the append-only trace for snapshot assembly.
func (r *Run) Journal() *journal.Journal { return r.journal }

// Publisher exposes the structured event publisher shared with the phase
// controllers.
func (r *Run) Publisher() logging.Publisher { return r.publisher }

// ResetEngagement clears the engagement-specific fields (pending queue,
// notices, detection meter) ahead of a fresh engagement chapter. Logs stay.
func (r *Run) ResetEngagement() {
	r.queue = r.queue[:0]
	r.notices.reset()
	r.meter = 0
}

// notice records an advisory in the ring buffer and returns it so the tick
// processor can surface it to the caller.
func (r *Run) notice(format string, args ...any) string {
	formatted := fmt.Sprintf(format, args...)
	r.notices.push(formatted)
	return formatted
}

func clampMeter(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// Snapshot assembles the JSON-serializable export of the whole run. Scores
// and summaries are zero; the scoring engine fills them in at run end.
func (r *Run) Snapshot(runID string) state.RunSnapshot {
	accounts := make([]state.Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, account.Clone())
	}
	tweets := make([]state.Tweet, 0, len(r.tweets))
	for _, tweet := range r.tweets {
		tweets = append(tweets, tweet.Clone())
	}
	return state.RunSnapshot{
		RunID:           runID,
		Seed:            r.cfg.Seed,
		Minutes:         r.minutes,
		Meter:           r.meter,
		ActiveRuleSet:   r.activeRules,
		RuleSets:        r.RuleSets(),
		Accounts:        accounts,
		Tweets:          tweets,
		Executed:        r.ExecutedLog(),
		TriageDecisions: r.TriageLog(),
		Notices:         r.Notices(),
		Pacing:          r.pacing.Clone(),
		ReactionLatency: -1,
		Trace:           r.journal.Entries(),
	}
}
