package phase

import (
	"context"

	"fleetsim/server/internal/journal"
	"fleetsim/server/internal/sim"
	"fleetsim/server/internal/state"
	loggingadaptive "fleetsim/server/logging/adaptive"
)

// AdaptiveConfig tunes the rule-change chapter.
type AdaptiveConfig struct {
	// SwapMinute is the simulated minute at which the detection rule set
	// hardens. The swap fires once and never reverts.
	SwapMinute float64
	// MaxCountermeasures bounds how many pacing adjustments the operator
	// may apply during the chapter.
	MaxCountermeasures int
	// StrictRuleSetID names the rule set activated at the swap.
	StrictRuleSetID string
}

// DefaultAdaptiveConfig returns the standard minute-40 hardening.
func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		SwapMinute:         40,
		MaxCountermeasures: 3,
		StrictRuleSetID:    state.RuleSetStrict,
	}
}

// Adaptive runs the final chapter: normal engagement continues until the
// detection rules silently harden mid-chapter, then measures how quickly and
// how well the operator adjusts pacing in response.
type Adaptive struct {
	run *sim.Run
	cfg AdaptiveConfig

	startMinute float64
	swapped     bool
	swapMinute  float64
	baseline    *state.BaselineMetrics

	applied          []state.Countermeasure
	firstReactionMin float64
}

// NewAdaptive builds the controller around a run.
func NewAdaptive(run *sim.Run, cfg AdaptiveConfig) *Adaptive {
	if cfg.SwapMinute <= 0 {
		cfg.SwapMinute = DefaultAdaptiveConfig().SwapMinute
	}
	if cfg.MaxCountermeasures <= 0 {
		cfg.MaxCountermeasures = DefaultAdaptiveConfig().MaxCountermeasures
	}
	if cfg.StrictRuleSetID == "" {
		cfg.StrictRuleSetID = state.RuleSetStrict
	}
	return &Adaptive{run: run, cfg: cfg, firstReactionMin: -1}
}

// Begin takes over the run.
func (p *Adaptive) Begin() {
	p.startMinute = p.run.Minutes()
	p.run.SetPhase(string(KindAdaptive))
	p.run.Journal().Append(journal.Entry{
		Minute:  p.startMinute,
		Phase:   string(KindAdaptive),
		Type:    "phase.entered",
		Payload: map[string]any{"swapMinute": p.cfg.SwapMinute},
	})
}

// Tick advances the shared clock, then fires the one-time rule-set swap once
// the simulated clock has crossed the configured minute.
func (p *Adaptive) Tick(deltaMs float64) sim.TickResult {
	result := p.run.Advance(deltaMs)
	if !p.swapped && p.run.Minutes() >= p.cfg.SwapMinute {
		p.swap()
	}
	return result
}

// Schedule forwards to the shared scheduler; engagement continues during the
// adaptive chapter under whatever pacing the operator has set.
func (p *Adaptive) Schedule(accountID, tweetID string, action state.ActionType, targetMinute int, tone state.ReplyTone) bool {
	return p.run.Schedule(accountID, tweetID, action, targetMinute, tone)
}

// ScheduleBatch forwards a timed batch to the shared scheduler.
func (p *Adaptive) ScheduleBatch(accountIDs []string, tweetID string, action state.ActionType, startMinute int, pattern state.TimingPattern, tone state.ReplyTone) int {
	return p.run.ScheduleBatch(accountIDs, tweetID, action, startMinute, pattern, tone)
}

// swap captures pre-change baseline metrics, then activates the strict rule
// set. The swap is silent: no notice is produced, only degraded outcomes.
func (p *Adaptive) swap() {
	from := p.run.ActiveRuleSet().ID
	p.baseline = p.captureBaseline()
	p.run.SwitchRuleSet(p.cfg.StrictRuleSetID)
	p.swapped = true
	p.swapMinute = p.run.Minutes()

	loggingadaptive.RuleSetSwapped(context.Background(), p.run.Publisher(), p.swapMinute,
		loggingadaptive.RuleSetSwappedPayload{
			From:              from,
			To:                p.cfg.StrictRuleSetID,
			MeanDetectionCost: p.baseline.MeanDetectionCost,
			BanRate:           p.baseline.BanRate,
			MeanReach:         p.baseline.MeanReach,
		})
}

// captureBaseline summarizes run outcomes at the instant before the swap so
// post-change performance has something to compare against.
func (p *Adaptive) captureBaseline() *state.BaselineMetrics {
	executed := p.run.ExecutedLog()
	baseline := &state.BaselineMetrics{CapturedMinute: p.run.Minutes()}
	if len(executed) > 0 {
		var detection, reach float64
		for _, action := range executed {
			detection += action.DetectionDelta
			reach += action.ReachDelta
		}
		baseline.MeanDetectionCost = detection / float64(len(executed))
		baseline.MeanReach = reach / float64(len(executed))
	}
	accounts := p.run.Accounts()
	if len(accounts) > 0 {
		banned := 0
		for _, account := range accounts {
			if account.Status == state.StatusBanned {
				banned++
			}
		}
		baseline.BanRate = float64(banned) / float64(len(accounts))
	}
	return baseline
}

// Swapped reports whether the rule set has hardened.
func (p *Adaptive) Swapped() bool { return p.swapped }

// Baseline returns the metrics captured at the swap, or nil before it.
func (p *Adaptive) Baseline() *state.BaselineMetrics { return p.baseline }

// Remaining reports how many countermeasures the operator can still apply.
func (p *Adaptive) Remaining() int { return p.cfg.MaxCountermeasures - len(p.applied) }

// Applied returns the countermeasures applied so far, in order.
func (p *Adaptive) Applied() []state.Countermeasure {
	return append([]state.Countermeasure(nil), p.applied...)
}

// ApplyCountermeasure adjusts the run's pacing policy through the typed
// reducer. At most MaxCountermeasures are honored; the rest are rejected.
func (p *Adaptive) ApplyCountermeasure(c state.Countermeasure) bool {
	if len(p.applied) >= p.cfg.MaxCountermeasures {
		loggingadaptive.CountermeasureRejected(context.Background(), p.run.Publisher(), p.run.Minutes(),
			loggingadaptive.CountermeasurePayload{Kind: string(c.Kind), Remaining: 0, PostSwap: p.swapped})
		return false
	}
	p.run.SetPacing(p.run.Pacing().Apply(c))
	p.applied = append(p.applied, c)
	if p.swapped && p.firstReactionMin < 0 {
		p.firstReactionMin = p.run.Minutes()
	}

	p.run.Journal().Append(journal.Entry{
		Minute:  p.run.Minutes(),
		Phase:   string(KindAdaptive),
		Type:    "countermeasure.applied",
		Payload: c,
	})
	loggingadaptive.Countermeasure(context.Background(), p.run.Publisher(), p.run.Minutes(),
		loggingadaptive.CountermeasurePayload{
			Kind:      string(c.Kind),
			Remaining: p.Remaining(),
			PostSwap:  p.swapped,
		})
	return true
}

// ReactionLatency is the simulated minutes between the swap and the first
// countermeasure applied after it, or -1 when no post-swap reaction happened.
func (p *Adaptive) ReactionLatency() float64 {
	if !p.swapped || p.firstReactionMin < 0 {
		return -1
	}
	return p.firstReactionMin - p.swapMinute
}

// Analytics aggregates ban outcomes and detection spend for the post-run
// debrief views.
func (p *Adaptive) Analytics() state.AnalyticsSnapshot {
	snapshot := state.AnalyticsSnapshot{
		BansByAgeBucket:       make(map[string]int),
		BansByRiskClass:       make(map[state.RiskClass]int),
		MeanDetectionByAction: make(map[state.ActionType]float64),
	}
	for _, account := range p.run.Accounts() {
		if account.Status != state.StatusBanned {
			continue
		}
		snapshot.BansByAgeBucket[ageBucket(account.AgeDays)]++
		snapshot.BansByRiskClass[account.RiskClass]++
	}
	totals := make(map[state.ActionType]float64)
	counts := make(map[state.ActionType]int)
	for _, action := range p.run.ExecutedLog() {
		totals[action.Type] += action.DetectionDelta
		counts[action.Type]++
	}
	for name, total := range totals {
		snapshot.MeanDetectionByAction[name] = total / float64(counts[name])
	}
	return snapshot
}

func ageBucket(days int) string {
	switch {
	case days < 90:
		return "0-89d"
	case days < 365:
		return "90-364d"
	default:
		return "365d+"
	}
}
