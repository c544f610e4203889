package phase

import (
	"fleetsim/server/internal/journal"
	"fleetsim/server/internal/sim"
	"fleetsim/server/internal/state"
)

// Engagement is the open-ended first chapter: a thin wrapper that resets the
// engagement fields, runs the tick processor on the baseline rule set, and
// passes scheduling straight through.
type Engagement struct {
	run *sim.Run
}

// NewEngagement wraps a run.
func NewEngagement(run *sim.Run) *Engagement {
	return &Engagement{run: run}
}

// Begin resets the engagement-specific shared-state fields and takes over
// the run.
func (p *Engagement) Begin() {
	p.run.ResetEngagement()
	p.run.SetPhase(string(KindEngagement))
	p.run.Journal().Append(journal.Entry{
		Minute: p.run.Minutes(),
		Phase:  string(KindEngagement),
		Type:   "phase.entered",
	})
}

// Tick advances the simulation.
func (p *Engagement) Tick(deltaMs float64) sim.TickResult {
	return p.run.Advance(deltaMs)
}

// Schedule passes through to the action scheduler.
func (p *Engagement) Schedule(accountID, tweetID string, action state.ActionType, targetMinute int, tone state.ReplyTone) bool {
	return p.run.Schedule(accountID, tweetID, action, targetMinute, tone)
}

// ScheduleBatch passes through to the batch scheduler.
func (p *Engagement) ScheduleBatch(accountIDs []string, tweetID string, action state.ActionType, startMinute int, pattern state.TimingPattern, tone state.ReplyTone) int {
	return p.run.ScheduleBatch(accountIDs, tweetID, action, startMinute, pattern, tone)
}
