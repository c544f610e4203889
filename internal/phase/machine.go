// Package phase drives a run through its three chapters. Phases form an
// explicit state machine owned by the caller; no package-level state exists,
// so any number of runs can progress independently.
package phase

import (
	"fleetsim/server/internal/journal"
	"fleetsim/server/internal/sim"
)

// Kind names a phase of the assessment.
type Kind string

const (
	KindEngagement Kind = "engagement"
	KindTriage     Kind = "triage"
	KindAdaptive   Kind = "adaptive"
	KindComplete   Kind = "complete"
)

// Next is the pure transition function over phase kinds.
func Next(k Kind) Kind {
	switch k {
	case KindEngagement:
		return KindTriage
	case KindTriage:
		return KindAdaptive
	case KindAdaptive:
		return KindComplete
	default:
		return KindComplete
	}
}

// Machine sequences the chapter controllers over one run.
type Machine struct {
	run        *sim.Run
	current    Kind
	engagement *Engagement
	triage     *Triage
	adaptive   *Adaptive
}

// NewMachine wires the three controllers around a run and enters the
// engagement chapter.
func NewMachine(run *sim.Run, triageCfg TriageConfig, adaptiveCfg AdaptiveConfig) *Machine {
	m := &Machine{
		run:        run,
		current:    KindEngagement,
		engagement: NewEngagement(run),
		triage:     NewTriage(run, triageCfg),
		adaptive:   NewAdaptive(run, adaptiveCfg),
	}
	m.engagement.Begin()
	return m
}

// Current reports the active phase.
func (m *Machine) Current() Kind { return m.current }

// Run exposes the underlying shared state.
func (m *Machine) Run() *sim.Run { return m.run }

// Engagement returns the open-engagement controller.
func (m *Machine) Engagement() *Engagement { return m.engagement }

// Triage returns the triage controller.
func (m *Machine) Triage() *Triage { return m.triage }

// Adaptive returns the adaptive controller.
func (m *Machine) Adaptive() *Adaptive { return m.adaptive }

// Complete reports whether the run has finished all chapters.
func (m *Machine) Complete() bool { return m.current == KindComplete }

// AdvancePhase moves to the next chapter and lets its controller take over.
// Advancing past completion is a no-op.
func (m *Machine) AdvancePhase() Kind {
	if m.current == KindComplete {
		return m.current
	}
	m.current = Next(m.current)
	switch m.current {
	case KindTriage:
		m.triage.Begin()
	case KindAdaptive:
		m.adaptive.Begin()
	case KindComplete:
		m.run.SetPhase(string(KindComplete))
		m.run.Journal().Append(journal.Entry{
			Minute: m.run.Minutes(),
			Phase:  string(KindComplete),
			Type:   "phase.entered",
		})
	}
	return m.current
}

// Tick forwards a real-time delta to the active chapter. A completed run
// ignores time.
func (m *Machine) Tick(deltaMs float64) sim.TickResult {
	switch m.current {
	case KindEngagement:
		return m.engagement.Tick(deltaMs)
	case KindTriage:
		return m.triage.Tick(deltaMs)
	case KindAdaptive:
		return m.adaptive.Tick(deltaMs)
	default:
		return sim.TickResult{}
	}
}
