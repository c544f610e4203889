// Package intake validates raw client messages and turns them into typed
// commands the hub can apply. Validation is purely structural; phase and
// rate rules are enforced by the hub and engine.
package intake

import (
	"fleetsim/server/internal/net/proto"
	"fleetsim/server/internal/state"
)

// Reject reasons reported back over the wire.
const (
	RejectInvalidAction = "invalid_action"
	RejectUnknownRun    = "unknown_run"
	RejectPhaseLocked   = "phase_locked"
	RejectRunComplete   = "run_complete"
	RejectRateLimited   = "rate_limited"
	RejectBudget        = "budget_exhausted"
)

// Kind discriminates staged commands.
type Kind string

const (
	KindSchedule       Kind = "schedule"
	KindBatch          Kind = "batch"
	KindTriage         Kind = "triage"
	KindCountermeasure Kind = "countermeasure"
	KindAdvancePhase   Kind = "advancePhase"
)

// Command is a validated client request.
type Command struct {
	Kind Kind

	AccountID    string
	TweetID      string
	Action       state.ActionType
	Tone         state.ReplyTone
	TargetMinute int

	BatchAccounts []string
	BatchPattern  state.TimingPattern

	TriageOp  string
	Field     string
	Persona   state.PersonaTag
	Risk      state.RiskClass
	Outcome   state.TriageOutcome
	FlagIndex int

	Countermeasure state.Countermeasure
}

// StageClientCommand validates a wire message. The returned reason is one of
// the Reject constants when ok is false.
func StageClientCommand(msg proto.ClientMessage) (Command, bool, string) {
	var zero Command
	switch msg.Type {
	case proto.TypeSchedule:
		actionType, ok := parseActionType(msg.Action)
		if !ok || msg.AccountID == "" || msg.TweetID == "" {
			return zero, false, RejectInvalidAction
		}
		tone, ok := parseTone(msg.Tone)
		if !ok {
			return zero, false, RejectInvalidAction
		}
		return Command{
			Kind:         KindSchedule,
			AccountID:    msg.AccountID,
			TweetID:      msg.TweetID,
			Action:       actionType,
			Tone:         tone,
			TargetMinute: msg.Minute,
		}, true, ""

	case proto.TypeBatch:
		actionType, ok := parseActionType(msg.Action)
		if !ok || len(msg.AccountIDs) == 0 || msg.TweetID == "" {
			return zero, false, RejectInvalidAction
		}
		pattern, ok := parsePattern(msg.Pattern)
		if !ok {
			return zero, false, RejectInvalidAction
		}
		tone, ok := parseTone(msg.Tone)
		if !ok {
			return zero, false, RejectInvalidAction
		}
		return Command{
			Kind:          KindBatch,
			BatchAccounts: msg.AccountIDs,
			TweetID:       msg.TweetID,
			Action:        actionType,
			Tone:          tone,
			BatchPattern:  pattern,
			TargetMinute:  msg.Minute,
		}, true, ""

	case proto.TypeTriage:
		return stageTriage(msg)

	case proto.TypeCountermeasure:
		if msg.Countermeasure == nil {
			return zero, false, RejectInvalidAction
		}
		countermeasure, ok := parseCountermeasure(*msg.Countermeasure)
		if !ok {
			return zero, false, RejectInvalidAction
		}
		return Command{Kind: KindCountermeasure, Countermeasure: countermeasure}, true, ""

	case proto.TypeAdvancePhase:
		return Command{Kind: KindAdvancePhase}, true, ""
	}
	return zero, false, RejectInvalidAction
}

func stageTriage(msg proto.ClientMessage) (Command, bool, string) {
	var zero Command
	cmd := Command{Kind: KindTriage, TriageOp: msg.Op}
	switch msg.Op {
	case proto.TriageOpOpen, proto.TriageOpSkip:
	case proto.TriageOpEdit:
		if msg.Field == "" {
			return zero, false, RejectInvalidAction
		}
		cmd.Field = msg.Field
	case proto.TriageOpPersona:
		tag := state.PersonaTag(msg.Persona)
		switch tag {
		case state.PersonaNormie, state.PersonaSpecialist, state.PersonaBuilder,
			state.PersonaLurker, state.PersonaMemer:
		default:
			return zero, false, RejectInvalidAction
		}
		cmd.Persona = tag
	case proto.TriageOpRisk:
		class := state.RiskClass(msg.Risk)
		switch class {
		case state.RiskBackground, state.RiskMid, state.RiskFrontline:
		default:
			return zero, false, RejectInvalidAction
		}
		cmd.Risk = class
	case proto.TriageOpReveal:
		if msg.FlagIndex == nil || *msg.FlagIndex < 0 {
			return zero, false, RejectInvalidAction
		}
		cmd.FlagIndex = *msg.FlagIndex
	case proto.TriageOpDecide:
		outcome := state.TriageOutcome(msg.Outcome)
		switch outcome {
		case state.TriageKeep, state.TriagePark, state.TriageDiscard:
		default:
			return zero, false, RejectInvalidAction
		}
		cmd.Outcome = outcome
	default:
		return zero, false, RejectInvalidAction
	}
	return cmd, true, ""
}

func parseActionType(raw string) (state.ActionType, bool) {
	actionType := state.ActionType(raw)
	for _, known := range state.ActionTypes() {
		if actionType == known {
			return actionType, true
		}
	}
	return "", false
}

func parseTone(raw string) (state.ReplyTone, bool) {
	if raw == "" {
		return "", true
	}
	tone := state.ReplyTone(raw)
	switch tone {
	case state.ToneNeutral, state.ToneSupportive, state.ToneSkeptical,
		state.ToneTechnical, state.ToneInsider, state.ToneShill:
		return tone, true
	}
	return "", false
}

func parsePattern(raw string) (state.TimingPattern, bool) {
	pattern := state.TimingPattern(raw)
	switch pattern {
	case state.PatternBurst, state.PatternStaggered, state.PatternDrip:
		return pattern, true
	}
	return "", false
}

func parseCountermeasure(msg proto.CountermeasureMessage) (state.Countermeasure, bool) {
	kind := state.CountermeasureKind(msg.Kind)
	countermeasure := state.Countermeasure{Kind: kind}
	switch kind {
	case state.CounterLowerCap:
		if msg.Cap <= 0 {
			return countermeasure, false
		}
		countermeasure.Cap = msg.Cap
	case state.CounterWidenGap:
		if msg.GapMinutes <= 0 {
			return countermeasure, false
		}
		countermeasure.GapMinutes = msg.GapMinutes
	case state.CounterShiftMix:
		if len(msg.Mix) == 0 {
			return countermeasure, false
		}
		mix := make(map[state.ActionType]float64, len(msg.Mix))
		for raw, weight := range msg.Mix {
			actionType, ok := parseActionType(raw)
			if !ok || weight < 0 {
				return countermeasure, false
			}
			mix[actionType] = weight
		}
		countermeasure.Mix = mix
	case state.CounterInjectBrowsing:
	default:
		return countermeasure, false
	}
	return countermeasure, true
}
