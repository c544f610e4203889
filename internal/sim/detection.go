package sim

import "fleetsim/server/internal/state"

// Base detection cost per action type, escalating with effort: browsing is
// near-free, likes are cheap, quotes are the loudest.
func baseDetectionCost(action state.ActionType) float64 {
	switch action {
	case state.ActionBrowse:
		return 0.1
	case state.ActionLike:
		return 1.0
	case state.ActionRetweet:
		return 2.0
	case state.ActionReply:
		return 3.5
	case state.ActionQuote:
		return 4.5
	default:
		return 1.0
	}
}

// windowPenalty maps a trailing-window count onto the shared breakpoint
// shape: no penalty up to 3, then 0.5, 1.5, and 3.0 past 3, 5, and 10.
func windowPenalty(count int) float64 {
	switch {
	case count > 10:
		return 3.0
	case count > 5:
		return 1.5
	case count > 3:
		return 0.5
	default:
		return 0
	}
}

const (
	synchronyWindowMinutes = 5
	overuseWindowMinutes   = 30
	personaMismatchPenalty = 2.0
)

// DetectionDelta computes the detection-risk cost of executing the pending
// action at the given minute under the supplied rule set. It is pure: the
// same state, action, and weights always produce the same value, and it
// never draws randomness.
func DetectionDelta(r *Run, pending state.ScheduledAction, minute int, rs state.RuleSet) float64 {
	account, ok := r.accountIndex[pending.AccountID]
	if !ok {
		return 0
	}

	total := baseDetectionCost(pending.Type)
	total += synchronyFactor(r, pending.TweetID, minute) * rs.SynchronyWeight
	total += repetitionFactor(r, account.ID, pending.TweetID) * rs.RepetitionWeight
	total += personaFactor(account, pending.Tone) * rs.PersonaWeight
	if account.RiskClass == state.RiskFrontline {
		total += overuseFactor(r, minute) * rs.OveruseWeight
	}

	total *= 1 + account.HiddenBanRisk*0.5
	if total < 0 {
		return 0
	}
	return total
}

// synchronyFactor penalizes clusters of executed actions on the same tweet
// within the trailing five minutes.
func synchronyFactor(r *Run, tweetID string, minute int) float64 {
	recent := 0
	for _, done := range r.executed {
		if done.TweetID == tweetID && done.Minute > minute-synchronyWindowMinutes {
			recent++
		}
	}
	return windowPenalty(recent)
}

// repetitionFactor penalizes an account repeatedly working content from the
// same author category across the whole run.
func repetitionFactor(r *Run, accountID, tweetID string) float64 {
	tweet, ok := r.tweetIndex[tweetID]
	if !ok {
		return 0
	}
	repeats := 0
	for _, done := range r.executed {
		if done.AccountID != accountID {
			continue
		}
		if prior, ok := r.tweetIndex[done.TweetID]; ok && prior.Category == tweet.Category {
			repeats++
		}
	}
	return windowPenalty(repeats)
}

// personaFactor adds a flat penalty for each way the reply tone clashes with
// the account's persona dressing. Actions without a tone never clash.
func personaFactor(account *state.Account, tone state.ReplyTone) float64 {
	penalty := 0.0
	if account.HasPersona(state.PersonaNormie) && tone == state.ToneTechnical {
		penalty += personaMismatchPenalty
	}
	if !account.HasPersona(state.PersonaSpecialist) && tone == state.ToneInsider {
		penalty += personaMismatchPenalty
	}
	if account.HasPersona(state.PersonaBuilder) && tone == state.ToneShill {
		penalty += personaMismatchPenalty
	}
	return penalty
}

// overuseFactor penalizes leaning on frontline accounts: it counts frontline
// executions in the trailing thirty minutes.
func overuseFactor(r *Run, minute int) float64 {
	recent := 0
	for _, done := range r.executed {
		if done.Minute <= minute-overuseWindowMinutes {
			continue
		}
		if account, ok := r.accountIndex[done.AccountID]; ok && account.RiskClass == state.RiskFrontline {
			recent++
		}
	}
	return windowPenalty(recent)
}

// engagementDeltas computes the reach and depth a single executed action adds
// to its tweet, scaled by the account's risk-class multiplier.
func engagementDeltas(account *state.Account, tweet *state.Tweet, action state.ActionType) (reach, depth float64) {
	var reachFactor, depthFactor float64
	switch action {
	case state.ActionLike:
		reachFactor, depthFactor = 0.02, 0.01
	case state.ActionRetweet:
		reachFactor, depthFactor = 0.12, 0.02
	case state.ActionReply:
		reachFactor, depthFactor = 0.05, 0.10
	case state.ActionQuote:
		reachFactor, depthFactor = 0.09, 0.07
	default:
		return 0, 0
	}
	mult := account.ReachMultiplier()
	return tweet.BaseReach * reachFactor * mult, tweet.BaseDepth * depthFactor * mult
}
