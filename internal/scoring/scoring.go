// Package scoring reduces a completed run into five bounded competency
// scores and per-chapter display summaries. It consumes the final snapshot
// read-only and runs once, at run end.
package scoring

import (
	"math"

	"fleetsim/server/internal/state"
)

const scoreBaseline = 50.0

// burstLimit is the per-minute action count above which pattern realism
// treats a minute as a burst.
const burstLimit = 5

// Compute derives all five scores from a snapshot. Every score starts at a
// fixed baseline and moves by additive terms, then clamps to [0,100]. An
// empty executed log yields the baselines.
func Compute(snap *state.RunSnapshot) state.Scores {
	return state.Scores{
		PatternRealism:            patternRealism(snap),
		RiskDiscipline:            riskDiscipline(snap),
		StrategicSensitivity:      strategicSensitivity(snap),
		OperationalPrioritization: operationalPrioritization(snap),
		AutonomySignals:           autonomySignals(snap),
	}
}

// patternRealism rewards even, low-cost account usage and penalizes skew
// and minute-level bursts.
func patternRealism(snap *state.RunSnapshot) float64 {
	score := scoreBaseline
	executed := snap.Executed
	if len(executed) == 0 {
		return clampScore(score)
	}

	usage := make(map[string]int)
	perMinute := make(map[int]int)
	var detectionTotal float64
	for _, action := range executed {
		usage[action.AccountID]++
		perMinute[int(action.Minute)]++
		detectionTotal += action.DetectionDelta
	}

	mean := float64(len(executed)) / float64(len(usage))
	maxUse := 0
	var variance float64
	for _, n := range usage {
		if n > maxUse {
			maxUse = n
		}
		d := float64(n) - mean
		variance += d * d
	}
	variance /= float64(len(usage))

	// Skew: one account carrying far more than its share reads as a bot.
	if ratio := float64(maxUse) / mean; ratio > 2 {
		score -= math.Min(20, (ratio-2)*8)
	}
	// Low spread across the fleet reads as organic.
	if cv := math.Sqrt(variance) / mean; cv < 0.5 {
		score += 10
	}

	bursts := 0
	for _, n := range perMinute {
		if n > burstLimit {
			bursts++
		}
	}
	score -= math.Min(20, float64(bursts)*5)

	switch meanCost := detectionTotal / float64(len(executed)); {
	case meanCost < 1.5:
		score += 15
	case meanCost > 3:
		score -= 10
	}
	return clampScore(score)
}

// riskDiscipline weighs frontline losses, triage diligence, and the hidden
// ban risk left running in the active fleet.
func riskDiscipline(snap *state.RunSnapshot) float64 {
	score := scoreBaseline

	frontline, frontlineBanned := 0, 0
	activeRisk, active := 0.0, 0
	for _, account := range snap.Accounts {
		if account.RiskClass == state.RiskFrontline {
			frontline++
			if account.Status == state.StatusBanned {
				frontlineBanned++
			}
		}
		if account.Status == state.StatusActive || account.Status == state.StatusFlagged {
			activeRisk += account.HiddenBanRisk
			active++
		}
	}
	if frontline > 0 {
		frac := float64(frontlineBanned) / float64(frontline)
		score -= 40 * frac
		if frontlineBanned == 0 {
			score += 15
		}
	}
	if active > 0 {
		score -= 30 * (activeRisk / float64(active))
	}

	// Triage diligence: flags actually uncovered vs flags that existed on
	// the accounts that were decided.
	flagged, revealed := 0, 0
	downgrades := 0
	for _, decision := range snap.TriageDecisions {
		revealed += len(decision.RevealedFlags)
		if account := findAccount(snap.Accounts, decision.AccountID); account != nil {
			flagged += len(account.HistoryFlags)
		}
		for _, edit := range decision.Edits {
			if edit == "risk:"+string(state.RiskBackground) {
				downgrades++
			}
		}
	}
	if flagged > 0 {
		score += 15 * float64(revealed) / float64(flagged)
	}
	score += math.Min(12, float64(downgrades)*4)
	score += 5 * DiversityIndex(snap.TriageDecisions, snap.Accounts)

	return clampScore(score)
}

// strategicSensitivity compares detection spend across the run's halves and
// rewards a varied action mix.
func strategicSensitivity(snap *state.RunSnapshot) float64 {
	score := scoreBaseline
	executed := snap.Executed
	if len(executed) > 0 {
		half := snap.Minutes / 2
		var firstTotal, secondTotal float64
		firstN, secondN := 0, 0
		for _, action := range executed {
			if float64(action.Minute) < half {
				firstTotal += action.DetectionDelta
				firstN++
			} else {
				secondTotal += action.DetectionDelta
				secondN++
			}
		}
		if firstN > 0 && secondN > 0 {
			first := firstTotal / float64(firstN)
			second := secondTotal / float64(secondN)
			if second < first {
				score += math.Min(20, (first-second)*10)
			} else {
				score -= math.Min(20, (second-first)*10)
			}
		}
	}

	types := make(map[state.ActionType]bool)
	for _, action := range executed {
		types[action.Type] = true
	}
	score += 15 * float64(len(types)) / float64(len(state.ActionTypes()))
	return clampScore(score)
}

// operationalPrioritization rewards concentrating engagement on the
// highest-value content and fast triage handling.
func operationalPrioritization(snap *state.RunSnapshot) float64 {
	score := scoreBaseline

	if len(snap.Executed) > 0 {
		tweets := make(map[string]*state.Tweet, len(snap.Tweets))
		for i := range snap.Tweets {
			tweets[snap.Tweets[i].ID] = &snap.Tweets[i]
		}
		priority := 0
		for _, action := range snap.Executed {
			tweet, ok := tweets[action.TweetID]
			if !ok {
				continue
			}
			if tweet.Category == state.AuthorProtocol || tweet.Objective == state.ObjectiveAmplify {
				priority++
			}
		}
		share := float64(priority) / float64(len(snap.Executed))
		score += 25 * (share - 0.5)
	}

	if len(snap.TriageDecisions) > 0 {
		var spent float64
		for _, decision := range snap.TriageDecisions {
			spent += decision.TimeSpent
		}
		switch mean := spent / float64(len(snap.TriageDecisions)); {
		case mean < 3:
			score += 10
		case mean > 6:
			score -= 10
		}
	}
	return clampScore(score)
}

// autonomySignals rewards decisive volume and variety; excessive caution
// and rote repetition both cost points.
func autonomySignals(snap *state.RunSnapshot) float64 {
	score := scoreBaseline

	volume := len(snap.Executed) + len(snap.TriageDecisions)
	score += math.Min(20, 0.5*float64(volume))
	if volume < 8 {
		score -= 15
	}

	tones := make(map[state.ReplyTone]bool)
	pairs := make(map[string]bool)
	for _, action := range snap.Executed {
		if action.Tone != "" {
			tones[action.Tone] = true
		}
		pairs[action.AccountID+"\x00"+action.TweetID] = true
	}
	score += 10 * float64(len(tones)) / 6
	if repeats := len(snap.Executed) - len(pairs); repeats > 0 {
		score -= math.Min(15, 2*float64(repeats))
	}
	return clampScore(score)
}

// DiversityIndex is the normalized Shannon entropy of risk classes among
// accounts kept during triage: 0 when nothing was kept or all kept accounts
// share a class, 1 when kept accounts split evenly across all three classes.
func DiversityIndex(decisions []state.TriageDecision, accounts []state.Account) float64 {
	counts := make(map[state.RiskClass]int)
	kept := 0
	for _, decision := range decisions {
		if decision.Outcome != state.TriageKeep {
			continue
		}
		if account := findAccount(accounts, decision.AccountID); account != nil {
			counts[account.RiskClass]++
			kept++
		}
	}
	if kept == 0 || len(counts) < 2 {
		return 0
	}
	var entropy float64
	for _, n := range counts {
		p := float64(n) / float64(kept)
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(3)
}

func findAccount(accounts []state.Account, id string) *state.Account {
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i]
		}
	}
	return nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
