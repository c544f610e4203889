package sim

import (
	"context"
	"fmt"
	"math"

	"fleetsim/server/internal/journal"
	"fleetsim/server/internal/state"
	"fleetsim/server/logging"
	loggingengagement "fleetsim/server/logging/engagement"
	logginglifecycle "fleetsim/server/logging/lifecycle"
)

// TickResult reports what one Advance call did.
type TickResult struct {
	Notices   []string
	Processed int
}

// Advance converts a real-time delta into simulated minutes and processes
// every whole minute boundary crossed, in ascending order: due actions run in
// queue order up to the per-minute cap, then tweets age and accrue organic
// reach, the meter decays linearly, and finally the threshold bands are
// evaluated once per crossed boundary. A negative delta is host misuse and
// panics.
func (r *Run) Advance(deltaMs float64) TickResult {
	if deltaMs < 0 {
		panic(fmt.Sprintf("sim: negative advance delta %v", deltaMs))
	}
	rs := r.ActiveRuleSet()

	before := r.minutes
	elapsed := deltaMs / r.cfg.MillisPerMinute
	r.minutes = before + elapsed

	first := int(math.Floor(before)) + 1
	last := int(math.Floor(r.minutes))

	result := TickResult{}
	for m := first; m <= last; m++ {
		result.Processed += r.processMinute(m, rs, &result.Notices)
	}

	r.growTweets(elapsed)
	r.meter = clampMeter(r.meter - r.cfg.DecayPerMinute*elapsed)

	for m := first; m <= last; m++ {
		r.applyThresholdPenalty(m, &result.Notices)
	}
	return result
}

// processMinute dequeues everything due at the boundary and executes it.
func (r *Run) processMinute(minute int, rs state.RuleSet, notices *[]string) int {
	due := r.dequeueDue(minute)
	if len(due) == 0 {
		return 0
	}

	if len(due) > r.cfg.PerMinuteCap {
		dropped := due[r.cfg.PerMinuteCap:]
		due = due[:r.cfg.PerMinuteCap]
		*notices = append(*notices, r.notice("minute %d oversubscribed: dropped %d queued actions", minute, len(dropped)))
		for _, pending := range dropped {
			r.logDropped(pending, "minute_cap")
		}
	}

	executed := 0
	for _, pending := range due {
		account, ok := r.accountIndex[pending.AccountID]
		if !ok {
			*notices = append(*notices, r.notice("dropped action %d: unknown account %q", pending.ID, pending.AccountID))
			continue
		}
		if !account.Active() {
			*notices = append(*notices, r.notice("dropped action %d: account %s is %s", pending.ID, account.Handle, account.Status))
			r.logDropped(pending, "account_inactive")
			continue
		}
		tweet, ok := r.tweetIndex[pending.TweetID]
		if !ok {
			*notices = append(*notices, r.notice("dropped action %d: unknown tweet %q", pending.ID, pending.TweetID))
			continue
		}

		detection := DetectionDelta(r, pending, minute, rs)
		reach, depth := engagementDeltas(account, tweet, pending.Type)

		r.meter = clampMeter(r.meter + detection)
		tweet.Metrics.Impressions += reach
		tweet.Metrics.Depth += depth
		tweet.Metrics.BumpCounter(pending.Type)

		done := state.ExecutedAction{
			ID:             pending.ID,
			Minute:         minute,
			Phase:          r.phase,
			AccountID:      pending.AccountID,
			TweetID:        pending.TweetID,
			Type:           pending.Type,
			Tone:           pending.Tone,
			DetectionDelta: detection,
			ReachDelta:     reach,
			DepthDelta:     depth,
		}
		r.executed = append(r.executed, done)
		executed++

		r.journal.Append(journal.Entry{
			Minute:  float64(minute),
			Phase:   r.phase,
			Type:    "action.executed",
			Payload: done,
		})
		loggingengagement.Executed(context.Background(), r.publisher, float64(minute),
			logging.EntityRef{ID: account.ID, Kind: logging.EntityKindAccount},
			loggingengagement.ExecutedPayload{
				TweetID:        tweet.ID,
				Action:         string(pending.Type),
				Tone:           string(pending.Tone),
				DetectionDelta: detection,
				ReachDelta:     reach,
				DepthDelta:     depth,
			})
	}
	return executed
}

// dequeueDue removes and returns every queued action targeted at or before
// the boundary, preserving queue order.
func (r *Run) dequeueDue(minute int) []state.ScheduledAction {
	due := make([]state.ScheduledAction, 0)
	remaining := r.queue[:0]
	for _, pending := range r.queue {
		if pending.TargetMinute <= minute {
			due = append(due, pending)
		} else {
			remaining = append(remaining, pending)
		}
	}
	r.queue = remaining
	return due
}

// growTweets ages every tweet and applies diminishing organic impression
// growth. Runs after all minute-boundary executions for the call.
func (r *Run) growTweets(elapsed float64) {
	if elapsed <= 0 {
		return
	}
	for _, tweet := range r.tweets {
		tweet.Metrics.AgeMinutes += elapsed
		organic := tweet.BaseReach * r.cfg.OrganicGrowthRate * elapsed /
			(1 + tweet.Metrics.AgeMinutes/r.cfg.OrganicHalfLife)
		tweet.Metrics.Impressions += organic
	}
}

// applyThresholdPenalty evaluates the ordered meter bands for one boundary.
// Only the highest qualifying band fires: critical bans one random active
// frontline account, elevated flags one random active account, warning emits
// an advisory only.
func (r *Run) applyThresholdPenalty(minute int, notices *[]string) {
	switch {
	case r.meter >= r.cfg.CriticalThreshold:
		candidates := r.activeAccounts(state.RiskFrontline)
		if len(candidates) == 0 {
			*notices = append(*notices, r.notice("minute %d: detection critical (%.1f) with no frontline accounts left", minute, r.meter))
			return
		}
		target := candidates[r.rng.Intn(len(candidates))]
		target.Status = state.StatusBanned
		*notices = append(*notices, r.notice("minute %d: %s was banned by the platform", minute, target.Handle))
		r.journal.Append(journal.Entry{
			Minute:  float64(minute),
			Phase:   r.phase,
			Type:    "penalty.ban",
			Payload: map[string]any{"accountId": target.ID, "meter": r.meter},
		})
		logginglifecycle.AccountBanned(context.Background(), r.publisher, float64(minute),
			logging.EntityRef{ID: target.ID, Kind: logging.EntityKindAccount},
			logginglifecycle.PenaltyPayload{Meter: r.meter, RiskClass: string(target.RiskClass)})
	case r.meter >= r.cfg.ElevatedThreshold:
		candidates := r.activeAccounts("")
		if len(candidates) == 0 {
			return
		}
		target := candidates[r.rng.Intn(len(candidates))]
		target.Status = state.StatusFlagged
		*notices = append(*notices, r.notice("minute %d: %s was flagged for review", minute, target.Handle))
		r.journal.Append(journal.Entry{
			Minute:  float64(minute),
			Phase:   r.phase,
			Type:    "penalty.flag",
			Payload: map[string]any{"accountId": target.ID, "meter": r.meter},
		})
		logginglifecycle.AccountFlagged(context.Background(), r.publisher, float64(minute),
			logging.EntityRef{ID: target.ID, Kind: logging.EntityKindAccount},
			logginglifecycle.PenaltyPayload{Meter: r.meter, RiskClass: string(target.RiskClass)})
	case r.meter >= r.cfg.WarnThreshold:
		*notices = append(*notices, r.notice("minute %d: detection risk elevated (%.1f)", minute, r.meter))
		logginglifecycle.MeterAdvisory(context.Background(), r.publisher, float64(minute), r.meter)
	}
}

// activeAccounts lists active accounts, optionally filtered to one risk
// class. Order follows the population list so penalty selection stays
// deterministic for a fixed seed.
func (r *Run) activeAccounts(class state.RiskClass) []*state.Account {
	matched := make([]*state.Account, 0)
	for _, account := range r.accounts {
		if !account.Active() {
			continue
		}
		if class != "" && account.RiskClass != class {
			continue
		}
		matched = append(matched, account)
	}
	return matched
}

func (r *Run) logDropped(pending state.ScheduledAction, reason string) {
	loggingengagement.Dropped(context.Background(), r.publisher, r.minutes,
		logging.EntityRef{ID: pending.AccountID, Kind: logging.EntityKindAccount},
		loggingengagement.DroppedPayload{
			TweetID: pending.TweetID,
			Action:  string(pending.Type),
			Reason:  reason,
		})
}
