package sim

import (
	"context"

	"fleetsim/server/internal/journal"
	"fleetsim/server/internal/state"
	"fleetsim/server/logging"
	loggingengagement "fleetsim/server/logging/engagement"
)

// Schedule requests that an account perform an action on a tweet at a future
// simulated minute. It returns false without mutating anything when the
// (account, tweet, type) triple was already queued or executed, or when the
// account would exceed the rolling-hour pacing cap, or when either reference
// is unknown.
func (r *Run) Schedule(accountID, tweetID string, action state.ActionType, targetMinute int, tone state.ReplyTone) bool {
	if _, ok := r.accountIndex[accountID]; !ok {
		r.notice("schedule ignored: unknown account %q", accountID)
		return false
	}
	if _, ok := r.tweetIndex[tweetID]; !ok {
		r.notice("schedule ignored: unknown tweet %q", tweetID)
		return false
	}
	if r.hasTriple(accountID, tweetID, action) {
		r.rejectSchedule(accountID, tweetID, action, "duplicate")
		return false
	}
	if r.actionsInWindow(accountID, targetMinute) >= r.pacing.HourlyCap {
		r.rejectSchedule(accountID, tweetID, action, "hourly_cap")
		return false
	}
	if gap := r.pacing.MinGapMinutes; gap > 0 && r.violatesGap(accountID, targetMinute, gap) {
		r.rejectSchedule(accountID, tweetID, action, "min_gap")
		return false
	}

	r.nextActionID++
	pending := state.ScheduledAction{
		ID:           r.nextActionID,
		AccountID:    accountID,
		TweetID:      tweetID,
		Type:         action,
		Tone:         tone,
		TargetMinute: targetMinute,
	}
	r.queue = append(r.queue, pending)

	r.journal.Append(journal.Entry{
		Minute:  r.minutes,
		Phase:   r.phase,
		Type:    "action.scheduled",
		Payload: pending,
	})
	loggingengagement.Scheduled(context.Background(), r.publisher, r.minutes,
		logging.EntityRef{ID: accountID, Kind: logging.EntityKindAccount},
		loggingengagement.ScheduledPayload{
			TweetID:      tweetID,
			Action:       string(action),
			Tone:         string(tone),
			TargetMinute: targetMinute,
		})
	return true
}

// ScheduleBatch schedules many accounts against one tweet, spreading their
// target minutes according to the timing pattern. Accounts rejected for
// duplicates or pacing are skipped silently; the return value is the number
// actually accepted. When browsing injection is active, a no-op browse action
// is interleaved for every third account.
func (r *Run) ScheduleBatch(accountIDs []string, tweetID string, action state.ActionType, startMinute int, pattern state.TimingPattern, tone state.ReplyTone) int {
	accepted := 0
	for i, accountID := range accountIDs {
		minute := startMinute + pattern.Offset(i)
		if r.Schedule(accountID, tweetID, action, minute, tone) {
			accepted++
		}
		if r.pacing.InjectBrowsing && i%3 == 2 {
			r.Schedule(accountID, tweetID, state.ActionBrowse, minute+1, "")
		}
	}
	return accepted
}

// hasTriple reports whether the triple already exists in the executed log or
// the pending queue. Each triple may run at most once per run.
func (r *Run) hasTriple(accountID, tweetID string, action state.ActionType) bool {
	for _, done := range r.executed {
		if done.AccountID == accountID && done.TweetID == tweetID && done.Type == action {
			return true
		}
	}
	for _, pending := range r.queue {
		if pending.AccountID == accountID && pending.TweetID == tweetID && pending.Type == action {
			return true
		}
	}
	return false
}

// actionsInWindow counts the account's actions, queued and already executed,
// inside the trailing 60-minute window ending at targetMinute. Executed
// actions keep counting so waves of scheduling cannot sidestep the cap.
func (r *Run) actionsInWindow(accountID string, targetMinute int) int {
	count := 0
	for _, pending := range r.queue {
		if pending.AccountID != accountID {
			continue
		}
		if pending.TargetMinute > targetMinute-60 && pending.TargetMinute <= targetMinute {
			count++
		}
	}
	for _, done := range r.executed {
		if done.AccountID != accountID {
			continue
		}
		if done.Minute > targetMinute-60 && done.Minute <= targetMinute {
			count++
		}
	}
	return count
}

func (r *Run) violatesGap(accountID string, targetMinute, gap int) bool {
	for _, pending := range r.queue {
		if pending.AccountID != accountID {
			continue
		}
		delta := pending.TargetMinute - targetMinute
		if delta < 0 {
			delta = -delta
		}
		if delta < gap {
			return true
		}
	}
	return false
}

func (r *Run) rejectSchedule(accountID, tweetID string, action state.ActionType, reason string) {
	loggingengagement.ScheduleRejected(context.Background(), r.publisher, r.minutes,
		logging.EntityRef{ID: accountID, Kind: logging.EntityKindAccount},
		loggingengagement.RejectedPayload{
			TweetID: tweetID,
			Action:  string(action),
			Reason:  reason,
		})
}
