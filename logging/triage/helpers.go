package triage

import (
	"context"

	"fleetsim/server/logging"
)

const (
	// EventDecision is emitted when an account receives a final triage call.
	EventDecision logging.EventType = "triage.decision"
	// EventFlagRevealed is emitted when a history flag is uncovered.
	EventFlagRevealed logging.EventType = "triage.flag_revealed"
	// EventBudgetExhausted is emitted once when the time budget hits zero.
	EventBudgetExhausted logging.EventType = "triage.budget_exhausted"
)

// DecisionPayload captures a recorded triage outcome.
type DecisionPayload struct {
	Outcome       string  `json:"outcome"`
	TimeSpent     float64 `json:"timeSpent"`
	Edits         int     `json:"edits"`
	FlagsRevealed int     `json:"flagsRevealed"`
}

// Decision publishes a recorded triage outcome.
func Decision(ctx context.Context, pub logging.Publisher, minute float64, account logging.EntityRef, payload DecisionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDecision,
		Minute:   minute,
		Actor:    account,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryTriage,
		Payload:  payload,
	})
}

// FlagRevealedPayload captures which flag was uncovered and what it cost.
type FlagRevealedPayload struct {
	Index    int     `json:"index"`
	Severity string  `json:"severity"`
	Cost     float64 `json:"cost"`
}

// FlagRevealed publishes a history-flag reveal.
func FlagRevealed(ctx context.Context, pub logging.Publisher, minute float64, account logging.EntityRef, payload FlagRevealedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFlagRevealed,
		Minute:   minute,
		Actor:    account,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryTriage,
		Payload:  payload,
	})
}

// BudgetExhaustedPayload records how far the queue got.
type BudgetExhaustedPayload struct {
	Processed int `json:"processed"`
	Pending   int `json:"pending"`
}

// BudgetExhausted publishes the end-of-budget marker.
func BudgetExhausted(ctx context.Context, pub logging.Publisher, minute float64, payload BudgetExhaustedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBudgetExhausted,
		Minute:   minute,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryTriage,
		Payload:  payload,
	})
}
