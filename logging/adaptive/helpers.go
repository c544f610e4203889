package adaptive

import (
	"context"

	"fleetsim/server/logging"
)

const (
	// EventRuleSetSwapped is emitted once, when the detection regime changes.
	EventRuleSetSwapped logging.EventType = "adaptive.ruleset_swapped"
	// EventCountermeasure is emitted when a pacing adjustment is applied.
	EventCountermeasure logging.EventType = "adaptive.countermeasure"
	// EventCountermeasureRejected is emitted when the adjustment allowance is spent.
	EventCountermeasureRejected logging.EventType = "adaptive.countermeasure_rejected"
)

// RuleSetSwappedPayload captures the regime change and the pre-swap reference.
type RuleSetSwappedPayload struct {
	From              string  `json:"from"`
	To                string  `json:"to"`
	MeanDetectionCost float64 `json:"meanDetectionCost"`
	BanRate           float64 `json:"banRate"`
	MeanReach         float64 `json:"meanReach"`
}

// RuleSetSwapped publishes the one-time regime change.
func RuleSetSwapped(ctx context.Context, pub logging.Publisher, minute float64, payload RuleSetSwappedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRuleSetSwapped,
		Minute:   minute,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryAdaptive,
		Payload:  payload,
	})
}

// CountermeasurePayload captures an applied pacing adjustment.
type CountermeasurePayload struct {
	Kind      string `json:"kind"`
	Remaining int    `json:"remaining"`
	PostSwap  bool   `json:"postSwap"`
}

// Countermeasure publishes an applied pacing adjustment.
func Countermeasure(ctx context.Context, pub logging.Publisher, minute float64, payload CountermeasurePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCountermeasure,
		Minute:   minute,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryAdaptive,
		Payload:  payload,
	})
}

// CountermeasureRejected publishes a refused adjustment.
func CountermeasureRejected(ctx context.Context, pub logging.Publisher, minute float64, payload CountermeasurePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCountermeasureRejected,
		Minute:   minute,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryAdaptive,
		Payload:  payload,
	})
}
