package lifecycle

import (
	"context"

	"fleetsim/server/logging"
)

const (
	// EventRunStarted marks the creation of a run.
	EventRunStarted logging.EventType = "lifecycle.run_started"
	// EventRunCompleted marks a finished run with its derived scores.
	EventRunCompleted logging.EventType = "lifecycle.run_completed"
	// EventAccountFlagged marks a detection-threshold flag penalty.
	EventAccountFlagged logging.EventType = "lifecycle.account_flagged"
	// EventAccountBanned marks a detection-threshold ban penalty.
	EventAccountBanned logging.EventType = "lifecycle.account_banned"
	// EventMeterAdvisory marks the warning band firing at a minute boundary.
	EventMeterAdvisory logging.EventType = "lifecycle.meter_advisory"
)

// RunStartedPayload describes the population handed to a new run.
type RunStartedPayload struct {
	Seed     string `json:"seed"`
	Accounts int    `json:"accounts"`
	Tweets   int    `json:"tweets"`
}

func RunStarted(ctx context.Context, pub logging.Publisher, run logging.EntityRef, payload RunStartedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRunStarted,
		Actor:    run,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

// RunCompletedPayload carries the final competency scores.
type RunCompletedPayload struct {
	Minutes                   float64 `json:"minutes"`
	Actions                   int     `json:"actions"`
	PatternRealism            float64 `json:"patternRealism"`
	RiskDiscipline            float64 `json:"riskDiscipline"`
	StrategicSensitivity      float64 `json:"strategicSensitivity"`
	OperationalPrioritization float64 `json:"operationalPrioritization"`
	AutonomySignals           float64 `json:"autonomySignals"`
}

func RunCompleted(ctx context.Context, pub logging.Publisher, minute float64, run logging.EntityRef, payload RunCompletedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRunCompleted,
		Minute:   minute,
		Actor:    run,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

// PenaltyPayload records a threshold penalty against an account.
type PenaltyPayload struct {
	Meter     float64 `json:"meter"`
	RiskClass string  `json:"riskClass"`
}

func AccountFlagged(ctx context.Context, pub logging.Publisher, minute float64, account logging.EntityRef, payload PenaltyPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAccountFlagged,
		Minute:   minute,
		Actor:    account,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

func AccountBanned(ctx context.Context, pub logging.Publisher, minute float64, account logging.EntityRef, payload PenaltyPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventAccountBanned,
		Minute:   minute,
		Actor:    account,
		Severity: logging.SeverityError,
		Category: logging.CategorySystem,
		Payload:  payload,
	})
}

func MeterAdvisory(ctx context.Context, pub logging.Publisher, minute float64, meter float64) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMeterAdvisory,
		Minute:   minute,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  map[string]float64{"meter": meter},
	})
}
