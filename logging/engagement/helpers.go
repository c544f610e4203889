package engagement

import (
	"context"

	"fleetsim/server/logging"
)

const (
	// EventScheduled is emitted when an action is accepted into the pending queue.
	EventScheduled logging.EventType = "engagement.scheduled"
	// EventScheduleRejected is emitted when scheduling fails a duplicate or pacing check.
	EventScheduleRejected logging.EventType = "engagement.schedule_rejected"
	// EventExecuted is emitted when a due action runs at a minute boundary.
	EventExecuted logging.EventType = "engagement.executed"
	// EventDropped is emitted when a due action is discarded instead of executed.
	EventDropped logging.EventType = "engagement.dropped"
)

// ScheduledPayload captures the accepted request.
type ScheduledPayload struct {
	TweetID      string `json:"tweetId"`
	Action       string `json:"action"`
	Tone         string `json:"tone,omitempty"`
	TargetMinute int    `json:"targetMinute"`
}

// Scheduled publishes an accepted scheduling request.
func Scheduled(ctx context.Context, pub logging.Publisher, minute float64, account logging.EntityRef, payload ScheduledPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventScheduled,
		Minute:   minute,
		Actor:    account,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryEngagement,
		Payload:  payload,
	})
}

// RejectedPayload explains why a scheduling request was refused.
type RejectedPayload struct {
	TweetID string `json:"tweetId"`
	Action  string `json:"action"`
	Reason  string `json:"reason"`
}

// ScheduleRejected publishes a refused scheduling request.
func ScheduleRejected(ctx context.Context, pub logging.Publisher, minute float64, account logging.EntityRef, payload RejectedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventScheduleRejected,
		Minute:   minute,
		Actor:    account,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryEngagement,
		Payload:  payload,
	})
}

// ExecutedPayload carries the three computed deltas of a completed action.
type ExecutedPayload struct {
	TweetID        string  `json:"tweetId"`
	Action         string  `json:"action"`
	Tone           string  `json:"tone,omitempty"`
	DetectionDelta float64 `json:"detectionDelta"`
	ReachDelta     float64 `json:"reachDelta"`
	DepthDelta     float64 `json:"depthDelta"`
}

// Executed publishes a completed action.
func Executed(ctx context.Context, pub logging.Publisher, minute float64, account logging.EntityRef, payload ExecutedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventExecuted,
		Minute:   minute,
		Actor:    account,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEngagement,
		Payload:  payload,
	})
}

// DroppedPayload explains a discarded due action.
type DroppedPayload struct {
	TweetID string `json:"tweetId"`
	Action  string `json:"action"`
	Reason  string `json:"reason"`
}

// Dropped publishes a discarded due action.
func Dropped(ctx context.Context, pub logging.Publisher, minute float64, account logging.EntityRef, payload DroppedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDropped,
		Minute:   minute,
		Actor:    account,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryEngagement,
		Payload:  payload,
	})
}
