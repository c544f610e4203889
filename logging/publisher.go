package logging

import (
	"context"
	"time"
)

type EventType string

type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

type EntityKind string

const (
	EntityKindUnknown  EntityKind = "unknown"
	EntityKindAccount  EntityKind = "account"
	EntityKindTweet    EntityKind = "tweet"
	EntityKindRun      EntityKind = "run"
	EntityKindOperator EntityKind = "operator"
)

// Event is the wire shape every sink receives. Minute is simulated time;
// Time is wall-clock and filled in by the router when zero.
type Event struct {
	Type     EventType      `json:"type"`
	Minute   float64        `json:"minute"`
	Time     time.Time      `json:"time"`
	Actor    EntityRef      `json:"actor"`
	Targets  []EntityRef    `json:"targets,omitempty"`
	Severity Severity       `json:"severity"`
	Category string         `json:"category,omitempty"`
	Payload  any            `json:"payload,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
	RunID    string         `json:"runId,omitempty"`
}

type EntityRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

const (
	CategoryEngagement = "engagement"
	CategoryTriage     = "triage"
	CategoryAdaptive   = "adaptive"
	CategorySystem     = "system"
)

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type PublisherFunc func(ctx context.Context, event Event)

func (f PublisherFunc) Publish(ctx context.Context, event Event) {
	if f == nil {
		return
	}
	f(ctx, event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) {}

func NopPublisher() Publisher {
	return nopPublisher{}
}

// WithRun stamps every event passing through with the given run id, unless
// the event already set one.
func WithRun(p Publisher, runID string) Publisher {
	if p == nil {
		return NopPublisher()
	}
	if runID == "" {
		return p
	}
	return PublisherFunc(func(ctx context.Context, event Event) {
		if event.RunID == "" {
			event.RunID = runID
		}
		p.Publish(ctx, event)
	})
}

func (e Event) WithExtra(key string, value any) Event {
	if e.Extra == nil {
		e.Extra = make(map[string]any, 1)
	}
	e.Extra[key] = value
	return e
}

func cloneEvent(event Event) Event {
	cloned := event
	if len(event.Targets) > 0 {
		cloned.Targets = append([]EntityRef(nil), event.Targets...)
	}
	if event.Extra != nil {
		copied := make(map[string]any, len(event.Extra))
		for k, v := range event.Extra {
			copied[k] = v
		}
		cloned.Extra = copied
	}
	return cloned
}
