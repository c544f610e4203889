package logging_test

import (
	"context"
	"testing"
	"time"

	"fleetsim/server/logging"
	"fleetsim/server/logging/sinks"
)

func testClock() logging.Clock {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return logging.ClockFunc(func() time.Time { return fixed })
}

func TestRouterDeliversToSinks(t *testing.T) {
	memory := sinks.NewMemorySink()
	router := logging.NewRouter(testClock(), logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})

	router.Publish(context.Background(), logging.Event{
		Type:     "run.started",
		Minute:   0,
		Severity: logging.SeverityInfo,
		Actor:    logging.EntityRef{ID: "run-1", Kind: logging.EntityKindRun},
	})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected one delivered event, got %d", len(events))
	}
	if events[0].Type != "run.started" {
		t.Fatalf("unexpected event type %s", events[0].Type)
	}
	if events[0].Time.IsZero() {
		t.Fatalf("expected the router to stamp wall-clock time")
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router := logging.NewRouter(testClock(), cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})

	router.Publish(context.Background(), logging.Event{Type: "debug.noise", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "info.routine", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "warn.signal", Severity: logging.SeverityWarn})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 || events[0].Type != "warn.signal" {
		t.Fatalf("expected only the warning through, got %+v", events)
	}
}

func TestRouterIgnoresUntypedAndPostCloseEvents(t *testing.T) {
	memory := sinks.NewMemorySink()
	router := logging.NewRouter(testClock(), logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "late.event", Severity: logging.SeverityInfo})

	if got := len(memory.Events()); got != 0 {
		t.Fatalf("expected no delivered events, got %d", got)
	}
}

func TestRouterCountsDropsWhenSaturated(t *testing.T) {
	block := make(chan struct{})
	slow := &blockingSink{release: block}
	cfg := logging.DefaultConfig()
	cfg.BufferSize = 1
	router := logging.NewRouter(testClock(), cfg, []logging.NamedSink{
		{Name: "slow", Sink: slow},
	})

	for i := 0; i < 50; i++ {
		router.Publish(context.Background(), logging.Event{Type: "burst", Severity: logging.SeverityInfo})
	}
	close(block)
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	stats := router.Stats()
	if stats.DroppedTotal == 0 {
		t.Fatalf("expected saturation drops to be counted")
	}
	if stats.EventsTotal+stats.DroppedTotal != 50 {
		t.Fatalf("expected every publish accounted for, got %d forwarded + %d dropped",
			stats.EventsTotal, stats.DroppedTotal)
	}
}

func TestWithRunStampsEvents(t *testing.T) {
	var got logging.Event
	inner := logging.PublisherFunc(func(_ context.Context, event logging.Event) { got = event })

	publisher := logging.WithRun(inner, "run-42")
	publisher.Publish(context.Background(), logging.Event{Type: "tagged"})
	if got.RunID != "run-42" {
		t.Fatalf("expected run id stamped, got %q", got.RunID)
	}

	publisher.Publish(context.Background(), logging.Event{Type: "pre.tagged", RunID: "run-7"})
	if got.RunID != "run-7" {
		t.Fatalf("expected an existing run id preserved, got %q", got.RunID)
	}
}

type blockingSink struct {
	release <-chan struct{}
}

func (s *blockingSink) Write(logging.Event) error {
	<-s.release
	return nil
}

func (s *blockingSink) Close(context.Context) error { return nil }
