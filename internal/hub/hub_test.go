package hub

import (
	"fmt"
	"strings"
	"testing"

	"fleetsim/server/internal/net/intake"
	"fleetsim/server/internal/state"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Seed = "hub-test"
	return NewHub(cfg, nil, nil)
}

func TestJoinCreatesSessionWithRedactedViews(t *testing.T) {
	h := newTestHub(t)
	resp := h.Join()

	if resp.RunID == "" {
		t.Fatalf("expected a run id")
	}
	if resp.Phase != "engagement" {
		t.Fatalf("expected the run to start in engagement, got %s", resp.Phase)
	}
	if len(resp.Accounts) == 0 || len(resp.Tweets) == 0 {
		t.Fatalf("expected a generated population, got %d accounts / %d tweets",
			len(resp.Accounts), len(resp.Tweets))
	}

	snapshot, ok := h.Snapshot(resp.RunID)
	if !ok {
		t.Fatalf("expected the session to be registered")
	}
	if snapshot.RunID != resp.RunID {
		t.Fatalf("expected snapshot for the joined run, got %s", snapshot.RunID)
	}
}

func TestJoinedRunsAreIndependent(t *testing.T) {
	h := newTestHub(t)
	first := h.Join()
	second := h.Join()
	if first.RunID == second.RunID {
		t.Fatalf("expected distinct run ids")
	}

	ok, _ := h.Apply(first.RunID, intake.Command{
		Kind:      intake.KindSchedule,
		AccountID: first.Accounts[0].ID,
		TweetID:   first.Tweets[0].ID,
		Action:    state.ActionLike,
	})
	if !ok {
		t.Fatalf("expected schedule on the first run to succeed")
	}

	snap, _ := h.Snapshot(second.RunID)
	if len(snap.Executed) != 0 || snap.Minutes != 0 {
		t.Fatalf("expected the second run untouched")
	}
}

func TestApplyRejectsUnknownRun(t *testing.T) {
	h := newTestHub(t)
	if ok, reason := h.Apply("missing", intake.Command{Kind: intake.KindAdvancePhase}); ok || reason != intake.RejectUnknownRun {
		t.Fatalf("expected unknown_run, got ok=%v reason=%s", ok, reason)
	}
}

func TestApplyEnforcesPhaseGates(t *testing.T) {
	h := newTestHub(t)
	resp := h.Join()

	// Triage operations are locked during engagement.
	if ok, reason := h.Apply(resp.RunID, intake.Command{Kind: intake.KindTriage, TriageOp: "skip"}); ok || reason != intake.RejectPhaseLocked {
		t.Fatalf("expected phase_locked for early triage, got ok=%v reason=%s", ok, reason)
	}
	// So are countermeasures.
	cm := intake.Command{Kind: intake.KindCountermeasure, Countermeasure: state.Countermeasure{Kind: state.CounterInjectBrowsing}}
	if ok, reason := h.Apply(resp.RunID, cm); ok || reason != intake.RejectPhaseLocked {
		t.Fatalf("expected phase_locked for early countermeasure, got ok=%v reason=%s", ok, reason)
	}

	// Enter triage: scheduling locks, triage unlocks.
	h.Apply(resp.RunID, intake.Command{Kind: intake.KindAdvancePhase})
	schedule := intake.Command{Kind: intake.KindSchedule, AccountID: resp.Accounts[0].ID, TweetID: resp.Tweets[0].ID, Action: state.ActionLike}
	if ok, reason := h.Apply(resp.RunID, schedule); ok || reason != intake.RejectPhaseLocked {
		t.Fatalf("expected phase_locked for scheduling during triage, got ok=%v reason=%s", ok, reason)
	}
	if ok, _ := h.Apply(resp.RunID, intake.Command{Kind: intake.KindTriage, TriageOp: "skip"}); !ok {
		t.Fatalf("expected triage skip to apply during triage")
	}

	// Enter adaptive: scheduling and countermeasures both work.
	h.Apply(resp.RunID, intake.Command{Kind: intake.KindAdvancePhase})
	if ok, reason := h.Apply(resp.RunID, schedule); !ok {
		t.Fatalf("expected scheduling during adaptive, got %s", reason)
	}
	if ok, reason := h.Apply(resp.RunID, cm); !ok {
		t.Fatalf("expected countermeasure during adaptive, got %s", reason)
	}
}

func TestApplyReportsSchedulerRejections(t *testing.T) {
	h := newTestHub(t)
	resp := h.Join()
	schedule := intake.Command{
		Kind:         intake.KindSchedule,
		AccountID:    resp.Accounts[0].ID,
		TweetID:      resp.Tweets[0].ID,
		Action:       state.ActionLike,
		TargetMinute: 1,
	}
	if ok, _ := h.Apply(resp.RunID, schedule); !ok {
		t.Fatalf("expected first schedule to apply")
	}
	if ok, reason := h.Apply(resp.RunID, schedule); ok || reason != intake.RejectRateLimited {
		t.Fatalf("expected duplicate to surface as rate_limited, got ok=%v reason=%s", ok, reason)
	}
}

func TestAdvanceToCompletionFinalizesScores(t *testing.T) {
	h := newTestHub(t)
	resp := h.Join()

	advance := intake.Command{Kind: intake.KindAdvancePhase}
	h.Apply(resp.RunID, advance)
	h.Apply(resp.RunID, advance)
	h.Apply(resp.RunID, advance)

	snapshot, ok := h.Snapshot(resp.RunID)
	if !ok {
		t.Fatalf("expected the completed session to remain queryable")
	}
	scores := []float64{
		snapshot.Scores.PatternRealism,
		snapshot.Scores.RiskDiscipline,
		snapshot.Scores.StrategicSensitivity,
		snapshot.Scores.OperationalPrioritization,
		snapshot.Scores.AutonomySignals,
	}
	for i, score := range scores {
		if score < 0 || score > 100 {
			t.Fatalf("expected score %d within [0,100], got %v", i, score)
		}
	}
	if len(snapshot.Summaries) != 3 {
		t.Fatalf("expected three chapter summaries, got %d", len(snapshot.Summaries))
	}

	// A completed run refuses further commands.
	if ok, reason := h.Apply(resp.RunID, advance); ok || reason != intake.RejectRunComplete {
		t.Fatalf("expected run_complete, got ok=%v reason=%s", ok, reason)
	}
}

func TestDiagnosticsListsSessions(t *testing.T) {
	h := newTestHub(t)
	h.Join()
	h.Join()
	rows := h.DiagnosticsSnapshot()
	if len(rows) != 2 {
		t.Fatalf("expected two diagnostic rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.RunID == "" || row.Phase != "engagement" {
			t.Fatalf("unexpected diagnostics row: %+v", row)
		}
	}
}

func TestStateMessageNoticesSurviveRingRotation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = "hub-notices"
	cfg.Engine.NoticeCapacity = 4
	h := NewHub(cfg, nil, nil)
	resp := h.Join()

	h.mu.Lock()
	sess := h.sessions[resp.RunID]
	h.mu.Unlock()
	if sess == nil {
		t.Fatalf("expected a registered session for %s", resp.RunID)
	}

	// Rejected schedules for unknown accounts each record an advisory.
	// Six of them overflow the four-slot ring.
	for i := 0; i < 6; i++ {
		sess.run.Schedule(fmt.Sprintf("ghost-%d", i), resp.Tweets[0].ID, state.ActionLike, 1, "")
	}
	h.mu.Lock()
	first := h.stateMessageLocked(sess, true)
	h.mu.Unlock()
	if len(first.Notices) == 0 {
		t.Fatalf("expected advisories in the first broadcast")
	}

	// The ring already rotated out its oldest entries; a later advisory
	// must still reach the next broadcast.
	sess.run.Schedule("ghost-late", resp.Tweets[0].ID, state.ActionLike, 1, "")
	h.mu.Lock()
	second := h.stateMessageLocked(sess, true)
	h.mu.Unlock()
	if len(second.Notices) != 1 {
		t.Fatalf("expected one fresh advisory, got %d", len(second.Notices))
	}
	if !strings.Contains(second.Notices[0], "ghost-late") {
		t.Fatalf("expected the newest advisory, got %q", second.Notices[0])
	}

	h.mu.Lock()
	third := h.stateMessageLocked(sess, true)
	h.mu.Unlock()
	if len(third.Notices) != 0 {
		t.Fatalf("expected no advisories once consumed, got %v", third.Notices)
	}
}
