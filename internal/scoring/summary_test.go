package scoring

import (
	"testing"

	"fleetsim/server/internal/journal"
	"fleetsim/server/internal/state"
)

func TestSummariesSplitByChapter(t *testing.T) {
	snap := &state.RunSnapshot{
		Executed: []state.ExecutedAction{
			{Minute: 5, Phase: "engagement", Type: state.ActionLike, DetectionDelta: 1, ReachDelta: 4, DepthDelta: 0.5},
			{Minute: 8, Phase: "engagement", Type: state.ActionRetweet, DetectionDelta: 3, ReachDelta: 20, DepthDelta: 0.4},
			{Minute: 50, Phase: "adaptive", Type: state.ActionReply, DetectionDelta: 5, ReachDelta: 9, DepthDelta: 1.8},
		},
		TriageDecisions: []state.TriageDecision{
			{AccountID: "a", Outcome: state.TriageKeep},
			{AccountID: "b", Outcome: state.TriageKeep},
			{AccountID: "c", Outcome: state.TriageDiscard},
		},
		Trace: []journal.Entry{
			{Minute: 9, Phase: "engagement", Type: "penalty.flag"},
			{Minute: 52, Phase: "adaptive", Type: "penalty.ban"},
		},
		Baseline: &state.BaselineMetrics{MeanDetectionCost: 2, CapturedMinute: 40},
	}

	summaries := Summaries(snap)
	if len(summaries) != 3 {
		t.Fatalf("expected three chapter summaries, got %d", len(summaries))
	}

	engagement := summaries[0]
	if engagement.Phase != "engagement" || engagement.Actions != 2 {
		t.Fatalf("unexpected engagement summary: %+v", engagement)
	}
	if engagement.MeanDetectionCost != 2 {
		t.Fatalf("expected engagement mean cost 2, got %v", engagement.MeanDetectionCost)
	}
	if engagement.ReachTotal != 24 || engagement.Flags != 1 || engagement.Bans != 0 {
		t.Fatalf("unexpected engagement aggregates: %+v", engagement)
	}

	triage := summaries[1]
	if triage.Phase != "triage" || triage.Actions != 0 {
		t.Fatalf("unexpected triage summary: %+v", triage)
	}
	if triage.TriageKept != 2 || triage.TriageDiscarded != 1 || triage.TriageParked != 0 {
		t.Fatalf("unexpected triage outcome counts: %+v", triage)
	}

	adaptive := summaries[2]
	if adaptive.Phase != "adaptive" || adaptive.Actions != 1 || adaptive.Bans != 1 {
		t.Fatalf("unexpected adaptive summary: %+v", adaptive)
	}
	if adaptive.DetectionVsBaseline != 3 {
		t.Fatalf("expected adaptive detection 5 vs baseline 2, got %v", adaptive.DetectionVsBaseline)
	}
}
