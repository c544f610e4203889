package scoring

import "fleetsim/server/internal/state"

// Summaries computes one display aggregate per chapter. Scoring does not
// consume these; they exist for debrief views only.
func Summaries(snap *state.RunSnapshot) []state.ChapterSummary {
	phases := []string{"engagement", "triage", "adaptive"}
	summaries := make([]state.ChapterSummary, 0, len(phases))
	for _, phase := range phases {
		summaries = append(summaries, summarize(snap, phase))
	}
	return summaries
}

func summarize(snap *state.RunSnapshot, phase string) state.ChapterSummary {
	summary := state.ChapterSummary{Phase: phase}

	var detectionTotal float64
	for _, action := range snap.Executed {
		if action.Phase != phase {
			continue
		}
		summary.Actions++
		detectionTotal += action.DetectionDelta
		summary.ReachTotal += action.ReachDelta
		summary.DepthTotal += action.DepthDelta
	}
	if summary.Actions > 0 {
		summary.MeanDetectionCost = detectionTotal / float64(summary.Actions)
	}

	for _, entry := range snap.Trace {
		if entry.Phase != phase {
			continue
		}
		switch entry.Type {
		case "penalty.ban":
			summary.Bans++
		case "penalty.flag":
			summary.Flags++
		}
	}

	if phase == "triage" {
		for _, decision := range snap.TriageDecisions {
			switch decision.Outcome {
			case state.TriageKeep:
				summary.TriageKept++
			case state.TriagePark:
				summary.TriageParked++
			case state.TriageDiscard:
				summary.TriageDiscarded++
			}
		}
	}

	if phase == "adaptive" && snap.Baseline != nil && summary.Actions > 0 {
		summary.DetectionVsBaseline = summary.MeanDetectionCost - snap.Baseline.MeanDetectionCost
	}
	return summary
}
