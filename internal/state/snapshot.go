package state

import "fleetsim/server/internal/journal"

// Scores are the five derived competency scores, each clamped to [0,100].
type Scores struct {
	PatternRealism            float64 `json:"patternRealism"`
	RiskDiscipline            float64 `json:"riskDiscipline"`
	StrategicSensitivity      float64 `json:"strategicSensitivity"`
	OperationalPrioritization float64 `json:"operationalPrioritization"`
	AutonomySignals           float64 `json:"autonomySignals"`
}

// BaselineMetrics is the pre-algorithm-change reference captured by the
// adaptive chapter immediately before the rule-set swap.
type BaselineMetrics struct {
	MeanDetectionCost float64 `json:"meanDetectionCost"`
	BanRate           float64 `json:"banRate"`
	MeanReach         float64 `json:"meanReach"`
	CapturedMinute    float64 `json:"capturedMinute"`
}

// ChapterSummary aggregates one chapter's activity for display. Scoring does
// not consume it.
type ChapterSummary struct {
	Phase             string  `json:"phase"`
	Actions           int     `json:"actions"`
	MeanDetectionCost float64 `json:"meanDetectionCost"`
	ReachTotal        float64 `json:"reachTotal"`
	DepthTotal        float64 `json:"depthTotal"`
	Bans              int     `json:"bans"`
	Flags             int     `json:"flags"`
	TriageKept        int     `json:"triageKept"`
	TriageParked      int     `json:"triageParked"`
	TriageDiscarded   int     `json:"triageDiscarded"`
	// DetectionVsBaseline is the chapter's mean detection cost minus the
	// pre-swap baseline mean. Zero when no baseline was captured.
	DetectionVsBaseline float64 `json:"detectionVsBaseline"`
}

// AnalyticsSnapshot is the adaptive chapter's read-only inspection view. It
// has no effect on simulation mechanics.
type AnalyticsSnapshot struct {
	BansByAgeBucket       map[string]int         `json:"bansByAgeBucket"`
	BansByRiskClass       map[RiskClass]int      `json:"bansByRiskClass"`
	MeanDetectionByAction map[ActionType]float64 `json:"meanDetectionByAction"`
}

// RunSnapshot is the exported aggregate handed to the external persistence
// collaborator at run end. It is plain data: JSON-serializable, no cycles.
type RunSnapshot struct {
	RunID           string           `json:"runId"`
	Seed            string           `json:"seed"`
	Minutes         float64          `json:"minutes"`
	Meter           float64          `json:"meter"`
	ActiveRuleSet   string           `json:"activeRuleSet"`
	RuleSets        []RuleSet        `json:"ruleSets"`
	Accounts        []Account        `json:"accounts"`
	Tweets          []Tweet          `json:"tweets"`
	Executed        []ExecutedAction `json:"executed"`
	TriageDecisions []TriageDecision `json:"triageDecisions"`
	Notices         []string         `json:"notices"`
	Pacing          Pacing           `json:"pacing"`
	Baseline        *BaselineMetrics `json:"baseline,omitempty"`
	ReactionLatency float64          `json:"reactionLatency"`
	Countermeasures int              `json:"countermeasures"`
	Scores          Scores           `json:"scores"`
	Summaries       []ChapterSummary `json:"summaries"`
	Trace           []journal.Entry  `json:"trace"`
}
