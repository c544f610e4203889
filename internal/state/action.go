package state

// ActionType enumerates the engagement actions an account can perform.
type ActionType string

const (
	ActionLike    ActionType = "like"
	ActionRetweet ActionType = "retweet"
	ActionReply   ActionType = "reply"
	ActionQuote   ActionType = "quote"
	// ActionBrowse is an injected no-op used as pacing noise; it moves no
	// content metrics.
	ActionBrowse ActionType = "browse"
)

// ReplyTone colours replies and quotes. The persona-mismatch detection factor
// and the tone-diversity scoring term both consume it.
type ReplyTone string

const (
	ToneNeutral    ReplyTone = "neutral"
	ToneSupportive ReplyTone = "supportive"
	ToneSkeptical  ReplyTone = "skeptical"
	ToneTechnical  ReplyTone = "technical"
	ToneInsider    ReplyTone = "insider"
	ToneShill      ReplyTone = "shill"
)

// ActionTypes lists every schedulable action in escalation order.
func ActionTypes() []ActionType {
	return []ActionType{ActionBrowse, ActionLike, ActionRetweet, ActionReply, ActionQuote}
}

// ScheduledAction is a pending request in the queue. It is consumed exactly
// once: executed, rejected, or dropped.
type ScheduledAction struct {
	ID           uint64     `json:"id"`
	AccountID    string     `json:"accountId"`
	TweetID      string     `json:"tweetId"`
	Type         ActionType `json:"type"`
	Tone         ReplyTone  `json:"tone,omitempty"`
	TargetMinute int        `json:"targetMinute"`
}

// ExecutedAction is the immutable record of a completed action; the executed
// log is the sole input to scoring.
type ExecutedAction struct {
	ID             uint64     `json:"id"`
	Minute         int        `json:"minute"`
	Phase          string     `json:"phase"`
	AccountID      string     `json:"accountId"`
	TweetID        string     `json:"tweetId"`
	Type           ActionType `json:"type"`
	Tone           ReplyTone  `json:"tone,omitempty"`
	DetectionDelta float64    `json:"detectionDelta"`
	ReachDelta     float64    `json:"reachDelta"`
	DepthDelta     float64    `json:"depthDelta"`
}

// TimingPattern selects how a batch spreads its actions over time.
type TimingPattern string

const (
	// PatternBurst clusters several actions into each minute.
	PatternBurst TimingPattern = "burst"
	// PatternStaggered spaces accounts a fixed few minutes apart.
	PatternStaggered TimingPattern = "staggered"
	// PatternDrip spreads accounts with a long per-account delay.
	PatternDrip TimingPattern = "drip"
)

// Offset returns the minute offset for the i-th account in a batch.
func (p TimingPattern) Offset(i int) int {
	switch p {
	case PatternStaggered:
		return i * 3
	case PatternDrip:
		return i * 12
	default:
		// Burst: three per minute.
		return i / 3
	}
}
