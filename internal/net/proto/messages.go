// Package proto defines the websocket wire protocol between the operator
// console and the simulation host.
package proto

import (
	"sort"

	"fleetsim/server/internal/state"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client message type identifiers.
const (
	TypeSchedule       = "schedule"
	TypeBatch          = "batch"
	TypeTriage         = "triage"
	TypeCountermeasure = "countermeasure"
	TypeAdvancePhase   = "advancePhase"
	TypeHeartbeat      = "heartbeat"
)

// Triage operation identifiers carried in the "op" field of a triage
// message.
const (
	TriageOpOpen    = "open"
	TriageOpEdit    = "edit"
	TriageOpPersona = "persona"
	TriageOpRisk    = "risk"
	TriageOpReveal  = "reveal"
	TriageOpDecide  = "decide"
	TriageOpSkip    = "skip"
)

// Outbound message type identifiers.
const (
	TypeState         = "state"
	TypeCommandAck    = "commandAck"
	TypeCommandReject = "commandReject"
)

// CountermeasureMessage mirrors a pacing adjustment on the wire.
type CountermeasureMessage struct {
	Kind       string             `json:"kind"`
	Cap        int                `json:"cap,omitempty"`
	GapMinutes int                `json:"gapMinutes,omitempty"`
	Mix        map[string]float64 `json:"mix,omitempty"`
}

// ClientMessage is the single inbound envelope. Fields beyond Ver/Type/Seq
// are populated per message type.
type ClientMessage struct {
	Ver    int     `json:"ver,omitempty"`
	Type   string  `json:"type"`
	Seq    *uint64 `json:"seq,omitempty"`
	SentAt int64   `json:"sentAt,omitempty"`

	// schedule / batch
	AccountID  string   `json:"accountId,omitempty"`
	AccountIDs []string `json:"accountIds,omitempty"`
	TweetID    string   `json:"tweetId,omitempty"`
	Action     string   `json:"action,omitempty"`
	Tone       string   `json:"tone,omitempty"`
	Minute     int      `json:"minute,omitempty"`
	Pattern    string   `json:"pattern,omitempty"`

	// triage
	Op        string `json:"op,omitempty"`
	Field     string `json:"field,omitempty"`
	Persona   string `json:"persona,omitempty"`
	Risk      string `json:"risk,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	FlagIndex *int   `json:"flagIndex,omitempty"`

	// countermeasure
	Countermeasure *CountermeasureMessage `json:"countermeasure,omitempty"`
}

// CommandAck confirms a sequenced client command was applied.
type CommandAck struct {
	Ver  int    `json:"ver"`
	Type string `json:"type"`
	Seq  uint64 `json:"seq"`
}

// CommandReject reports why a sequenced client command was refused.
type CommandReject struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
}

// HeartbeatAck answers a client heartbeat with server time and measured RTT.
type HeartbeatAck struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// StateMessage is the periodic run broadcast sent to every subscriber.
type StateMessage struct {
	Ver        int                      `json:"ver"`
	Type       string                   `json:"type"`
	RunID      string                   `json:"runId"`
	Phase      string                   `json:"phase"`
	Minutes    float64                  `json:"minutes"`
	Meter      float64                  `json:"meter"`
	Pending    int                      `json:"pending"`
	Executed   int                      `json:"executed"`
	Recent     []state.ExecutedAction   `json:"recent,omitempty"`
	Notices    []string                 `json:"notices,omitempty"`
	Analytics  *state.AnalyticsSnapshot `json:"analytics,omitempty"`
	ServerTime int64                    `json:"serverTime"`
}

// AccountView is the operator-facing projection of an account. The hidden
// ban risk never crosses the wire; history flags appear only as a count
// until individually revealed during triage.
type AccountView struct {
	ID        string              `json:"id"`
	Handle    string              `json:"handle"`
	AgeDays   int                 `json:"ageDays"`
	Followers int                 `json:"followers"`
	RiskClass state.RiskClass     `json:"riskClass"`
	Status    state.AccountStatus `json:"status"`
	Personas  []string            `json:"personas"`
	FlagCount int                 `json:"flagCount"`
}

// ViewAccount projects an account for an operator payload.
func ViewAccount(a *state.Account) AccountView {
	view := AccountView{
		ID:        a.ID,
		Handle:    a.Handle,
		AgeDays:   a.AgeDays,
		Followers: a.Followers,
		RiskClass: a.RiskClass,
		Status:    a.Status,
		FlagCount: len(a.HistoryFlags),
	}
	for tag, set := range a.Personas {
		if set {
			view.Personas = append(view.Personas, string(tag))
		}
	}
	sort.Strings(view.Personas)
	return view
}

// JoinResponse is returned by the join endpoint when a run is created.
type JoinResponse struct {
	RunID    string        `json:"runId"`
	Seed     string        `json:"seed"`
	Phase    string        `json:"phase"`
	Accounts []AccountView `json:"accounts"`
	Tweets   []state.Tweet `json:"tweets"`
}
