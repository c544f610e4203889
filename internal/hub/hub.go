// Package hub hosts concurrent assessment runs and fans simulation state out
// to websocket subscribers. One session owns one run and its phase machine;
// the hub's fixed-rate loop advances every live session.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fleetsim/server/internal/gen"
	"fleetsim/server/internal/metrics"
	"fleetsim/server/internal/net/intake"
	"fleetsim/server/internal/net/proto"
	"fleetsim/server/internal/phase"
	"fleetsim/server/internal/scoring"
	"fleetsim/server/internal/sim"
	"fleetsim/server/internal/state"
	"fleetsim/server/logging"
	"fleetsim/server/logging/lifecycle"
)

const (
	writeWait        = 10 * time.Second
	defaultTickRate  = 10 // ticks per second
	recentBroadcast  = 16 // executed actions included per state message
	noticesBroadcast = 8
)

// Config tunes the hub and every session it creates.
type Config struct {
	Seed       string
	TickRate   int
	Engine     sim.Config
	Population gen.Config
	Triage     phase.TriageConfig
	Adaptive   phase.AdaptiveConfig
	Logger     *log.Logger
}

// DefaultConfig returns the standard assessment setup.
func DefaultConfig() Config {
	return Config{
		Seed:       "assessment",
		TickRate:   defaultTickRate,
		Engine:     sim.DefaultConfig(),
		Population: gen.DefaultConfig(),
		Triage:     phase.DefaultTriageConfig(),
		Adaptive:   phase.DefaultAdaptiveConfig(),
	}
}

type Subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage serializes writes to the underlying connection.
func (s *Subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

type session struct {
	id          string
	machine     *phase.Machine
	run         *sim.Run
	subscribers map[*Subscriber]struct{}
	createdAt   time.Time
	lastTick    time.Time

	broadcastFrom int // executed-log offset for the next state message
	noticeFrom    int // lifetime notice count already broadcast
	final         *state.RunSnapshot
}

// Hub owns every live session. All session access goes through the hub
// mutex; the engine itself is single-writer.
type Hub struct {
	mu        sync.Mutex
	cfg       Config
	sessions  map[string]*session
	publisher logging.Publisher
	collector *metrics.Collector
	logger    *log.Logger
	startedAt time.Time
}

// NewHub wires a hub. The collector may be nil in tests.
func NewHub(cfg Config, publisher logging.Publisher, collector *metrics.Collector) *Hub {
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		cfg:       cfg,
		sessions:  make(map[string]*session),
		publisher: publisher,
		collector: collector,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Join creates a fresh run with its own generated population and returns the
// operator-facing view of it.
func (h *Hub) Join() proto.JoinResponse {
	runID := uuid.NewString()
	seed := h.cfg.Seed + ":" + runID

	accounts := gen.Accounts(seed, h.cfg.Population)
	tweets := gen.Tweets(seed, h.cfg.Population)

	engineCfg := h.cfg.Engine
	engineCfg.Seed = seed
	publisher := logging.WithRun(h.publisher, runID)

	run := sim.NewRun(engineCfg, accounts, tweets, nil, publisher)
	machine := phase.NewMachine(run, h.cfg.Triage, h.cfg.Adaptive)

	sess := &session{
		id:          runID,
		machine:     machine,
		run:         run,
		subscribers: make(map[*Subscriber]struct{}),
		createdAt:   time.Now(),
		lastTick:    time.Now(),
	}

	h.mu.Lock()
	h.sessions[runID] = sess
	h.mu.Unlock()

	lifecycle.RunStarted(context.Background(), publisher,
		logging.EntityRef{ID: runID, Kind: logging.EntityKindRun},
		lifecycle.RunStartedPayload{Seed: seed, Accounts: len(accounts), Tweets: len(tweets)})

	response := proto.JoinResponse{
		RunID: runID,
		Seed:  seed,
		Phase: string(machine.Current()),
	}
	for _, account := range accounts {
		response.Accounts = append(response.Accounts, proto.ViewAccount(account))
	}
	for _, tweet := range tweets {
		response.Tweets = append(response.Tweets, tweet.Clone())
	}
	return response
}

// Subscribe attaches a websocket connection to a run and returns the initial
// state payload to send. ok is false for an unknown run.
func (h *Hub) Subscribe(runID string, conn *websocket.Conn) (*Subscriber, []byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[runID]
	if !ok {
		return nil, nil, false
	}
	sub := &Subscriber{conn: conn}
	sess.subscribers[sub] = struct{}{}
	if h.collector != nil {
		h.collector.ClientConnected()
	}

	data, err := json.Marshal(h.stateMessageLocked(sess, false))
	if err != nil {
		h.logger.Printf("failed to marshal initial state for %s: %v", runID, err)
		return sub, nil, true
	}
	return sub, data, true
}

// Unsubscribe detaches a connection from a run.
func (h *Hub) Unsubscribe(runID string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.sessions[runID]
	if !ok {
		return
	}
	if _, attached := sess.subscribers[sub]; !attached {
		return
	}
	delete(sess.subscribers, sub)
	if h.collector != nil {
		h.collector.ClientDisconnected()
	}
}

// Apply validates nothing itself; it routes an already-staged command to the
// session's active phase controller. The returned reason is one of the
// intake reject constants when ok is false.
func (h *Hub) Apply(runID string, cmd intake.Command) (bool, string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[runID]
	if !ok {
		return false, intake.RejectUnknownRun
	}
	if sess.machine.Complete() {
		return false, intake.RejectRunComplete
	}

	switch cmd.Kind {
	case intake.KindSchedule, intake.KindBatch:
		return h.applyScheduleLocked(sess, cmd)
	case intake.KindTriage:
		return h.applyTriageLocked(sess, cmd)
	case intake.KindCountermeasure:
		if sess.machine.Current() != phase.KindAdaptive {
			return false, intake.RejectPhaseLocked
		}
		if !sess.machine.Adaptive().ApplyCountermeasure(cmd.Countermeasure) {
			return false, intake.RejectRateLimited
		}
		return true, ""
	case intake.KindAdvancePhase:
		h.advancePhaseLocked(sess)
		return true, ""
	}
	return false, intake.RejectInvalidAction
}

func (h *Hub) applyScheduleLocked(sess *session, cmd intake.Command) (bool, string) {
	var schedule func(string, string, state.ActionType, int, state.ReplyTone) bool
	var batch func([]string, string, state.ActionType, int, state.TimingPattern, state.ReplyTone) int

	switch sess.machine.Current() {
	case phase.KindEngagement:
		schedule = sess.machine.Engagement().Schedule
		batch = sess.machine.Engagement().ScheduleBatch
	case phase.KindAdaptive:
		schedule = sess.machine.Adaptive().Schedule
		batch = sess.machine.Adaptive().ScheduleBatch
	default:
		return false, intake.RejectPhaseLocked
	}

	if cmd.Kind == intake.KindBatch {
		if batch(cmd.BatchAccounts, cmd.TweetID, cmd.Action, cmd.TargetMinute, cmd.BatchPattern, cmd.Tone) == 0 {
			return false, intake.RejectRateLimited
		}
		return true, ""
	}
	if !schedule(cmd.AccountID, cmd.TweetID, cmd.Action, cmd.TargetMinute, cmd.Tone) {
		return false, intake.RejectRateLimited
	}
	return true, ""
}

func (h *Hub) applyTriageLocked(sess *session, cmd intake.Command) (bool, string) {
	if sess.machine.Current() != phase.KindTriage {
		return false, intake.RejectPhaseLocked
	}
	triage := sess.machine.Triage()
	ok := false
	switch cmd.TriageOp {
	case proto.TriageOpOpen:
		ok = triage.Open()
	case proto.TriageOpEdit:
		ok = triage.EditField(cmd.Field)
	case proto.TriageOpPersona:
		ok = triage.TogglePersona(cmd.Persona)
	case proto.TriageOpRisk:
		ok = triage.SetRiskClass(cmd.Risk)
	case proto.TriageOpReveal:
		_, ok = triage.RevealFlag(cmd.FlagIndex)
	case proto.TriageOpDecide:
		ok = triage.Decide(cmd.Outcome)
	case proto.TriageOpSkip:
		ok = triage.Skip()
	default:
		return false, intake.RejectInvalidAction
	}
	if !ok {
		return false, intake.RejectBudget
	}
	return true, ""
}

func (h *Hub) advancePhaseLocked(sess *session) {
	if sess.machine.AdvancePhase() == phase.KindComplete {
		h.finalizeLocked(sess)
	}
}

// finalizeLocked assembles the exported snapshot once, attaching adaptive
// outcomes, derived scores, and chapter summaries.
func (h *Hub) finalizeLocked(sess *session) {
	snapshot := sess.run.Snapshot(sess.id)
	adaptive := sess.machine.Adaptive()
	snapshot.Baseline = adaptive.Baseline()
	snapshot.ReactionLatency = adaptive.ReactionLatency()
	snapshot.Countermeasures = len(adaptive.Applied())
	snapshot.Scores = scoring.Compute(&snapshot)
	snapshot.Summaries = scoring.Summaries(&snapshot)
	sess.final = &snapshot

	lifecycle.RunCompleted(context.Background(), sess.run.Publisher(), snapshot.Minutes,
		logging.EntityRef{ID: sess.id, Kind: logging.EntityKindRun},
		lifecycle.RunCompletedPayload{
			Minutes:                   snapshot.Minutes,
			Actions:                   len(snapshot.Executed),
			PatternRealism:            snapshot.Scores.PatternRealism,
			RiskDiscipline:            snapshot.Scores.RiskDiscipline,
			StrategicSensitivity:      snapshot.Scores.StrategicSensitivity,
			OperationalPrioritization: snapshot.Scores.OperationalPrioritization,
			AutonomySignals:           snapshot.Scores.AutonomySignals,
		})
}

// Snapshot returns the exported aggregate for a run. Before completion it
// assembles a live snapshot with zero scores.
func (h *Hub) Snapshot(runID string) (state.RunSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sess, ok := h.sessions[runID]
	if !ok {
		return state.RunSnapshot{}, false
	}
	if sess.final != nil {
		return *sess.final, true
	}
	return sess.run.Snapshot(sess.id), true
}

// SessionDiagnostics is one row of the diagnostics endpoint.
type SessionDiagnostics struct {
	RunID       string  `json:"runId"`
	Phase       string  `json:"phase"`
	Minutes     float64 `json:"minutes"`
	Meter       float64 `json:"meter"`
	Executed    int     `json:"executed"`
	Pending     int     `json:"pending"`
	Subscribers int     `json:"subscribers"`
	CreatedAt   int64   `json:"createdAt"`
}

// DiagnosticsSnapshot summarizes every live session.
func (h *Hub) DiagnosticsSnapshot() []SessionDiagnostics {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]SessionDiagnostics, 0, len(h.sessions))
	for _, sess := range h.sessions {
		out = append(out, SessionDiagnostics{
			RunID:       sess.id,
			Phase:       string(sess.machine.Current()),
			Minutes:     sess.run.Minutes(),
			Meter:       sess.run.Meter(),
			Executed:    sess.run.ExecutedCount(),
			Pending:     sess.run.PendingCount(),
			Subscribers: len(sess.subscribers),
			CreatedAt:   sess.createdAt.UnixMilli(),
		})
	}
	return out
}

// TickRate reports the configured loop frequency.
func (h *Hub) TickRate() int { return h.cfg.TickRate }

// StartedAt reports when the hub was constructed.
func (h *Hub) StartedAt() time.Time { return h.startedAt }

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			h.tick(now)
		}
	}
}

func (h *Hub) tick(now time.Time) {
	h.mu.Lock()
	type outgoing struct {
		subs []*Subscriber
		data []byte
	}
	var broadcasts []outgoing

	for _, sess := range h.sessions {
		deltaMs := float64(now.Sub(sess.lastTick).Milliseconds())
		sess.lastTick = now
		if sess.machine.Complete() || deltaMs <= 0 {
			continue
		}

		start := time.Now()
		sess.machine.Tick(deltaMs)
		if h.collector != nil {
			h.collector.ObserveTick(time.Since(start))
			h.collector.SetMeter(sess.id, sess.run.Meter())
			for _, action := range sess.run.ExecutedSince(sess.broadcastFrom) {
				h.collector.CountAction(string(action.Type))
			}
		}

		if len(sess.subscribers) == 0 {
			sess.broadcastFrom = sess.run.ExecutedCount()
			continue
		}
		data, err := json.Marshal(h.stateMessageLocked(sess, true))
		if err != nil {
			h.logger.Printf("failed to marshal state for %s: %v", sess.id, err)
			continue
		}
		subs := make([]*Subscriber, 0, len(sess.subscribers))
		for sub := range sess.subscribers {
			subs = append(subs, sub)
		}
		broadcasts = append(broadcasts, outgoing{subs: subs, data: data})
	}
	h.mu.Unlock()

	for _, b := range broadcasts {
		for _, sub := range b.subs {
			if err := sub.WriteMessage(websocket.TextMessage, b.data); err != nil {
				sub.conn.Close()
			}
		}
	}
}

// stateMessageLocked builds the periodic broadcast. When advance is true the
// recent-action and notice cursors move forward.
func (h *Hub) stateMessageLocked(sess *session, advance bool) proto.StateMessage {
	recent := sess.run.ExecutedSince(sess.broadcastFrom)
	if len(recent) > recentBroadcast {
		recent = recent[len(recent)-recentBroadcast:]
	}
	// The notice cursor counts against the run's lifetime total, not the
	// ring's current length, so advisories keep flowing after the ring
	// starts rotating old entries out.
	notices := sess.run.Notices()
	noticeTotal := sess.run.NoticesTotal()
	if fresh := noticeTotal - sess.noticeFrom; fresh <= 0 {
		notices = nil
	} else if fresh < len(notices) {
		notices = notices[len(notices)-fresh:]
	}
	if len(notices) > noticesBroadcast {
		notices = notices[len(notices)-noticesBroadcast:]
	}
	if advance {
		sess.broadcastFrom = sess.run.ExecutedCount()
		sess.noticeFrom = noticeTotal
	}
	var analytics *state.AnalyticsSnapshot
	if sess.machine.Current() == phase.KindAdaptive {
		snap := sess.machine.Adaptive().Analytics()
		analytics = &snap
	}
	return proto.StateMessage{
		Ver:        proto.Version,
		Type:       proto.TypeState,
		RunID:      sess.id,
		Phase:      string(sess.machine.Current()),
		Minutes:    sess.run.Minutes(),
		Meter:      sess.run.Meter(),
		Pending:    sess.run.PendingCount(),
		Executed:   sess.run.ExecutedCount(),
		Recent:     recent,
		Notices:    notices,
		Analytics:  analytics,
		ServerTime: time.Now().UnixMilli(),
	}
}
