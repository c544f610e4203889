// Package ws orchestrates one websocket session per operator connection.
package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"fleetsim/server/internal/hub"
	"fleetsim/server/internal/net/intake"
	"fleetsim/server/internal/net/proto"
)

// Handler upgrades connections and runs their read loops against the hub.
type Handler struct {
	hub      *hub.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs a websocket session handler for the given hub.
func NewHandler(h *hub.Hub, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		hub:    h,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the request and hands the connection to the session
// loop. The run id rides in the query string.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	runID := r.URL.Query().Get("id")
	if runID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", runID, err)
		return
	}

	sub, initial, ok := h.hub.Subscribe(runID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown run")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	if initial != nil {
		if err := sub.WriteMessage(websocket.TextMessage, initial); err != nil {
			h.disconnect(runID, sub, conn)
			return
		}
	}

	h.readLoop(runID, sub, conn)
}

func (h *Handler) readLoop(runID string, sub *hub.Subscriber, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.disconnect(runID, sub, conn)
			return
		}

		var msg proto.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message on %s: %v", runID, err)
			continue
		}

		writeJSON := func(v any) bool {
			data, err := json.Marshal(v)
			if err != nil {
				h.logger.Printf("failed to marshal response for %s: %v", runID, err)
				return true
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				h.disconnect(runID, sub, conn)
				return false
			}
			return true
		}

		if msg.Type == proto.TypeHeartbeat {
			now := time.Now()
			ack := proto.HeartbeatAck{
				Ver:        proto.Version,
				Type:       proto.TypeHeartbeat,
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
			}
			if msg.SentAt > 0 {
				ack.RTTMillis = now.UnixMilli() - msg.SentAt
			}
			if !writeJSON(ack) {
				return
			}
			continue
		}

		seq := uint64(0)
		if msg.Seq != nil {
			seq = *msg.Seq
		}

		command, ok, reason := intake.StageClientCommand(msg)
		if ok {
			ok, reason = h.hub.Apply(runID, command)
		}

		if seq == 0 {
			if !ok {
				h.logger.Printf("rejected %s command on %s: %s", msg.Type, runID, reason)
			}
			continue
		}
		if ok {
			if !writeJSON(proto.CommandAck{Ver: proto.Version, Type: proto.TypeCommandAck, Seq: seq}) {
				return
			}
			continue
		}
		if !writeJSON(proto.CommandReject{Ver: proto.Version, Type: proto.TypeCommandReject, Seq: seq, Reason: reason}) {
			return
		}
	}
}

func (h *Handler) disconnect(runID string, sub *hub.Subscriber, conn *websocket.Conn) {
	conn.Close()
	h.hub.Unsubscribe(runID, sub)
}
