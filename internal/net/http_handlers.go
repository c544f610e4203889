// Package net exposes the HTTP surface of the simulation host: run
// creation, the websocket feed, health, diagnostics, metrics, and snapshot
// export.
package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"fleetsim/server/internal/hub"
	"fleetsim/server/internal/metrics"
	"fleetsim/server/internal/net/ws"
)

// HTTPHandlerConfig wires the handler's collaborators.
type HTTPHandlerConfig struct {
	Logger    *log.Logger
	Collector *metrics.Collector
}

// NewHTTPHandler builds the full route table around a hub.
func NewHTTPHandler(h *hub.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/join", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, h.Join())
	})

	mux.HandleFunc("/snapshot", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		runID := r.URL.Query().Get("id")
		if runID == "" {
			httpError(w, "missing id", nethttp.StatusBadRequest)
			return
		}
		snapshot, ok := h.Snapshot(runID)
		if !ok {
			httpError(w, "unknown run", nethttp.StatusNotFound)
			return
		}
		writeJSON(w, snapshot)
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string                   `json:"status"`
			ServerTime int64                    `json:"serverTime"`
			UptimeMs   int64                    `json:"uptimeMs"`
			TickRate   int                      `json:"tickRate"`
			Sessions   []hub.SessionDiagnostics `json:"sessions"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			UptimeMs:   time.Since(h.StartedAt()).Milliseconds(),
			TickRate:   h.TickRate(),
			Sessions:   h.DiagnosticsSnapshot(),
		}
		writeJSON(w, payload)
	})

	mux.Handle("/ws", ws.NewHandler(h, logger))

	if cfg.Collector != nil {
		mux.Handle("/metrics", cfg.Collector.Handler())
		return cfg.Collector.InstrumentHandler(mux)
	}
	return mux
}

func writeJSON(w nethttp.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
