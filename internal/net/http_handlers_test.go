package net

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fleetsim/server/internal/hub"
	"fleetsim/server/internal/net/proto"
	"fleetsim/server/internal/state"
)

func newTestHandler(t *testing.T) (nethttp.Handler, *hub.Hub) {
	t.Helper()
	cfg := hub.DefaultConfig()
	cfg.Seed = "http-test"
	h := hub.NewHub(cfg, nil, nil)
	return NewHTTPHandler(h, HTTPHandlerConfig{}), h
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestJoinRequiresPost(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/join", nil))
	if rec.Code != nethttp.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET join, got %d", rec.Code)
	}
}

func TestJoinCreatesRunAndRedactsAccounts(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodPost, "/join", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp proto.JoinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode join response: %v", err)
	}
	if resp.RunID == "" || len(resp.Accounts) == 0 {
		t.Fatalf("unexpected join response: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "hiddenBanRisk") {
		t.Fatalf("expected hidden ban risk absent from the join payload")
	}
	if strings.Contains(rec.Body.String(), "historyFlags") {
		t.Fatalf("expected history flag texts absent from the join payload")
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	handler, h := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/snapshot", nil))
	if rec.Code != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 without an id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/snapshot?id=missing", nil))
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("expected 404 for an unknown run, got %d", rec.Code)
	}

	join := h.Join()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/snapshot?id="+join.RunID, nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200 for a live run, got %d", rec.Code)
	}
	var snapshot state.RunSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.RunID != join.RunID || snapshot.ActiveRuleSet != state.RuleSetBaseline {
		t.Fatalf("unexpected snapshot: %s / %s", snapshot.RunID, snapshot.ActiveRuleSet)
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	handler, h := newTestHandler(t)
	h.Join()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/diagnostics", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload struct {
		Status   string                   `json:"status"`
		TickRate int                      `json:"tickRate"`
		Sessions []hub.SessionDiagnostics `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	if payload.Status != "ok" || payload.TickRate <= 0 || len(payload.Sessions) != 1 {
		t.Fatalf("unexpected diagnostics: %+v", payload)
	}
}
