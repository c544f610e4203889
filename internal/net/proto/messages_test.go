package proto

import (
	"encoding/json"
	"strings"
	"testing"

	"fleetsim/server/internal/state"
)

func TestViewAccountRedactsHiddenFields(t *testing.T) {
	account := &state.Account{
		ID:            "acct-01",
		Handle:        "quiet_marmot",
		AgeDays:       200,
		Followers:     4000,
		RiskClass:     state.RiskFrontline,
		Status:        state.StatusActive,
		HiddenBanRisk: 0.73,
		Personas:      map[state.PersonaTag]bool{state.PersonaMemer: true, state.PersonaNormie: true},
		HistoryFlags: []state.HistoryFlag{
			{Text: "previous suspension for coordinated activity", Severity: state.FlagSevere},
			{Text: "profile details changed recently", Severity: state.FlagMild},
		},
	}

	view := ViewAccount(account)
	if view.FlagCount != 2 {
		t.Fatalf("expected flag count 2, got %d", view.FlagCount)
	}

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	payload := string(data)
	if strings.Contains(payload, "hiddenBanRisk") || strings.Contains(payload, "0.73") {
		t.Fatalf("expected hidden ban risk absent from the wire payload: %s", payload)
	}
	if strings.Contains(payload, "suspension") {
		t.Fatalf("expected flag texts absent from the wire payload: %s", payload)
	}
}

func TestViewAccountSortsPersonas(t *testing.T) {
	account := &state.Account{
		ID: "acct-02",
		Personas: map[state.PersonaTag]bool{
			state.PersonaSpecialist: true,
			state.PersonaBuilder:    true,
			state.PersonaLurker:     false,
		},
	}
	view := ViewAccount(account)
	if len(view.Personas) != 2 {
		t.Fatalf("expected unset tags excluded, got %v", view.Personas)
	}
	if view.Personas[0] != "builder" || view.Personas[1] != "specialist" {
		t.Fatalf("expected sorted personas, got %v", view.Personas)
	}
}
