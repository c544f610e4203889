package gen

import (
	"reflect"
	"testing"

	"fleetsim/server/internal/state"
)

func TestAccountsAreDeterministicPerSeed(t *testing.T) {
	first := Accounts("pop-seed", DefaultConfig())
	second := Accounts("pop-seed", DefaultConfig())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical fleets for the same seed")
	}

	other := Accounts("other-seed", DefaultConfig())
	same := true
	for i := range first {
		if first[i].Handle != other[i].Handle || first[i].AgeDays != other[i].AgeDays {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different seeds to produce different fleets")
	}
}

func TestAccountsFollowRiskSplit(t *testing.T) {
	accounts := Accounts("split-seed", Config{Accounts: 12})
	counts := make(map[state.RiskClass]int)
	for _, account := range accounts {
		counts[account.RiskClass]++
		if account.Status != state.StatusActive {
			t.Fatalf("expected every generated account active, got %s", account.Status)
		}
		if account.HiddenBanRisk < 0 || account.HiddenBanRisk > 1 {
			t.Fatalf("expected hidden ban risk in [0,1], got %v", account.HiddenBanRisk)
		}
		if len(account.Personas) == 0 {
			t.Fatalf("expected at least one persona tag on %s", account.ID)
		}
	}
	if counts[state.RiskFrontline] != 3 || counts[state.RiskBackground] != 3 || counts[state.RiskMid] != 6 {
		t.Fatalf("unexpected risk split: %+v", counts)
	}
}

func TestAccountsRiskCorrelatesWithFlags(t *testing.T) {
	accounts := Accounts("risk-seed", Config{Accounts: 40})
	for _, account := range accounts {
		severe := 0
		for _, flag := range account.HistoryFlags {
			if flag.Severity == state.FlagSevere {
				severe++
			}
		}
		// A severe flag alone contributes more than the random base ever can.
		if severe > 0 && account.HiddenBanRisk < 0.25 {
			t.Fatalf("expected severe history to push risk past the base, got %v for %s",
				account.HiddenBanRisk, account.ID)
		}
	}
}

func TestTweetsRotateCategoriesAndObjectives(t *testing.T) {
	tweets := Tweets("tweet-seed", Config{Tweets: 8})
	if len(tweets) != 8 {
		t.Fatalf("expected 8 tweets, got %d", len(tweets))
	}
	categories := make(map[state.AuthorCategory]bool)
	objectives := make(map[state.Objective]bool)
	for _, tweet := range tweets {
		categories[tweet.Category] = true
		objectives[tweet.Objective] = true
		if tweet.BaseReach <= 0 || tweet.BaseDepth <= 0 {
			t.Fatalf("expected positive base metrics on %s", tweet.ID)
		}
		if tweet.Metrics.Impressions <= 0 {
			t.Fatalf("expected seeded initial impressions on %s", tweet.ID)
		}
	}
	if len(categories) != 4 {
		t.Fatalf("expected all four author categories, got %d", len(categories))
	}
	if len(objectives) != 3 {
		t.Fatalf("expected all three objectives, got %d", len(objectives))
	}
}

func TestConfigNormalizesNonPositiveSizes(t *testing.T) {
	accounts := Accounts("norm-seed", Config{})
	if len(accounts) != DefaultConfig().Accounts {
		t.Fatalf("expected default fleet size, got %d", len(accounts))
	}
	tweets := Tweets("norm-seed", Config{Tweets: -1})
	if len(tweets) != DefaultConfig().Tweets {
		t.Fatalf("expected default tweet count, got %d", len(tweets))
	}
}
