package sim

import (
	"reflect"
	"testing"

	"fleetsim/server/internal/state"
)

func TestAdvanceProcessesEachBoundaryInOrder(t *testing.T) {
	run := newTestRun(t)
	actions := []state.ActionType{state.ActionLike, state.ActionRetweet, state.ActionReply, state.ActionQuote, state.ActionBrowse}
	ids := []string{"acct-a", "acct-b", "acct-c"}
	for minute := 1; minute <= 3; minute++ {
		for i, action := range actions {
			tweet := "tweet-1"
			if minute%2 == 0 {
				tweet = "tweet-2"
			}
			if !run.Schedule(ids[(i+minute)%len(ids)], tweet, action, minute, "") {
				t.Fatalf("expected schedule at minute %d to succeed", minute)
			}
		}
	}

	result := run.Advance(3000)
	if result.Processed != 15 {
		t.Fatalf("expected 15 processed across three boundaries, got %d", result.Processed)
	}
	if run.PendingCount() != 0 {
		t.Fatalf("expected empty queue, got %d", run.PendingCount())
	}
	log := run.ExecutedLog()
	for i := 1; i < len(log); i++ {
		if log[i].Minute < log[i-1].Minute {
			t.Fatalf("expected executions ordered by minute, got %d after %d", log[i].Minute, log[i-1].Minute)
		}
	}
}

func TestAdvanceDropsActionsOverPerMinuteCap(t *testing.T) {
	run := newTestRun(t)
	ids := []string{"acct-a", "acct-b"}
	actions := []state.ActionType{state.ActionLike, state.ActionRetweet, state.ActionReply, state.ActionQuote, state.ActionBrowse}
	queued := 0
	for _, id := range ids {
		for _, action := range actions {
			if run.Schedule(id, "tweet-1", action, 1, "") {
				queued++
			}
		}
	}
	if queued != 10 {
		t.Fatalf("expected 10 queued, got %d", queued)
	}

	result := run.Advance(1000)
	if result.Processed != run.Config().PerMinuteCap {
		t.Fatalf("expected %d processed at the cap, got %d", run.Config().PerMinuteCap, result.Processed)
	}
	if run.PendingCount() != 0 {
		t.Fatalf("expected dropped actions to leave the queue, got %d pending", run.PendingCount())
	}
	found := false
	for _, notice := range result.Notices {
		if len(notice) > 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an oversubscription notice")
	}
}

func TestAdvanceSkipsInactiveAccounts(t *testing.T) {
	run := newTestRun(t)
	run.Schedule("acct-a", "tweet-1", state.ActionLike, 1, "")
	account, _ := run.Account("acct-a")
	account.Status = state.StatusBanned

	result := run.Advance(1000)
	if result.Processed != 0 {
		t.Fatalf("expected banned account's action to be dropped, got %d processed", result.Processed)
	}
}

func TestAdvanceNoBoundaryCrossedExecutesNothing(t *testing.T) {
	run := newTestRun(t)
	run.Schedule("acct-a", "tweet-1", state.ActionLike, 1, "")
	result := run.Advance(400)
	if result.Processed != 0 {
		t.Fatalf("expected nothing to execute before minute 1, got %d", result.Processed)
	}
	if run.PendingCount() != 1 {
		t.Fatalf("expected the action to stay queued, got %d", run.PendingCount())
	}
	result = run.Advance(700)
	if result.Processed != 1 {
		t.Fatalf("expected the action to execute after crossing minute 1, got %d", result.Processed)
	}
}

func TestAdvancePanicsOnNegativeDelta(t *testing.T) {
	run := newTestRun(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on negative delta")
		}
	}()
	run.Advance(-1)
}

func TestMeterDecaysAndClampsAtZero(t *testing.T) {
	run := newTestRun(t)
	run.meter = 30
	run.Advance(10_000)
	want := 30 - run.Config().DecayPerMinute*10
	if diff := run.Meter() - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected meter %v after decay, got %v", want, run.Meter())
	}
	run.Advance(200_000)
	if run.Meter() != 0 {
		t.Fatalf("expected meter clamped at zero, got %v", run.Meter())
	}
}

func TestMeterClampBounds(t *testing.T) {
	if got := clampMeter(150); got != 100 {
		t.Fatalf("expected clamp to 100, got %v", got)
	}
	if got := clampMeter(-5); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
	if got := clampMeter(42.5); got != 42.5 {
		t.Fatalf("expected in-range value untouched, got %v", got)
	}
}

func TestCriticalMeterBansOneFrontlinePerBoundary(t *testing.T) {
	accounts := []*state.Account{
		{ID: "front-1", Handle: "front_one", RiskClass: state.RiskFrontline, Status: state.StatusActive},
		{ID: "front-2", Handle: "front_two", RiskClass: state.RiskFrontline, Status: state.StatusActive},
		{ID: "mid-1", Handle: "mid_one", RiskClass: state.RiskMid, Status: state.StatusActive},
	}
	run := NewRun(Config{Seed: "test-seed"}, accounts, testTweets(), nil, nil)
	run.meter = 100

	run.Advance(1000)
	banned := 0
	for _, account := range run.Accounts() {
		if account.Status == state.StatusBanned {
			banned++
			if account.RiskClass != state.RiskFrontline {
				t.Fatalf("expected only frontline bans, got %s", account.RiskClass)
			}
		}
	}
	if banned != 1 {
		t.Fatalf("expected exactly one ban per boundary, got %d", banned)
	}

	run.meter = 100
	run.Advance(1000)
	banned = 0
	for _, account := range run.Accounts() {
		if account.Status == state.StatusBanned {
			banned++
		}
	}
	if banned != 2 {
		t.Fatalf("expected the second boundary to ban the remaining frontline, got %d", banned)
	}
}

func TestElevatedMeterFlagsOneAccount(t *testing.T) {
	run := newTestRun(t)
	run.meter = 70

	run.Advance(1000)
	flagged := 0
	for _, account := range run.Accounts() {
		switch account.Status {
		case state.StatusFlagged:
			flagged++
		case state.StatusBanned:
			t.Fatalf("expected no bans below the critical threshold")
		}
	}
	if flagged != 1 {
		t.Fatalf("expected exactly one flagged account, got %d", flagged)
	}
}

func TestWarnMeterEmitsAdvisoryOnly(t *testing.T) {
	run := newTestRun(t)
	run.meter = 45

	run.Advance(1000)
	for _, account := range run.Accounts() {
		if account.Status != state.StatusActive {
			t.Fatalf("expected no status changes in the warning band, got %s", account.Status)
		}
	}
	if len(run.Notices()) == 0 {
		t.Fatalf("expected a warning advisory notice")
	}
}

func TestOrganicGrowthDiminishesWithAge(t *testing.T) {
	run := newTestRun(t)
	tweet, _ := run.Tweet("tweet-1")

	run.Advance(1000)
	first := tweet.Metrics.Impressions
	run.Advance(200_000)
	base := tweet.Metrics.Impressions
	run.Advance(1000)
	later := tweet.Metrics.Impressions - base

	if later >= first {
		t.Fatalf("expected organic growth per minute to shrink with age: first %v, later %v", first, later)
	}
}

func TestExecutionRaisesTweetMetrics(t *testing.T) {
	run := newTestRun(t)
	run.Schedule("acct-a", "tweet-1", state.ActionRetweet, 1, "")
	run.Advance(1000)

	tweet, _ := run.Tweet("tweet-1")
	if tweet.Metrics.Retweets != 1 {
		t.Fatalf("expected retweet counter 1, got %d", tweet.Metrics.Retweets)
	}
	if tweet.Metrics.Impressions <= 0 || tweet.Metrics.Depth <= 0 {
		t.Fatalf("expected reach and depth gains, got %v / %v", tweet.Metrics.Impressions, tweet.Metrics.Depth)
	}
	if run.Meter() <= 0 {
		t.Fatalf("expected the meter to rise after a retweet, got %v", run.Meter())
	}
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	play := func() ([]state.ExecutedAction, float64) {
		run := NewRun(Config{Seed: "repeat"}, testAccounts(), testTweets(), nil, nil)
		run.Schedule("acct-a", "tweet-1", state.ActionReply, 1, state.ToneSupportive)
		run.Schedule("acct-b", "tweet-1", state.ActionQuote, 2, state.ToneSkeptical)
		run.Schedule("acct-c", "tweet-2", state.ActionLike, 2, "")
		run.Advance(2500)
		run.Schedule("acct-b", "tweet-2", state.ActionRetweet, 4, "")
		run.Advance(2500)
		return run.ExecutedLog(), run.Meter()
	}

	logA, meterA := play()
	logB, meterB := play()
	if !reflect.DeepEqual(logA, logB) {
		t.Fatalf("expected identical executed logs for the same seed")
	}
	if meterA != meterB {
		t.Fatalf("expected identical meters, got %v and %v", meterA, meterB)
	}
}
