package state

import "testing"

func TestApplyLowerCapOnlyLowers(t *testing.T) {
	pacing := DefaultPacing()

	next := pacing.Apply(Countermeasure{Kind: CounterLowerCap, Cap: 6})
	if next.HourlyCap != 6 {
		t.Fatalf("expected cap lowered to 6, got %d", next.HourlyCap)
	}
	unchanged := next.Apply(Countermeasure{Kind: CounterLowerCap, Cap: 20})
	if unchanged.HourlyCap != 6 {
		t.Fatalf("expected a raise attempt to be ignored, got %d", unchanged.HourlyCap)
	}
	invalid := next.Apply(Countermeasure{Kind: CounterLowerCap, Cap: 0})
	if invalid.HourlyCap != 6 {
		t.Fatalf("expected a zero cap to be ignored, got %d", invalid.HourlyCap)
	}
}

func TestApplyWidenGapOnlyWidens(t *testing.T) {
	pacing := DefaultPacing()

	next := pacing.Apply(Countermeasure{Kind: CounterWidenGap, GapMinutes: 5})
	if next.MinGapMinutes != 5 {
		t.Fatalf("expected gap widened to 5, got %d", next.MinGapMinutes)
	}
	unchanged := next.Apply(Countermeasure{Kind: CounterWidenGap, GapMinutes: 2})
	if unchanged.MinGapMinutes != 5 {
		t.Fatalf("expected a narrower gap to be ignored, got %d", unchanged.MinGapMinutes)
	}
}

func TestApplyShiftMixReplacesShares(t *testing.T) {
	pacing := DefaultPacing()
	mix := map[ActionType]float64{ActionLike: 0.7, ActionBrowse: 0.3}

	next := pacing.Apply(Countermeasure{Kind: CounterShiftMix, Mix: mix})
	if next.Mix[ActionLike] != 0.7 || next.Mix[ActionBrowse] != 0.3 {
		t.Fatalf("expected mix replaced, got %+v", next.Mix)
	}
	// The applied mix is a copy, not an alias.
	mix[ActionLike] = 0
	if next.Mix[ActionLike] != 0.7 {
		t.Fatalf("expected mix detached from the input map")
	}

	empty := next.Apply(Countermeasure{Kind: CounterShiftMix})
	if empty.Mix[ActionLike] != 0.7 {
		t.Fatalf("expected an empty mix to leave the current one, got %+v", empty.Mix)
	}
}

func TestApplyInjectBrowsingIsSticky(t *testing.T) {
	pacing := DefaultPacing().Apply(Countermeasure{Kind: CounterInjectBrowsing})
	if !pacing.InjectBrowsing {
		t.Fatalf("expected browsing injection enabled")
	}
}

func TestApplyLeavesReceiverUntouched(t *testing.T) {
	pacing := DefaultPacing()
	pacing.Apply(Countermeasure{Kind: CounterLowerCap, Cap: 1})
	if pacing.HourlyCap != DefaultPacing().HourlyCap {
		t.Fatalf("expected the receiver unchanged, got %d", pacing.HourlyCap)
	}
}

func TestTimingPatternOffsets(t *testing.T) {
	if PatternBurst.Offset(0) != 0 || PatternBurst.Offset(2) != 0 || PatternBurst.Offset(3) != 1 {
		t.Fatalf("unexpected burst offsets")
	}
	if PatternStaggered.Offset(2) != 6 {
		t.Fatalf("expected staggered offset 6, got %d", PatternStaggered.Offset(2))
	}
	if PatternDrip.Offset(2) != 24 {
		t.Fatalf("expected drip offset 24, got %d", PatternDrip.Offset(2))
	}
}

func TestAccountCloneDetaches(t *testing.T) {
	account := Account{
		ID:        "acct-x",
		Personas:  map[PersonaTag]bool{PersonaNormie: true},
		RiskClass: RiskMid,
		HistoryFlags: []HistoryFlag{
			{Text: "dormant for a year", Severity: FlagMild},
		},
	}
	cloned := account.Clone()
	cloned.Personas[PersonaMemer] = true
	cloned.HistoryFlags[0].Severity = FlagSevere

	if account.Personas[PersonaMemer] {
		t.Fatalf("expected persona map detached")
	}
	if account.HistoryFlags[0].Severity != FlagMild {
		t.Fatalf("expected history flags detached")
	}
}
