package state

// Pacing holds the operator-adjustable engagement constraints. Countermeasures
// are the only way these change mid-run.
type Pacing struct {
	// HourlyCap is the maximum number of queued actions per account within
	// any trailing 60-minute window.
	HourlyCap int `json:"hourlyCap"`
	// MinGapMinutes is the minimum spacing between two queued actions on the
	// same account.
	MinGapMinutes int `json:"minGapMinutes"`
	// Mix is the desired share per action type. Informational for batch
	// planning; the scheduler does not enforce it.
	Mix map[ActionType]float64 `json:"mix,omitempty"`
	// InjectBrowsing asks batch scheduling to interleave no-op browse
	// actions as pacing noise.
	InjectBrowsing bool `json:"injectBrowsing"`
}

// DefaultPacing returns the constraints every run starts with.
func DefaultPacing() Pacing {
	return Pacing{HourlyCap: 10, MinGapMinutes: 0}
}

// Clone deep-copies the pacing record.
func (p Pacing) Clone() Pacing {
	cloned := p
	if p.Mix != nil {
		cloned.Mix = make(map[ActionType]float64, len(p.Mix))
		for action, share := range p.Mix {
			cloned.Mix[action] = share
		}
	}
	return cloned
}

// CountermeasureKind names one of the closed set of pacing adjustments.
type CountermeasureKind string

const (
	CounterLowerCap       CountermeasureKind = "lower_cap"
	CounterWidenGap       CountermeasureKind = "widen_gap"
	CounterShiftMix       CountermeasureKind = "shift_mix"
	CounterInjectBrowsing CountermeasureKind = "inject_browsing"
)

// Countermeasure is a typed pacing adjustment. Only the field matching Kind
// is read; the rest are ignored.
type Countermeasure struct {
	Kind       CountermeasureKind     `json:"kind"`
	Cap        int                    `json:"cap,omitempty"`
	GapMinutes int                    `json:"gapMinutes,omitempty"`
	Mix        map[ActionType]float64 `json:"mix,omitempty"`
}

// Apply reduces a countermeasure onto the current pacing and returns the
// adjusted copy. Invalid values leave the corresponding field unchanged.
func (p Pacing) Apply(c Countermeasure) Pacing {
	next := p.Clone()
	switch c.Kind {
	case CounterLowerCap:
		if c.Cap > 0 && c.Cap < next.HourlyCap {
			next.HourlyCap = c.Cap
		}
	case CounterWidenGap:
		if c.GapMinutes > next.MinGapMinutes {
			next.MinGapMinutes = c.GapMinutes
		}
	case CounterShiftMix:
		if len(c.Mix) > 0 {
			next.Mix = make(map[ActionType]float64, len(c.Mix))
			for action, share := range c.Mix {
				next.Mix[action] = share
			}
		}
	case CounterInjectBrowsing:
		next.InjectBrowsing = true
	}
	return next
}
