package sim

import "strings"

const defaultRunSeed = "assessment"

// Config captures the tunables used when constructing a run.
type Config struct {
	// Seed is the root seed for every deterministic random stream.
	Seed string `json:"seed"`
	// MillisPerMinute converts a caller-supplied real-time delta into
	// simulated minutes.
	MillisPerMinute float64 `json:"millisPerMinute"`
	// PerMinuteCap bounds how many due actions execute at one minute
	// boundary; the overflow is dropped with a notice.
	PerMinuteCap int `json:"perMinuteCap"`
	// DecayPerMinute is the linear detection-meter decay.
	DecayPerMinute float64 `json:"decayPerMinute"`
	// OrganicGrowthRate is the fraction of a tweet's base reach accrued per
	// simulated minute at age zero; growth diminishes with age.
	OrganicGrowthRate float64 `json:"organicGrowthRate"`
	// OrganicHalfLife is the tweet age, in minutes, at which organic growth
	// halves.
	OrganicHalfLife float64 `json:"organicHalfLife"`
	// Detection-meter threshold bands, ascending.
	WarnThreshold     float64 `json:"warnThreshold"`
	ElevatedThreshold float64 `json:"elevatedThreshold"`
	CriticalThreshold float64 `json:"criticalThreshold"`
	// NoticeCapacity bounds the notice ring buffer.
	NoticeCapacity int `json:"noticeCapacity"`
}

// DefaultConfig returns the tuning every run starts from.
func DefaultConfig() Config {
	return Config{
		Seed:              defaultRunSeed,
		MillisPerMinute:   1000,
		PerMinuteCap:      8,
		DecayPerMinute:    0.4,
		OrganicGrowthRate: 0.02,
		OrganicHalfLife:   90,
		WarnThreshold:     40,
		ElevatedThreshold: 65,
		CriticalThreshold: 85,
		NoticeCapacity:    64,
	}
}

// normalized returns a config with defaults applied to zero-valued fields.
func (c Config) normalized() Config {
	defaults := DefaultConfig()
	normalized := c
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = defaults.Seed
	}
	if normalized.MillisPerMinute <= 0 {
		normalized.MillisPerMinute = defaults.MillisPerMinute
	}
	if normalized.PerMinuteCap <= 0 {
		normalized.PerMinuteCap = defaults.PerMinuteCap
	}
	if normalized.DecayPerMinute <= 0 {
		normalized.DecayPerMinute = defaults.DecayPerMinute
	}
	if normalized.OrganicGrowthRate <= 0 {
		normalized.OrganicGrowthRate = defaults.OrganicGrowthRate
	}
	if normalized.OrganicHalfLife <= 0 {
		normalized.OrganicHalfLife = defaults.OrganicHalfLife
	}
	if normalized.WarnThreshold <= 0 {
		normalized.WarnThreshold = defaults.WarnThreshold
	}
	if normalized.ElevatedThreshold <= 0 {
		normalized.ElevatedThreshold = defaults.ElevatedThreshold
	}
	if normalized.CriticalThreshold <= 0 {
		normalized.CriticalThreshold = defaults.CriticalThreshold
	}
	if normalized.NoticeCapacity <= 0 {
		normalized.NoticeCapacity = defaults.NoticeCapacity
	}
	return normalized
}
