// Package gen produces seeded synthetic populations: the fleet of accounts
// and the batch of content items a run operates on. Generation is fully
// deterministic for a given seed; the engine consumes the output and never
// calls back in.
package gen

import (
	"fmt"
	"math/rand"

	"fleetsim/server/internal/sim"
	"fleetsim/server/internal/state"
)

// Config sizes the generated population.
type Config struct {
	Accounts int
	Tweets   int
}

// DefaultConfig matches a standard assessment run.
func DefaultConfig() Config {
	return Config{Accounts: 12, Tweets: 8}
}

func (c Config) normalized() Config {
	if c.Accounts <= 0 {
		c.Accounts = DefaultConfig().Accounts
	}
	if c.Tweets <= 0 {
		c.Tweets = DefaultConfig().Tweets
	}
	return c
}

var handleAdjectives = []string{
	"quiet", "bold", "late", "spare", "amber", "lunar", "wired", "plain",
	"salty", "vivid", "dusty", "fresh",
}

var handleNouns = []string{
	"marmot", "signal", "ledger", "orbit", "harbor", "finch", "static",
	"meadow", "cinder", "drift", "prism", "branch",
}

var flagTexts = map[state.FlagSeverity][]string{
	state.FlagSevere: {
		"previous suspension for coordinated activity",
		"linked to a purged network last quarter",
	},
	state.FlagModerate: {
		"engagement pattern flagged by heuristics once",
		"rapid follower growth from a single region",
	},
	state.FlagMild: {
		"long dormancy before reactivation",
		"profile details changed recently",
	},
}

// Accounts generates the fleet. Risk classes follow a fixed split (quarter
// frontline, quarter background, rest mid); hidden ban risk correlates with
// the severity of the account's latent history flags.
func Accounts(seed string, cfg Config) []*state.Account {
	cfg = cfg.normalized()
	rng := sim.NewDeterministicRNG(seed, "gen.accounts")
	accounts := make([]*state.Account, 0, cfg.Accounts)
	for i := 0; i < cfg.Accounts; i++ {
		class := state.RiskMid
		switch {
		case i%4 == 0:
			class = state.RiskFrontline
		case i%4 == 3:
			class = state.RiskBackground
		}
		account := &state.Account{
			ID:        fmt.Sprintf("acct-%02d", i+1),
			Handle:    handle(rng, i),
			AgeDays:   30 + rng.Intn(1400),
			Followers: followerCount(rng, class),
			RiskClass: class,
			Status:    state.StatusActive,
			Personas:  personas(rng),
		}
		account.HistoryFlags = historyFlags(rng)
		account.HiddenBanRisk = banRisk(rng, account.HistoryFlags)
		accounts = append(accounts, account)
	}
	return accounts
}

func handle(rng *rand.Rand, i int) string {
	adj := handleAdjectives[rng.Intn(len(handleAdjectives))]
	noun := handleNouns[rng.Intn(len(handleNouns))]
	return fmt.Sprintf("%s_%s_%d", adj, noun, 10+i)
}

func followerCount(rng *rand.Rand, class state.RiskClass) int {
	switch class {
	case state.RiskFrontline:
		return 5000 + rng.Intn(45000)
	case state.RiskBackground:
		return 20 + rng.Intn(480)
	default:
		return 500 + rng.Intn(4500)
	}
}

func personas(rng *rand.Rand) map[state.PersonaTag]bool {
	tags := []state.PersonaTag{
		state.PersonaNormie, state.PersonaSpecialist, state.PersonaBuilder,
		state.PersonaLurker, state.PersonaMemer,
	}
	out := make(map[state.PersonaTag]bool, 2)
	out[tags[rng.Intn(len(tags))]] = true
	if rng.Float64() < 0.4 {
		out[tags[rng.Intn(len(tags))]] = true
	}
	return out
}

func historyFlags(rng *rand.Rand) []state.HistoryFlag {
	n := rng.Intn(4)
	flags := make([]state.HistoryFlag, 0, n)
	for i := 0; i < n; i++ {
		severity := state.FlagMild
		switch roll := rng.Float64(); {
		case roll < 0.2:
			severity = state.FlagSevere
		case roll < 0.55:
			severity = state.FlagModerate
		}
		texts := flagTexts[severity]
		flags = append(flags, state.HistoryFlag{
			Text:     texts[rng.Intn(len(texts))],
			Severity: severity,
		})
	}
	return flags
}

func banRisk(rng *rand.Rand, flags []state.HistoryFlag) float64 {
	risk := rng.Float64() * 0.25
	for _, flag := range flags {
		switch flag.Severity {
		case state.FlagSevere:
			risk += 0.25
		case state.FlagModerate:
			risk += 0.12
		default:
			risk += 0.05
		}
	}
	if risk > 1 {
		risk = 1
	}
	return risk
}

var tweetAuthors = []string{
	"chainpulse", "blockbeat_daily", "deftalks", "nodewatcher",
	"protocol_hq", "mika_onchain",
}

// Tweets generates the content batch. Categories and objectives rotate so
// every run sees the full mix; base reach and depth follow the author
// category.
func Tweets(seed string, cfg Config) []*state.Tweet {
	cfg = cfg.normalized()
	rng := sim.NewDeterministicRNG(seed, "gen.tweets")
	categories := []state.AuthorCategory{
		state.AuthorProtocol, state.AuthorInfluencer, state.AuthorNews,
		state.AuthorCommunity,
	}
	objectives := []state.Objective{
		state.ObjectiveAmplify, state.ObjectiveCounter, state.ObjectiveSeed,
	}
	tweets := make([]*state.Tweet, 0, cfg.Tweets)
	for i := 0; i < cfg.Tweets; i++ {
		category := categories[i%len(categories)]
		tweet := &state.Tweet{
			ID:        fmt.Sprintf("tweet-%02d", i+1),
			Author:    tweetAuthors[rng.Intn(len(tweetAuthors))],
			Category:  category,
			Objective: objectives[i%len(objectives)],
			BaseReach: baseReach(rng, category),
			BaseDepth: 0.5 + rng.Float64()*1.5,
		}
		tweet.Metrics.Impressions = tweet.BaseReach * (0.1 + rng.Float64()*0.2)
		tweets = append(tweets, tweet)
	}
	return tweets
}

func baseReach(rng *rand.Rand, category state.AuthorCategory) float64 {
	switch category {
	case state.AuthorProtocol:
		return 400 + rng.Float64()*600
	case state.AuthorInfluencer:
		return 800 + rng.Float64()*1200
	case state.AuthorNews:
		return 300 + rng.Float64()*500
	default:
		return 50 + rng.Float64()*250
	}
}
