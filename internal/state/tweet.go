package state

// AuthorCategory buckets synthetic content by who produced it.
type AuthorCategory string

const (
	AuthorProtocol   AuthorCategory = "protocol"
	AuthorInfluencer AuthorCategory = "influencer"
	AuthorNews       AuthorCategory = "news"
	AuthorCommunity  AuthorCategory = "community"
)

// Objective tags what the operator is supposed to do with a tweet.
type Objective string

const (
	ObjectiveAmplify Objective = "amplify"
	ObjectiveCounter Objective = "counter"
	ObjectiveSeed    Objective = "seed"
)

// TweetMetrics are the live, continuously mutated numbers on a tweet.
// Impressions approximate audience size (reach), Depth approximates
// engagement quality.
type TweetMetrics struct {
	Impressions float64 `json:"impressions"`
	Depth       float64 `json:"depth"`
	Likes       int     `json:"likes"`
	Retweets    int     `json:"retweets"`
	Replies     int     `json:"replies"`
	Quotes      int     `json:"quotes"`
	AgeMinutes  float64 `json:"ageMinutes"`
}

// Tweet is a unit of synthetic content. Identity is immutable; metrics grow
// organically over simulated time and jump when acted upon.
type Tweet struct {
	ID        string         `json:"id"`
	Author    string         `json:"author"`
	Category  AuthorCategory `json:"category"`
	Objective Objective      `json:"objective"`
	BaseReach float64        `json:"baseReach"`
	BaseDepth float64        `json:"baseDepth"`
	Metrics   TweetMetrics   `json:"metrics"`
}

// Clone copies the tweet by value.
func (t *Tweet) Clone() Tweet {
	return *t
}

// BumpCounter increments the per-type engagement counter for an executed
// action. Browsing leaves the counters untouched.
func (m *TweetMetrics) BumpCounter(action ActionType) {
	switch action {
	case ActionLike:
		m.Likes++
	case ActionRetweet:
		m.Retweets++
	case ActionReply:
		m.Replies++
	case ActionQuote:
		m.Quotes++
	}
}
