// Package pricer computes the sat price of a paid tool call from the
// configured base prices plus the per-call surcharges tied to
// search_events' limit and get_follower_graph's depth.
package pricer

// Config holds the base sat price for each paid tool, as loaded from the
// [pricing] section of config.toml.
type Config struct {
	SearchEventsBase int64
	RelayDiscovery   int64
	TrendingNotes    int64
	GetFollowerGraph int64
	ZapAnalytics     int64
}

// Pricer computes the price, in sats, of a single paid tool invocation.
type Pricer struct {
	cfg Config
}

// New creates a Pricer backed by the given base prices.
func New(cfg Config) *Pricer {
	return &Pricer{cfg: cfg}
}

// SearchEvents returns the price of a search_events call for the given
// limit. Base price, +15 sats for limit>20, a further +25 sats for
// limit>50.
func (p *Pricer) SearchEvents(limit int) int64 {
	price := p.cfg.SearchEventsBase
	if limit > 20 {
		price += 15
	}
	if limit > 50 {
		price += 25
	}
	return price
}

// RelayDiscovery returns the flat price of a relay_discovery call.
func (p *Pricer) RelayDiscovery() int64 {
	return p.cfg.RelayDiscovery
}

// TrendingNotes returns the flat price of a trending_notes call.
func (p *Pricer) TrendingNotes() int64 {
	return p.cfg.TrendingNotes
}

// GetFollowerGraph returns the price of a get_follower_graph call, doubled
// for depth >= 2.
func (p *Pricer) GetFollowerGraph(depth int) int64 {
	if depth >= 2 {
		return p.cfg.GetFollowerGraph * 2
	}
	return p.cfg.GetFollowerGraph
}

// ZapAnalytics returns the flat price of a zap_analytics call.
func (p *Pricer) ZapAnalytics() int64 {
	return p.cfg.ZapAnalytics
}

// Price returns the price of the named tool, used by the L402 challenge
// endpoint which only knows the tool name (no call arguments).
func (p *Pricer) Price(toolName string) (int64, bool) {
	switch toolName {
	case "search_events":
		return p.cfg.SearchEventsBase, true
	case "relay_discovery":
		return p.cfg.RelayDiscovery, true
	case "trending_notes":
		return p.cfg.TrendingNotes, true
	case "get_follower_graph":
		return p.cfg.GetFollowerGraph, true
	case "zap_analytics":
		return p.cfg.ZapAnalytics, true
	default:
		return 0, false
	}
}
