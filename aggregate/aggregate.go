// Package aggregate computes the three paid reporting tools
// (trending_notes, get_follower_graph, zap_analytics) on top of a
// relaySource and the profile cache, plus the standalone BOLT-11 amount
// and timeframe parsers they share.
package aggregate

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/themikemoniker/nostr-intel-mcp/store"
)

// relaySource is the subset of *relaypool.Pool this package depends on.
// Declaring it here rather than depending on the concrete type lets
// tests exercise the ranking and grouping logic against fixtures instead
// of live relay connections.
type relaySource interface {
	FetchRecentNotes(ctx context.Context, since nostr.Timestamp, limit int) ([]*nostr.Event, error)
	FetchReactions(ctx context.Context, eventIDs []string, since *nostr.Timestamp) ([]*nostr.Event, error)
	FetchReposts(ctx context.Context, eventIDs []string, since *nostr.Timestamp) ([]*nostr.Event, error)
	FetchContactList(ctx context.Context, pubkey string) (*nostr.Event, bool, error)
	FetchFollowers(ctx context.Context, pubkey string, limit int) ([]*nostr.Event, error)
	FetchZapReceipts(ctx context.Context, pubkey string, since *nostr.Timestamp) ([]*nostr.Event, error)
}

// profileNamer is the subset of *store.Store this package depends on for
// cache-only name enrichment.
type profileNamer interface {
	GetProfile(ctx context.Context, pubkey string) (*store.CachedProfile, bool, error)
}

// Aggregator computes the paid reporting tools. It holds no per-call
// state and is safe for concurrent use.
type Aggregator struct {
	pool    relaySource
	profile profileNamer
}

// New builds an Aggregator over pool and the profile cache in s.
func New(pool relaySource, s profileNamer) *Aggregator {
	return &Aggregator{pool: pool, profile: s}
}

// displayName resolves a cache-only display name for pubkey, preferring
// display_name over name, and returning "" on a cache miss or error.
// Enrichment never triggers a relay round-trip.
func (a *Aggregator) displayName(ctx context.Context, pubkey string) string {
	p, ok, err := a.profile.GetProfile(ctx, pubkey)
	if err != nil || !ok || p == nil {
		return ""
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// tagValue returns the second element of the first tag in tags whose
// first element equals name, or "" if none matches.
func tagValue(tags nostr.Tags, name string) string {
	for _, t := range tags {
		if len(t) >= 2 && t[0] == name {
			return t[1]
		}
	}
	return ""
}

// eTagValues returns the second element of every "e" tag in tags.
func eTagValues(tags nostr.Tags) []string {
	var ids []string
	for _, t := range tags {
		if len(t) >= 2 && t[0] == "e" {
			ids = append(ids, t[1])
		}
	}
	return ids
}
