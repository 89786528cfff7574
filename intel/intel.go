// Package intel implements the server's free (unpaywalled) Nostr lookup
// tools: profile resolution, relay liveness checks, name search, and
// bech32 entity decoding. It also implements the paid search_events and
// relay_discovery lookups; the paywall gate for those is applied by the
// toolrouter package before they are called.
package intel

import (
	"github.com/themikemoniker/nostr-intel-mcp/httpfetch"
	"github.com/themikemoniker/nostr-intel-mcp/relaypool"
	"github.com/themikemoniker/nostr-intel-mcp/store"
)

// Tools bundles the dependencies the free tool handlers need: an outbound
// HTTP client for NIP-05/NIP-11/Primal lookups, the profile/relay cache,
// and the relay pool for metadata fetches that miss the cache.
type Tools struct {
	http  *httpfetch.Client
	store *store.Store
	pool  *relaypool.Pool

	// primalURL is the Primal cache API endpoint used by SearchProfiles.
	// Overridable only for tests; production callers always get New's
	// default.
	primalURL string
}

// New builds a Tools bundle.
func New(http *httpfetch.Client, s *store.Store, pool *relaypool.Pool) *Tools {
	return &Tools{http: http, store: s, pool: pool, primalURL: primalAPIURL}
}
