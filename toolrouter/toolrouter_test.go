package toolrouter

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/require"

	"github.com/themikemoniker/nostr-intel-mcp/aggregate"
	"github.com/themikemoniker/nostr-intel-mcp/httpfetch"
	"github.com/themikemoniker/nostr-intel-mcp/intel"
	"github.com/themikemoniker/nostr-intel-mcp/paywall"
	"github.com/themikemoniker/nostr-intel-mcp/pricer"
	"github.com/themikemoniker/nostr-intel-mcp/relaypool"
	"github.com/themikemoniker/nostr-intel-mcp/store"
)

const testPubkeyHex = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

func testStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path, time.Hour, time.Hour, store.WithClock(clock.NewDefaultClock()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRouter(t *testing.T, dailyLimit int) *Router {
	t.Helper()
	s := testStore(t)
	pool := relaypool.New(context.Background(), nil)
	tools := intel.New(httpfetch.New(100, 10), s, pool)
	agg := aggregate.New(pool, s)
	gate := paywall.New(s, nil, dailyLimit, 300)
	pr := pricer.New(pricer.Config{
		SearchEventsBase: 10, RelayDiscovery: 20, TrendingNotes: 15,
		GetFollowerGraph: 25, ZapAnalytics: 20,
	})
	return New(tools, agg, gate, pr, "test-session")
}

func TestDispatchUnknownToolErrors(t *testing.T) {
	t.Parallel()

	r := testRouter(t, 10)
	_, err := r.Dispatch(context.Background(), "not_a_real_tool", nil)
	require.ErrorIs(t, err, ErrUnknownTool)
}

func TestDispatchDecodeNostrURI(t *testing.T) {
	t.Parallel()

	r := testRouter(t, 10)
	npub, err := nip19.EncodePublicKey(testPubkeyHex)
	require.NoError(t, err)
	args, _ := json.Marshal(map[string]string{"uri": npub})

	out, err := r.Dispatch(context.Background(), "decode_nostr_uri", args)
	require.NoError(t, err)

	var result intel.DecodeNostrUriResponse
	require.NoError(t, json.Unmarshal(out, &result))
	require.Equal(t, "npub", result.Type)
}

func TestDispatchPaidToolProceedsUnderFreeTier(t *testing.T) {
	t.Parallel()

	r := testRouter(t, 5)
	args, _ := json.Marshal(map[string]any{"search": "bitcoin"})

	out, err := r.Dispatch(context.Background(), "search_events", args)
	require.NoError(t, err)

	var result intel.SearchEventsResponse
	require.NoError(t, json.Unmarshal(out, &result))
	require.Equal(t, 0, result.Count)
}

func TestDispatchPaidToolReturnsFreeTierExhausted(t *testing.T) {
	t.Parallel()

	r := testRouter(t, 1)
	args, _ := json.Marshal(map[string]any{"search": "bitcoin"})

	_, err := r.Dispatch(context.Background(), "search_events", args)
	require.NoError(t, err)

	out, err := r.Dispatch(context.Background(), "search_events", args)
	require.NoError(t, err)

	var payload paywall.FreeTierExhaustedResponse
	require.NoError(t, json.Unmarshal(out, &payload))
	require.True(t, payload.FreeTierExhausted)
	require.Equal(t, 1, payload.CallsLimit)
}

func TestDispatchZapAnalyticsDefaultsTimeframe(t *testing.T) {
	t.Parallel()

	r := testRouter(t, 10)
	args, _ := json.Marshal(map[string]string{"pubkey": testPubkeyHex})

	out, err := r.Dispatch(context.Background(), "zap_analytics", args)
	require.NoError(t, err)

	var result aggregate.ZapAnalyticsResult
	require.NoError(t, json.Unmarshal(out, &result))
}
