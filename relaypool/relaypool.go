// Package relaypool holds one connection per configured relay URL and
// answers each query by fanning a single-shot subscription out to every
// connected relay, deduplicating the results by event ID, and returning
// once all relays have reported end-of-stored-events or the call's
// timeout elapses.
package relaypool

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/themikemoniker/nostr-intel-mcp/metrics"
)

const (
	timeoutMetadata    = 10 * time.Second
	timeoutSearch      = 15 * time.Second
	timeoutRelayList   = 10 * time.Second
	timeoutContactList = 10 * time.Second
	timeoutReactions   = 15 * time.Second
	timeoutReposts     = 15 * time.Second
	timeoutZapReceipts = 15 * time.Second
	timeoutRecentNotes = 15 * time.Second
	timeoutFollowers   = 15 * time.Second

	// MaxLimit is the hard ceiling applied to any user-supplied limit
	// before it reaches a relay filter.
	MaxLimit = 100
)

// Pool is a fixed set of relay connections established once at
// construction. It is safe for concurrent use.
type Pool struct {
	mu     sync.RWMutex
	relays map[string]*nostr.Relay
}

// New connects to every url in urls, logging (but not failing on) any
// individual connection error, and returns a Pool over whichever relays
// connected successfully.
func New(ctx context.Context, urls []string) *Pool {
	p := &Pool{relays: make(map[string]*nostr.Relay, len(urls))}

	for _, url := range urls {
		relay, err := nostr.RelayConnect(ctx, url)
		if err != nil {
			log.Warnf("failed to connect to relay %s: %v", url, err)
			continue
		}
		p.relays[url] = relay
	}

	return p
}

// Close tears down every relay connection held by the pool.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for url, relay := range p.relays {
		relay.Close()
		delete(p.relays, url)
	}
}

// Size reports how many relays are currently connected.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.relays)
}

func (p *Pool) snapshot() []*nostr.Relay {
	p.mu.RLock()
	defer p.mu.RUnlock()

	relays := make([]*nostr.Relay, 0, len(p.relays))
	for _, relay := range p.relays {
		relays = append(relays, relay)
	}
	return relays
}

// fetchEvents runs filter against every connected relay and returns the
// deduplicated union of matching events, bounded by timeout. method
// labels the call's Prometheus latency observation.
func (p *Pool) fetchEvents(ctx context.Context, method string, filter nostr.Filter,
	timeout time.Duration) ([]*nostr.Event, error) {

	start := time.Now()
	defer func() {
		metrics.RelayFetchSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	relays := p.snapshot()
	if len(relays) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]*nostr.Event)
	)

	for _, relay := range relays {
		wg.Add(1)
		go func(relay *nostr.Relay) {
			defer wg.Done()

			sub, err := relay.Subscribe(ctx, []nostr.Filter{filter})
			if err != nil {
				log.Debugf("subscribe to %s failed: %v", relay.URL, err)
				return
			}
			defer sub.Unsub()

			for {
				select {
				case ev, ok := <-sub.Events:
					if !ok {
						return
					}
					mu.Lock()
					seen[ev.ID] = ev
					mu.Unlock()

				case <-sub.EndOfStoredEvents:
					return

				case <-ctx.Done():
					return
				}
			}
		}(relay)
	}

	wg.Wait()

	events := make([]*nostr.Event, 0, len(seen))
	for _, ev := range seen {
		events = append(events, ev)
	}
	return events, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// GetMetadata fetches the most recent kind:0 event for pubkey.
func (p *Pool) GetMetadata(ctx context.Context, pubkey string) (*nostr.Event, bool, error) {
	events, err := p.fetchEvents(ctx, "get_metadata", nostr.Filter{
		Kinds:   []int{nostr.KindProfileMetadata},
		Authors: []string{pubkey},
		Limit:   1,
	}, timeoutMetadata)
	if err != nil || len(events) == 0 {
		return nil, false, err
	}
	return newest(events), true, nil
}

// SearchEvents runs a free-text/filtered search across kinds and authors.
func (p *Pool) SearchEvents(ctx context.Context, authors []string, kinds []int,
	search string, since *nostr.Timestamp, limit int) ([]*nostr.Event, error) {

	filter := nostr.Filter{Limit: clampLimit(limit)}
	if len(authors) > 0 {
		filter.Authors = authors
	}
	if len(kinds) > 0 {
		filter.Kinds = kinds
	}
	if search != "" {
		filter.Search = search
	}
	if since != nil {
		filter.Since = since
	}

	return p.fetchEvents(ctx, "search_events", filter, timeoutSearch)
}

// FetchRelayList fetches the kind:10002 (NIP-65) relay list for pubkey.
func (p *Pool) FetchRelayList(ctx context.Context, pubkey string) (*nostr.Event, bool, error) {
	events, err := p.fetchEvents(ctx, "fetch_relay_list", nostr.Filter{
		Kinds:   []int{nostr.KindRelayListMetadata},
		Authors: []string{pubkey},
		Limit:   1,
	}, timeoutRelayList)
	if err != nil || len(events) == 0 {
		return nil, false, err
	}
	return newest(events), true, nil
}

// FetchContactList fetches the kind:3 contact list for pubkey.
func (p *Pool) FetchContactList(ctx context.Context, pubkey string) (*nostr.Event, bool, error) {
	events, err := p.fetchEvents(ctx, "fetch_contact_list", nostr.Filter{
		Kinds:   []int{nostr.KindFollowList},
		Authors: []string{pubkey},
		Limit:   1,
	}, timeoutContactList)
	if err != nil || len(events) == 0 {
		return nil, false, err
	}
	return newest(events), true, nil
}

// FetchReactions fetches kind:7 reactions that reference any of eventIDs.
// An empty eventIDs short-circuits to an empty result without querying a
// relay.
func (p *Pool) FetchReactions(ctx context.Context, eventIDs []string,
	since *nostr.Timestamp) ([]*nostr.Event, error) {

	if len(eventIDs) == 0 {
		return nil, nil
	}

	filter := nostr.Filter{
		Kinds: []int{nostr.KindReaction},
		Tags:  nostr.TagMap{"e": eventIDs},
	}
	if since != nil {
		filter.Since = since
	}

	return p.fetchEvents(ctx, "fetch_reactions", filter, timeoutReactions)
}

// FetchReposts fetches kind:6 reposts that reference any of eventIDs. An
// empty eventIDs short-circuits to an empty result without querying a
// relay.
func (p *Pool) FetchReposts(ctx context.Context, eventIDs []string,
	since *nostr.Timestamp) ([]*nostr.Event, error) {

	if len(eventIDs) == 0 {
		return nil, nil
	}

	filter := nostr.Filter{
		Kinds: []int{nostr.KindRepost},
		Tags:  nostr.TagMap{"e": eventIDs},
	}
	if since != nil {
		filter.Since = since
	}

	return p.fetchEvents(ctx, "fetch_reposts", filter, timeoutReposts)
}

// FetchZapReceipts fetches kind:9735 zap receipts whose "p" tag matches
// pubkey. An empty pubkey short-circuits to an empty result.
func (p *Pool) FetchZapReceipts(ctx context.Context, pubkey string,
	since *nostr.Timestamp) ([]*nostr.Event, error) {

	if pubkey == "" {
		return nil, nil
	}

	filter := nostr.Filter{
		Kinds: []int{nostr.KindZap},
		Tags:  nostr.TagMap{"p": {pubkey}},
	}
	if since != nil {
		filter.Since = since
	}

	return p.fetchEvents(ctx, "fetch_zap_receipts", filter, timeoutZapReceipts)
}

// FetchRecentNotes fetches kind:1 text notes created since the given
// timestamp, up to limit. The limit is an internal fetch cap rather
// than a user-supplied value, so it is not clamped to MaxLimit.
func (p *Pool) FetchRecentNotes(ctx context.Context, since nostr.Timestamp,
	limit int) ([]*nostr.Event, error) {

	return p.fetchEvents(ctx, "fetch_recent_notes", nostr.Filter{
		Kinds: []int{nostr.KindTextNote},
		Since: &since,
		Limit: limit,
	}, timeoutRecentNotes)
}

// FetchFollowers fetches kind:3 contact-list events whose "p" tag
// references pubkey, i.e. everyone who follows pubkey. An empty pubkey
// short-circuits to an empty result.
func (p *Pool) FetchFollowers(ctx context.Context, pubkey string,
	limit int) ([]*nostr.Event, error) {

	if pubkey == "" {
		return nil, nil
	}

	return p.fetchEvents(ctx, "fetch_followers", nostr.Filter{
		Kinds: []int{nostr.KindFollowList},
		Tags:  nostr.TagMap{"p": {pubkey}},
		Limit: clampLimit(limit),
	}, timeoutFollowers)
}

// newest returns the event with the highest CreatedAt from a non-empty
// slice.
func newest(events []*nostr.Event) *nostr.Event {
	best := events[0]
	for _, ev := range events[1:] {
		if ev.CreatedAt > best.CreatedAt {
			best = ev
		}
	}
	return best
}

// ParsePubkey accepts either a bech32 npub or a raw 64-character hex
// pubkey and returns the hex form.
func ParsePubkey(input string) (string, error) {
	if strings.HasPrefix(input, "npub1") {
		prefix, value, err := nip19.Decode(input)
		if err != nil {
			return "", fmt.Errorf("invalid npub: %w", err)
		}
		if prefix != "npub" {
			return "", fmt.Errorf("expected npub prefix, got %s", prefix)
		}
		pk, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("unexpected npub payload")
		}
		return pk, nil
	}

	if nostr.IsValidPublicKey(input) {
		return input, nil
	}

	return "", fmt.Errorf("invalid pubkey format: %s", input)
}
