package intel

import (
	"context"
	"fmt"
)

// RelayEntry describes one relay a pubkey's NIP-65 list advertises, along
// with whatever liveness data this server's relay cache already holds for
// it (cache-only; relay_discovery never triggers a fresh NIP-11 probe,
// call check_relay for that).
type RelayEntry struct {
	URL       string `json:"url"`
	Read      bool   `json:"read"`
	Write     bool   `json:"write"`
	Online    *bool  `json:"online,omitempty"`
	LatencyMS *int64 `json:"latency_ms,omitempty"`
}

// RelayDiscoveryResponse is the relay_discovery tool's response envelope.
type RelayDiscoveryResponse struct {
	Pubkey string       `json:"pubkey"`
	Relays []RelayEntry `json:"relays"`
}

// RelayDiscovery fetches pubkey's kind:10002 (NIP-65) relay list and
// reports each relay's advertised read/write markers plus any cached
// liveness data.
func (t *Tools) RelayDiscovery(ctx context.Context, pubkey string) (RelayDiscoveryResponse, error) {
	ev, ok, err := t.pool.FetchRelayList(ctx, pubkey)
	if err != nil {
		return RelayDiscoveryResponse{}, fmt.Errorf("fetch relay list: %w", err)
	}
	if !ok {
		return RelayDiscoveryResponse{Pubkey: pubkey, Relays: []RelayEntry{}}, nil
	}

	var relays []RelayEntry
	for _, tag := range ev.Tags {
		if len(tag) < 2 || tag[0] != "r" {
			continue
		}

		entry := RelayEntry{URL: tag[1]}
		if len(tag) >= 3 {
			switch tag[2] {
			case "read":
				entry.Read = true
			case "write":
				entry.Write = true
			default:
				entry.Read, entry.Write = true, true
			}
		} else {
			entry.Read, entry.Write = true, true
		}

		if cached, ok, err := t.store.GetRelay(ctx, entry.URL); err == nil && ok {
			online := cached.Online
			entry.Online = &online
			entry.LatencyMS = cached.LatencyMS
		}

		relays = append(relays, entry)
	}
	if relays == nil {
		relays = []RelayEntry{}
	}

	return RelayDiscoveryResponse{Pubkey: pubkey, Relays: relays}, nil
}
