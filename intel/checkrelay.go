package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/themikemoniker/nostr-intel-mcp/store"
)

const checkRelayTimeout = 10 * time.Second

// CheckRelayResponse reports a relay's liveness and, when reachable, its
// NIP-11 self-description.
type CheckRelayResponse struct {
	Online        bool     `json:"online"`
	LatencyMS     *int64   `json:"latency_ms,omitempty"`
	Name          string   `json:"name,omitempty"`
	Description   string   `json:"description,omitempty"`
	SupportedNIPs []uint32 `json:"supported_nips,omitempty"`
	Software      string   `json:"software,omitempty"`
	Version       string   `json:"version,omitempty"`
}

// CheckRelay probes a relay's HTTP origin for its NIP-11 document,
// converting the wss:// or ws:// URL to https:// or http:// first. A
// successful probe is cached; a failed one is reported but never cached,
// so a transient outage doesn't wedge the relay offline for its TTL.
func (t *Tools) CheckRelay(ctx context.Context, relayURL string) (CheckRelayResponse, error) {
	relayURL = strings.TrimSpace(relayURL)

	// A cache read failure degrades to a miss and the relay is probed
	// fresh.
	if cached, ok, err := t.store.GetRelay(ctx, relayURL); err == nil && ok {
		return CheckRelayResponse{
			Online:        cached.Online,
			LatencyMS:     cached.LatencyMS,
			Name:          cached.Name,
			Description:   cached.Description,
			SupportedNIPs: cached.SupportedNIPs,
			Software:      cached.Software,
			Version:       cached.Version,
		}, nil
	}

	httpURL := relayURL
	switch {
	case strings.HasPrefix(httpURL, "wss://"):
		httpURL = "https://" + strings.TrimPrefix(httpURL, "wss://")
	case strings.HasPrefix(httpURL, "ws://"):
		httpURL = "http://" + strings.TrimPrefix(httpURL, "ws://")
	}

	headers := map[string]string{"Accept": "application/nostr+json"}
	resp, body, latency, err := t.http.TimedGet(ctx, httpURL, headers, checkRelayTimeout)
	if err != nil {
		return CheckRelayResponse{
			Online:      false,
			Description: fmt.Sprintf("connection failed: %v", err),
		}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CheckRelayResponse{
			Online:      false,
			Description: fmt.Sprintf("HTTP error: %s", resp.Status),
		}, nil
	}

	var doc struct {
		Name          string   `json:"name"`
		Description   string   `json:"description"`
		Software      string   `json:"software"`
		Version       string   `json:"version"`
		SupportedNIPs []uint32 `json:"supported_nips"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return CheckRelayResponse{}, fmt.Errorf("parse NIP-11 document from %s: %w", relayURL, err)
	}

	latencyMS := latency.Milliseconds()
	if err := t.store.SetRelay(ctx, store.CachedRelayDescriptor{
		RelayURL:      relayURL,
		Name:          doc.Name,
		Description:   doc.Description,
		SupportedNIPs: doc.SupportedNIPs,
		Software:      doc.Software,
		Version:       doc.Version,
		Online:        true,
		LatencyMS:     &latencyMS,
	}); err != nil {
		log.Warnf("failed to cache relay info for %s: %v", relayURL, err)
	}

	return CheckRelayResponse{
		Online:        true,
		LatencyMS:     &latencyMS,
		Name:          doc.Name,
		Description:   doc.Description,
		SupportedNIPs: doc.SupportedNIPs,
		Software:      doc.Software,
		Version:       doc.Version,
	}, nil
}
