package intel

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr/nip19"
)

const nip05Timeout = 10 * time.Second

// ResolveNip05Response is the result of resolving a NIP-05 internet
// identifier (user@domain) to a pubkey via the domain's well-known
// document.
type ResolveNip05Response struct {
	Pubkey     string   `json:"pubkey"`
	PubkeyNpub string   `json:"pubkey_npub"`
	Relays     []string `json:"relays,omitempty"`
}

// ResolveNip05 fetches https://{domain}/.well-known/nostr.json?name={name}
// and extracts the pubkey registered for name, plus any relay hints the
// domain publishes for it.
func (t *Tools) ResolveNip05(ctx context.Context, identifier string) (ResolveNip05Response, error) {
	identifier = strings.TrimSpace(identifier)
	name, domain, ok := strings.Cut(identifier, "@")
	if !ok || name == "" || domain == "" {
		return ResolveNip05Response{}, fmt.Errorf("invalid NIP-05 identifier %q, expected user@domain", identifier)
	}

	reqURL := fmt.Sprintf("https://%s/.well-known/nostr.json?name=%s", domain, url.QueryEscape(name))

	var doc struct {
		Names  map[string]string   `json:"names"`
		Relays map[string][]string `json:"relays"`
	}
	if err := t.http.GetJSON(ctx, reqURL, nil, nip05Timeout, &doc); err != nil {
		return ResolveNip05Response{}, fmt.Errorf("NIP-05 lookup for %s failed: %w", identifier, err)
	}

	pubkeyHex, ok := doc.Names[name]
	if !ok || pubkeyHex == "" {
		return ResolveNip05Response{}, fmt.Errorf("NIP-05 name %q not registered at %s", name, domain)
	}

	npub, err := nip19.EncodePublicKey(pubkeyHex)
	if err != nil {
		return ResolveNip05Response{}, fmt.Errorf("encode npub for %s: %w", pubkeyHex, err)
	}

	return ResolveNip05Response{
		Pubkey:     pubkeyHex,
		PubkeyNpub: npub,
		Relays:     doc.Relays[pubkeyHex],
	}, nil
}
