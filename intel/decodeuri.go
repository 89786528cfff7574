package intel

import (
	"fmt"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// DecodeNostrUriResponse is the decoded form of a bech32 Nostr entity
// (npub, nsec, note, nprofile, nevent, or naddr). Fields not relevant to
// the decoded Type are left zero.
type DecodeNostrUriResponse struct {
	Type       string   `json:"type"`
	PubkeyHex  string   `json:"pubkey_hex,omitempty"`
	EventID    string   `json:"event_id,omitempty"`
	Kind       *int     `json:"kind,omitempty"`
	Identifier string   `json:"identifier,omitempty"`
	Author     string   `json:"author,omitempty"`
	Relays     []string `json:"relays,omitempty"`
}

// DecodeNostrURI decodes a bech32-encoded Nostr entity string into its
// underlying fields. It accepts the bare entity (npub1...) as well as a
// nostr: URI prefix.
func DecodeNostrURI(uri string) (DecodeNostrUriResponse, error) {
	uri = strings.TrimPrefix(strings.TrimSpace(uri), "nostr:")

	prefix, value, err := nip19.Decode(uri)
	if err != nil {
		return DecodeNostrUriResponse{}, fmt.Errorf("failed to decode %q: %w", uri, err)
	}

	switch prefix {
	case "npub", "nsec":
		hex, ok := value.(string)
		if !ok {
			return DecodeNostrUriResponse{}, fmt.Errorf("unexpected %s payload shape", prefix)
		}
		return DecodeNostrUriResponse{Type: prefix, PubkeyHex: hex}, nil

	case "note":
		hex, ok := value.(string)
		if !ok {
			return DecodeNostrUriResponse{}, fmt.Errorf("unexpected note payload shape")
		}
		return DecodeNostrUriResponse{Type: prefix, EventID: hex}, nil

	case "nprofile":
		p, ok := value.(nostr.ProfilePointer)
		if !ok {
			return DecodeNostrUriResponse{}, fmt.Errorf("unexpected nprofile payload shape")
		}
		return DecodeNostrUriResponse{Type: prefix, PubkeyHex: p.PublicKey, Relays: p.Relays}, nil

	case "nevent":
		e, ok := value.(nostr.EventPointer)
		if !ok {
			return DecodeNostrUriResponse{}, fmt.Errorf("unexpected nevent payload shape")
		}
		resp := DecodeNostrUriResponse{Type: prefix, EventID: e.ID, Author: e.Author, Relays: e.Relays}
		if e.Kind != 0 {
			kind := e.Kind
			resp.Kind = &kind
		}
		return resp, nil

	case "naddr":
		a, ok := value.(nostr.EntityPointer)
		if !ok {
			return DecodeNostrUriResponse{}, fmt.Errorf("unexpected naddr payload shape")
		}
		kind := a.Kind
		return DecodeNostrUriResponse{
			Type: prefix, PubkeyHex: a.PublicKey, Identifier: a.Identifier,
			Kind: &kind, Relays: a.Relays,
		}, nil

	default:
		return DecodeNostrUriResponse{}, fmt.Errorf("unsupported entity prefix %q", prefix)
	}
}
