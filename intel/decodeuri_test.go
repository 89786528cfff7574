package intel

import (
	"testing"

	"github.com/nbd-wtf/go-nostr/nip19"
)

func TestDecodeNostrURINpub(t *testing.T) {
	t.Parallel()

	npub, err := nip19.EncodePublicKey(testPubkeyHex)
	if err != nil {
		t.Fatalf("EncodePublicKey: %v", err)
	}

	result, err := DecodeNostrURI(npub)
	if err != nil {
		t.Fatalf("DecodeNostrURI: %v", err)
	}
	if result.Type != "npub" {
		t.Errorf("Type = %q, want npub", result.Type)
	}
	if result.PubkeyHex != testPubkeyHex {
		t.Errorf("PubkeyHex = %q, want %q", result.PubkeyHex, testPubkeyHex)
	}
}

func TestDecodeNostrURIStripsNostrPrefix(t *testing.T) {
	t.Parallel()

	npub, err := nip19.EncodePublicKey(testPubkeyHex)
	if err != nil {
		t.Fatalf("EncodePublicKey: %v", err)
	}

	result, err := DecodeNostrURI("nostr:" + npub)
	if err != nil {
		t.Fatalf("DecodeNostrURI: %v", err)
	}
	if result.Type != "npub" {
		t.Errorf("Type = %q, want npub", result.Type)
	}
	if result.PubkeyHex != testPubkeyHex {
		t.Errorf("PubkeyHex = %q, want %q", result.PubkeyHex, testPubkeyHex)
	}
}

func TestDecodeNostrURIRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"", "not-a-nostr-entity", "npub1invalid"} {
		if _, err := DecodeNostrURI(bad); err == nil {
			t.Errorf("DecodeNostrURI(%q) = nil error, want error", bad)
		}
	}
}
