package aggregate

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/themikemoniker/nostr-intel-mcp/store"
)

// fakePool is a relaySource test double driven entirely by fixture data;
// it never dials a relay.
type fakePool struct {
	recentNotes []*nostr.Event
	reactions   []*nostr.Event
	reposts     []*nostr.Event
	zapReceipts []*nostr.Event

	contactList    *nostr.Event
	contactListOK  bool
	followerEvents []*nostr.Event
}

func (f *fakePool) FetchRecentNotes(ctx context.Context, since nostr.Timestamp, limit int) ([]*nostr.Event, error) {
	return f.recentNotes, nil
}

func (f *fakePool) FetchReactions(ctx context.Context, eventIDs []string, since *nostr.Timestamp) ([]*nostr.Event, error) {
	return f.reactions, nil
}

func (f *fakePool) FetchReposts(ctx context.Context, eventIDs []string, since *nostr.Timestamp) ([]*nostr.Event, error) {
	return f.reposts, nil
}

func (f *fakePool) FetchContactList(ctx context.Context, pubkey string) (*nostr.Event, bool, error) {
	return f.contactList, f.contactListOK, nil
}

func (f *fakePool) FetchFollowers(ctx context.Context, pubkey string, limit int) ([]*nostr.Event, error) {
	return f.followerEvents, nil
}

func (f *fakePool) FetchZapReceipts(ctx context.Context, pubkey string, since *nostr.Timestamp) ([]*nostr.Event, error) {
	return f.zapReceipts, nil
}

// fakeNamer is a profileNamer test double backed by an in-memory map,
// standing in for the cache-only lookup real Aggregators perform
// against *store.Store.
type fakeNamer struct {
	names map[string]store.CachedProfile
}

func (f *fakeNamer) GetProfile(ctx context.Context, pubkey string) (*store.CachedProfile, bool, error) {
	p, ok := f.names[pubkey]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func note(id, pubkey, content string, createdAt nostr.Timestamp) *nostr.Event {
	return &nostr.Event{ID: id, PubKey: pubkey, Content: content, CreatedAt: createdAt, Kind: nostr.KindTextNote}
}

func tagEvent(kind int, tags nostr.Tags, createdAt nostr.Timestamp) *nostr.Event {
	return &nostr.Event{Kind: kind, Tags: tags, CreatedAt: createdAt}
}
