package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/themikemoniker/nostr-intel-mcp/store"
)

const (
	primalAPIURL          = "https://cache1.primal.net/api"
	primalSearchTimeout   = 15 * time.Second
	primalKindMetadata    = 0
	primalKindFollowCount = 10000108

	defaultSearchLimit = 5
	maxSearchLimit     = 20
)

// profileHit is an intermediate result from the Primal cache: a kind:0
// profile merged with its follower count from the paired kind:10000108
// event, before bech32 encoding or local caching.
type profileHit struct {
	Pubkey         string
	Name           string
	DisplayName    string
	About          string
	Picture        string
	Nip05          string
	Lud16          string
	Website        string
	FollowersCount *uint64
}

// primalSearch queries Primal's cache for profiles matching query,
// merging the kind:0 profile documents it returns with the per-pubkey
// follower counts carried in the companion kind:10000108 event.
func (t *Tools) primalSearch(ctx context.Context, query string, limit int) ([]profileHit, error) {
	body := []any{"user_search", map[string]any{"query": query, "limit": limit}}

	var events []struct {
		Kind    int    `json:"kind"`
		Pubkey  string `json:"pubkey"`
		Content string `json:"content"`
	}
	if err := t.http.PostJSON(ctx, t.primalURL, body, &events, primalSearchTimeout); err != nil {
		return nil, fmt.Errorf("primal search request failed: %w", err)
	}

	hits := make([]profileHit, 0, len(events))
	index := make(map[string]int, len(events))
	for _, ev := range events {
		if ev.Kind != primalKindMetadata || ev.Pubkey == "" {
			continue
		}

		var meta struct {
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
			About       string `json:"about"`
			Picture     string `json:"picture"`
			Nip05       string `json:"nip05"`
			Lud16       string `json:"lud16"`
			Website     string `json:"website"`
		}
		// Malformed content degrades to a hit with empty fields rather
		// than dropping the match entirely.
		_ = json.Unmarshal([]byte(ev.Content), &meta)

		index[ev.Pubkey] = len(hits)
		hits = append(hits, profileHit{
			Pubkey:      ev.Pubkey,
			Name:        meta.Name,
			DisplayName: meta.DisplayName,
			About:       meta.About,
			Picture:     meta.Picture,
			Nip05:       meta.Nip05,
			Lud16:       meta.Lud16,
			Website:     meta.Website,
		})
	}

	for _, ev := range events {
		if ev.Kind != primalKindFollowCount {
			continue
		}
		var counts map[string]uint64
		if err := json.Unmarshal([]byte(ev.Content), &counts); err != nil {
			continue
		}
		for pubkey, count := range counts {
			if i, ok := index[pubkey]; ok {
				c := count
				hits[i].FollowersCount = &c
			}
		}
	}

	return hits, nil
}

// SearchProfilesResult is one profile match returned by the search_profiles
// tool.
type SearchProfilesResult struct {
	Pubkey         string  `json:"pubkey"`
	PubkeyNpub     string  `json:"pubkey_npub"`
	Name           string  `json:"name,omitempty"`
	DisplayName    string  `json:"display_name,omitempty"`
	About          string  `json:"about,omitempty"`
	Picture        string  `json:"picture,omitempty"`
	Nip05          string  `json:"nip05,omitempty"`
	Lud16          string  `json:"lud16,omitempty"`
	Website        string  `json:"website,omitempty"`
	FollowersCount *uint64 `json:"followers_count,omitempty"`
}

// SearchProfilesResponse is the search_profiles tool's response envelope.
type SearchProfilesResponse struct {
	Query    string                 `json:"query"`
	Profiles []SearchProfilesResult `json:"profiles"`
	Count    int                    `json:"count"`
	Source   string                 `json:"source"`
}

// SearchProfiles looks up profiles by display name or NIP-05-like query
// text via Primal's cache, caching every hit locally so a later
// get_profile by pubkey or NIP-05 identifier is served from cache.
func (t *Tools) SearchProfiles(ctx context.Context, query string, limit int) (SearchProfilesResponse, error) {
	if query == "" {
		return SearchProfilesResponse{}, fmt.Errorf("search query cannot be empty")
	}
	switch {
	case limit <= 0:
		limit = defaultSearchLimit
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}

	hits, err := t.primalSearch(ctx, query, limit)
	if err != nil {
		return SearchProfilesResponse{}, err
	}

	results := make([]SearchProfilesResult, 0, len(hits))
	for _, hit := range hits {
		npub, err := nip19.EncodePublicKey(hit.Pubkey)
		if err != nil {
			npub = ""
		}

		if err := t.store.SetProfile(ctx, store.CachedProfile{
			Pubkey:      hit.Pubkey,
			Name:        hit.Name,
			DisplayName: hit.DisplayName,
			About:       hit.About,
			Picture:     hit.Picture,
			Nip05:       hit.Nip05,
			Lud16:       hit.Lud16,
			Website:     hit.Website,
		}); err != nil {
			log.Warnf("failed to cache search result for %s: %v", hit.Pubkey, err)
		}

		results = append(results, SearchProfilesResult{
			Pubkey:         hit.Pubkey,
			PubkeyNpub:     npub,
			Name:           hit.Name,
			DisplayName:    hit.DisplayName,
			About:          hit.About,
			Picture:        hit.Picture,
			Nip05:          hit.Nip05,
			Lud16:          hit.Lud16,
			Website:        hit.Website,
			FollowersCount: hit.FollowersCount,
		})
	}

	return SearchProfilesResponse{
		Query:    query,
		Profiles: results,
		Count:    len(results),
		Source:   "primal_cache",
	}, nil
}
