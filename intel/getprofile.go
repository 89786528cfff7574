package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/themikemoniker/nostr-intel-mcp/relaypool"
	"github.com/themikemoniker/nostr-intel-mcp/store"
)

// GetProfileResponse is the get_profile tool's response envelope.
type GetProfileResponse struct {
	Pubkey      string `json:"pubkey"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	About       string `json:"about,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Banner      string `json:"banner,omitempty"`
	Nip05       string `json:"nip05,omitempty"`
	Lud16       string `json:"lud16,omitempty"`
	Website     string `json:"website,omitempty"`
	MatchedBy   string `json:"matched_by,omitempty"`
}

// GetProfile resolves input to a pubkey and returns its profile metadata.
// input may be a hex pubkey, an npub, a NIP-05 identifier (user@domain),
// or a free-text name; in the last case resolution falls back to a
// Primal name search and the result is tagged matched_by "name_search".
// The profile cache is checked before any relay fetch; a cache miss
// fetches kind:0 from the pool and populates the cache for next time.
func (t *Tools) GetProfile(ctx context.Context, input string) (GetProfileResponse, error) {
	input = strings.TrimSpace(input)

	var (
		pubkeyHex string
		matchedBy string
	)

	switch {
	case strings.Contains(input, "@"):
		resolved, err := t.ResolveNip05(ctx, input)
		if err != nil {
			return GetProfileResponse{}, err
		}
		pubkeyHex = resolved.Pubkey

	default:
		if pk, err := relaypool.ParsePubkey(input); err == nil {
			pubkeyHex = pk
			break
		}

		search, err := t.SearchProfiles(ctx, input, 1)
		if err != nil {
			return GetProfileResponse{}, err
		}
		if search.Count == 0 {
			return GetProfileResponse{}, fmt.Errorf(
				"no profile found matching %q; try a hex pubkey, npub, or NIP-05 identifier", input)
		}
		pubkeyHex = search.Profiles[0].Pubkey
		matchedBy = "name_search"
	}

	// A cache read failure degrades to a miss; the relay fetch below is
	// the fallback either way.
	if cached, ok, err := t.store.GetProfile(ctx, pubkeyHex); err == nil && ok {
		return profileResponse(cached, matchedBy), nil
	}

	ev, ok, err := t.pool.GetMetadata(ctx, pubkeyHex)
	if err != nil {
		return GetProfileResponse{}, fmt.Errorf("fetch profile metadata: %w", err)
	}
	if !ok {
		return GetProfileResponse{}, fmt.Errorf("profile not found for pubkey: %s", pubkeyHex)
	}

	var meta struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		About       string `json:"about"`
		Picture     string `json:"picture"`
		Banner      string `json:"banner"`
		Nip05       string `json:"nip05"`
		Lud16       string `json:"lud16"`
		Website     string `json:"website"`
	}
	if err := json.Unmarshal([]byte(ev.Content), &meta); err != nil {
		return GetProfileResponse{}, fmt.Errorf("parse profile metadata for %s: %w", pubkeyHex, err)
	}

	cached := store.CachedProfile{
		Pubkey: pubkeyHex, Name: meta.Name, DisplayName: meta.DisplayName, About: meta.About,
		Picture: meta.Picture, Banner: meta.Banner, Nip05: meta.Nip05, Lud16: meta.Lud16,
		Website: meta.Website,
	}
	if err := t.store.SetProfile(ctx, cached); err != nil {
		log.Warnf("failed to cache profile for %s: %v", pubkeyHex, err)
	}

	return profileResponse(&cached, matchedBy), nil
}

func profileResponse(p *store.CachedProfile, matchedBy string) GetProfileResponse {
	return GetProfileResponse{
		Pubkey: p.Pubkey, Name: p.Name, DisplayName: p.DisplayName, About: p.About,
		Picture: p.Picture, Banner: p.Banner, Nip05: p.Nip05, Lud16: p.Lud16,
		Website: p.Website, MatchedBy: matchedBy,
	}
}
