package aggregate

import "context"

// FollowerGraphResult is the tool-result shape for get_follower_graph.
type FollowerGraphResult struct {
	Pubkey        string        `json:"pubkey"`
	Depth         int           `json:"depth"`
	Following     []GraphMember `json:"following"`
	Followers     []GraphMember `json:"followers"`
	MutualFollows []GraphMember `json:"mutual_follows"`
}

// GraphMember is one pubkey in a follower-graph set, enriched with a
// cache-only display name when available.
type GraphMember struct {
	Pubkey string `json:"pubkey"`
	Name   string `json:"name"`
}

const followerGraphFetchLimit = 100

// FollowerGraph assembles the target pubkey's following set, follower
// set, and their intersection. depth is clamped to [1,2] for pricing
// purposes only: the current computation at depth 2 is identical to
// depth 1. A future revision may expand the graph at depth 2; until
// then this is a known, intentional limitation rather than an
// unimplemented feature.
func (a *Aggregator) FollowerGraph(ctx context.Context, pubkey string, depth int) (FollowerGraphResult, error) {
	depth = clampDepth(depth)

	following, err := a.following(ctx, pubkey)
	if err != nil {
		return FollowerGraphResult{}, err
	}

	followers, err := a.followers(ctx, pubkey)
	if err != nil {
		return FollowerGraphResult{}, err
	}

	followingSet := make(map[string]struct{}, len(following))
	for _, pk := range following {
		followingSet[pk] = struct{}{}
	}

	var mutual []string
	for _, pk := range followers {
		if _, ok := followingSet[pk]; ok {
			mutual = append(mutual, pk)
		}
	}

	return FollowerGraphResult{
		Pubkey:        pubkey,
		Depth:         depth,
		Following:     a.enrichMembers(ctx, following),
		Followers:     a.enrichMembers(ctx, followers),
		MutualFollows: a.enrichMembers(ctx, mutual),
	}, nil
}

func (a *Aggregator) following(ctx context.Context, pubkey string) ([]string, error) {
	contactList, ok, err := a.pool.FetchContactList(ctx, pubkey)
	if err != nil || !ok {
		return nil, err
	}

	var following []string
	for _, t := range contactList.Tags {
		if len(t) >= 2 && t[0] == "p" {
			following = append(following, t[1])
		}
	}
	return following, nil
}

func (a *Aggregator) followers(ctx context.Context, pubkey string) ([]string, error) {
	events, err := a.pool.FetchFollowers(ctx, pubkey, followerGraphFetchLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(events))
	var followers []string
	for _, ev := range events {
		if _, ok := seen[ev.PubKey]; ok {
			continue
		}
		seen[ev.PubKey] = struct{}{}
		followers = append(followers, ev.PubKey)
	}
	return followers, nil
}

func (a *Aggregator) enrichMembers(ctx context.Context, pubkeys []string) []GraphMember {
	members := make([]GraphMember, 0, len(pubkeys))
	for _, pk := range pubkeys {
		members = append(members, GraphMember{Pubkey: pk, Name: a.displayName(ctx, pk)})
	}
	return members
}

func clampDepth(depth int) int {
	switch {
	case depth < 1:
		return 1
	case depth > 2:
		return 2
	default:
		return depth
	}
}
