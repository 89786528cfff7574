package intel

import (
	"context"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// SearchEventsEvent is one matching event returned by SearchEvents.
type SearchEventsEvent struct {
	ID        string     `json:"id"`
	Pubkey    string     `json:"pubkey"`
	CreatedAt int64      `json:"created_at"`
	Kind      int        `json:"kind"`
	Content   string     `json:"content"`
	Tags      [][]string `json:"tags,omitempty"`
}

// SearchEventsResponse is the search_events tool's response envelope.
type SearchEventsResponse struct {
	Events []SearchEventsEvent `json:"events"`
	Count  int                 `json:"count"`
}

// SearchEvents fans out a filtered query across the relay pool. authors
// and kinds are optional filter narrowers; search is a relay-side NIP-50
// full-text query; sinceHours, when positive, bounds the query to events
// newer than now-sinceHours; limit is clamped to relaypool.MaxLimit.
func (t *Tools) SearchEvents(ctx context.Context, authors []string, kinds []int,
	search string, sinceHours float64, limit int) (SearchEventsResponse, error) {

	var since *nostr.Timestamp
	if sinceHours > 0 {
		ts := nostr.Timestamp(time.Now().Add(-time.Duration(sinceHours * float64(time.Hour))).Unix())
		since = &ts
	}

	events, err := t.pool.SearchEvents(ctx, authors, kinds, search, since, limit)
	if err != nil {
		return SearchEventsResponse{}, err
	}

	out := make([]SearchEventsEvent, 0, len(events))
	for _, ev := range events {
		tags := make([][]string, 0, len(ev.Tags))
		for _, tag := range ev.Tags {
			tags = append(tags, []string(tag))
		}
		out = append(out, SearchEventsEvent{
			ID:        ev.ID,
			Pubkey:    ev.PubKey,
			CreatedAt: int64(ev.CreatedAt),
			Kind:      ev.Kind,
			Content:   ev.Content,
			Tags:      tags,
		})
	}

	return SearchEventsResponse{Events: out, Count: len(out)}, nil
}
