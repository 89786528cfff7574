package aggregate

import (
	"context"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/nbd-wtf/go-nostr"
)

const (
	trendingFetchCap     = 200
	trendingDefaultLimit = 20
	trendingMaxLimit     = 50
	contentPreviewBytes  = 280
)

// TrendingNotesResult is the tool-result shape for trending_notes.
type TrendingNotesResult struct {
	Notes []TrendingNote `json:"notes"`
}

// TrendingNote is one ranked note.
type TrendingNote struct {
	ID             string `json:"id"`
	Pubkey         string `json:"pubkey"`
	ContentPreview string `json:"content_preview"`
	CreatedAt      int64  `json:"created_at"`
	ReactionsCount int    `json:"reactions_count"`
	RepostsCount   int    `json:"reposts_count"`
	// ZapTotalSats is always 0: zap receipts are not joined into this
	// ranking, which scores on reactions and reposts only.
	ZapTotalSats int64 `json:"zap_total_sats"`
	Score        int   `json:"score"`
}

// TrendingNotes asks each relay for up to trendingFetchCap recent notes
// within timeframe, ranks them by reactions + 3*reposts, and returns the
// top limit.
func (a *Aggregator) TrendingNotes(ctx context.Context, timeframe string, limit int) (TrendingNotesResult, error) {
	if timeframe == "" {
		timeframe = "24h"
	}
	seconds, err := parseTimeframe(timeframe)
	if err != nil {
		return TrendingNotesResult{}, err
	}

	switch {
	case limit <= 0:
		limit = trendingDefaultLimit
	case limit > trendingMaxLimit:
		limit = trendingMaxLimit
	}

	since := nostr.Timestamp(time.Now().Unix() - seconds)

	notes, err := a.pool.FetchRecentNotes(ctx, since, trendingFetchCap)
	if err != nil {
		return TrendingNotesResult{}, err
	}
	if len(notes) == 0 {
		return TrendingNotesResult{}, nil
	}

	// Relay fan-out dedups into map order, which Go randomises; fix a
	// deterministic order up front so the stable score-sort below always
	// breaks ties the same way.
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].CreatedAt != notes[j].CreatedAt {
			return notes[i].CreatedAt > notes[j].CreatedAt
		}
		return notes[i].ID < notes[j].ID
	})

	noteIDs := make([]string, len(notes))
	noteIndex := make(map[string]int, len(notes))
	for i, n := range notes {
		noteIDs[i] = n.ID
		noteIndex[n.ID] = i
	}

	var (
		reactions, reposts       []*nostr.Event
		reactionsErr, repostsErr error
		wg                       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reactions, reactionsErr = a.pool.FetchReactions(ctx, noteIDs, &since)
	}()
	go func() {
		defer wg.Done()
		reposts, repostsErr = a.pool.FetchReposts(ctx, noteIDs, &since)
	}()
	wg.Wait()

	if reactionsErr != nil {
		return TrendingNotesResult{}, reactionsErr
	}
	if repostsErr != nil {
		return TrendingNotesResult{}, repostsErr
	}

	reactionCounts := tallyByNote(reactions, noteIndex)
	repostCounts := tallyByNote(reposts, noteIndex)

	ranked := make([]TrendingNote, len(notes))
	for i, n := range notes {
		ranked[i] = TrendingNote{
			ID:             n.ID,
			Pubkey:         n.PubKey,
			ContentPreview: truncateContent(n.Content, contentPreviewBytes),
			CreatedAt:      int64(n.CreatedAt),
			ReactionsCount: reactionCounts[i],
			RepostsCount:   repostCounts[i],
			ZapTotalSats:   0,
			Score:          reactionCounts[i] + 3*repostCounts[i],
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return TrendingNotesResult{Notes: ranked}, nil
}

// tallyByNote counts, per index into noteIndex, how many events carry an
// "e" tag referencing that note's ID.
func tallyByNote(events []*nostr.Event, noteIndex map[string]int) []int {
	counts := make([]int, len(noteIndex))
	for _, ev := range events {
		for _, id := range eTagValues(ev.Tags) {
			if i, ok := noteIndex[id]; ok {
				counts[i]++
			}
		}
	}
	return counts
}

// truncateContent truncates content to at most maxBytes bytes, cutting
// on a rune boundary so a multi-byte UTF-8 sequence is never split, and
// appends an ellipsis when truncation occurred.
func truncateContent(content string, maxBytes int) string {
	if len(content) <= maxBytes {
		return content
	}

	b := []byte(content)
	end := maxBytes
	for end > 0 && !utf8.RuneStart(b[end]) {
		end--
	}
	return string(b[:end]) + "..."
}
