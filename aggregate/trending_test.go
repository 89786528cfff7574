package aggregate

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nbd-wtf/go-nostr"
)

// Given 3 notes A,B,C where B gets 3 reactions + 1 repost and A gets 2
// reactions, trending_notes must return B (score 6), A (score 2), C
// (score 0) in that order.
func TestTrendingNotesDeterministicOrder(t *testing.T) {
	t.Parallel()

	notes := []*nostr.Event{
		note("a", "pkA", "note A", 100),
		note("b", "pkB", "note B", 101),
		note("c", "pkC", "note C", 102),
	}

	reactions := []*nostr.Event{
		tagEvent(nostr.KindReaction, nostr.Tags{{"e", "b"}}, 110),
		tagEvent(nostr.KindReaction, nostr.Tags{{"e", "b"}}, 111),
		tagEvent(nostr.KindReaction, nostr.Tags{{"e", "b"}}, 112),
		tagEvent(nostr.KindReaction, nostr.Tags{{"e", "a"}}, 113),
		tagEvent(nostr.KindReaction, nostr.Tags{{"e", "a"}}, 114),
	}
	reposts := []*nostr.Event{
		tagEvent(nostr.KindRepost, nostr.Tags{{"e", "b"}}, 115),
	}

	pool := &fakePool{recentNotes: notes, reactions: reactions, reposts: reposts}
	a := New(pool, &fakeNamer{})

	result, err := a.TrendingNotes(context.Background(), "24h", 10)
	if err != nil {
		t.Fatalf("TrendingNotes: %v", err)
	}
	if len(result.Notes) != 3 {
		t.Fatalf("got %d notes, want 3", len(result.Notes))
	}

	gotOrder := []string{result.Notes[0].ID, result.Notes[1].ID, result.Notes[2].ID}
	wantOrder := []string{"b", "a", "c"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
		}
	}

	if result.Notes[0].Score != 6 {
		t.Errorf("B score = %d, want 6", result.Notes[0].Score)
	}
	if result.Notes[1].Score != 2 {
		t.Errorf("A score = %d, want 2", result.Notes[1].Score)
	}
	if result.Notes[2].Score != 0 {
		t.Errorf("C score = %d, want 0", result.Notes[2].Score)
	}
}

func TestTrendingNotesRejectsBadTimeframe(t *testing.T) {
	t.Parallel()

	a := New(&fakePool{}, &fakeNamer{})
	_, err := a.TrendingNotes(context.Background(), "1w", 10)
	if err == nil {
		t.Fatal("expected error for unsupported timeframe suffix")
	}
}

func TestTrendingNotesEmptyWhenNoRecentNotes(t *testing.T) {
	t.Parallel()

	a := New(&fakePool{}, &fakeNamer{})
	result, err := a.TrendingNotes(context.Background(), "24h", 10)
	if err != nil {
		t.Fatalf("TrendingNotes: %v", err)
	}
	if len(result.Notes) != 0 {
		t.Fatalf("got %d notes, want 0", len(result.Notes))
	}
}

func TestTruncateContent(t *testing.T) {
	t.Parallel()

	short := "hello"
	if got := truncateContent(short, 280); got != short {
		t.Errorf("short content was modified: %q", got)
	}

	long := strings.Repeat("a", 300)
	got := truncateContent(long, 280)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated content missing ellipsis: %q", got)
	}
	if len(got) != 283 {
		t.Errorf("truncated length = %d, want 283", len(got))
	}

	// A multi-byte rune sitting on the cut boundary must not be split.
	multibyte := strings.Repeat("a", 279) + "éé"
	got = truncateContent(multibyte, 280)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated multibyte content missing ellipsis: %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncated multibyte content is invalid UTF-8: %q", got)
	}
}
