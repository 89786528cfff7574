package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/themikemoniker/nostr-intel-mcp/store"
)

func unixDay(day string) nostr.Timestamp {
	ts, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return nostr.Timestamp(ts.Unix())
}

func zapReceipt(amountSats int64, zapper, noteID string, createdAt nostr.Timestamp) *nostr.Event {
	return tagEvent(9735, nostr.Tags{
		{"p", "targetpubkey"},
		{"P", zapper},
		{"e", noteID},
		{"bolt11", fakeInvoiceForSats(amountSats)},
	}, createdAt)
}

// fakeInvoiceForSats builds a minimal lnbc invoice string whose amount
// field parseBolt11Amount recovers exactly as amountSats. The nano-BTC
// ('n') suffix divides by ten, so sats*10 round-trips any whole-sat
// amount without loss.
func fakeInvoiceForSats(amountSats int64) string {
	return "lnbc" + itoa(amountSats*10) + "n1pjqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Two zap receipts on 2024-01-01 of 100 and 50 sats and one on
// 2024-01-02 of 200 sats to pubkey P: total=350, count=3, avg=116
// (integer division), zaps_over_time = [{01-01,2,150},{01-02,1,200}].
func TestZapAnalyticsGrouping(t *testing.T) {
	t.Parallel()

	events := []*nostr.Event{
		zapReceipt(100, "zapperA", "note1", unixDay("2024-01-01")),
		zapReceipt(50, "zapperB", "note1", unixDay("2024-01-01")),
		zapReceipt(200, "zapperA", "note2", unixDay("2024-01-02")),
	}

	pool := &fakePool{zapReceipts: events}
	a := New(pool, &fakeNamer{})

	result, err := a.ZapAnalytics(context.Background(), "targetpubkey", "30d")
	if err != nil {
		t.Fatalf("ZapAnalytics: %v", err)
	}

	if result.TotalReceivedSats != 350 {
		t.Errorf("total = %d, want 350", result.TotalReceivedSats)
	}
	if result.TotalZapsCount != 3 {
		t.Errorf("count = %d, want 3", result.TotalZapsCount)
	}
	if result.AvgZapSats != 116 {
		t.Errorf("avg = %d, want 116", result.AvgZapSats)
	}

	if len(result.ZapsOverTime) != 2 {
		t.Fatalf("got %d day buckets, want 2", len(result.ZapsOverTime))
	}
	first, second := result.ZapsOverTime[0], result.ZapsOverTime[1]
	if first.Date != "2024-01-01" || first.Count != 2 || first.TotalSats != 150 {
		t.Errorf("day 1 = %+v, want {2024-01-01 2 150}", first)
	}
	if second.Date != "2024-01-02" || second.Count != 1 || second.TotalSats != 200 {
		t.Errorf("day 2 = %+v, want {2024-01-02 1 200}", second)
	}
}

func TestZapAnalyticsAvgZeroWhenNoZaps(t *testing.T) {
	t.Parallel()

	a := New(&fakePool{}, &fakeNamer{})
	result, err := a.ZapAnalytics(context.Background(), "nobody", "30d")
	if err != nil {
		t.Fatalf("ZapAnalytics: %v", err)
	}
	if result.AvgZapSats != 0 {
		t.Errorf("avg = %d, want 0", result.AvgZapSats)
	}
	if result.TotalZapsCount != 0 {
		t.Errorf("count = %d, want 0", result.TotalZapsCount)
	}
}

func TestExtractZapAmountFallsBackToDescriptionTag(t *testing.T) {
	t.Parallel()

	ev := tagEvent(9735, nostr.Tags{
		{"description", `{"pubkey":"zr","tags":[["amount","21000"]]}`},
	}, unixDay("2024-01-01"))

	if got := extractZapAmount(ev); got != 21 {
		t.Errorf("extractZapAmount = %d, want 21", got)
	}
}

func TestExtractZapAmountDefaultsToZero(t *testing.T) {
	t.Parallel()

	ev := tagEvent(9735, nostr.Tags{}, unixDay("2024-01-01"))
	if got := extractZapAmount(ev); got != 0 {
		t.Errorf("extractZapAmount = %d, want 0", got)
	}
}

func TestExtractZapperPubkeyFallsBackToDescriptionPubkey(t *testing.T) {
	t.Parallel()

	ev := tagEvent(9735, nostr.Tags{
		{"description", `{"pubkey":"zr-pubkey","tags":[]}`},
	}, unixDay("2024-01-01"))

	if got := extractZapperPubkey(ev); got != "zr-pubkey" {
		t.Errorf("extractZapperPubkey = %q, want zr-pubkey", got)
	}
}

func TestExtractZapperPubkeyUnknownWhenAbsent(t *testing.T) {
	t.Parallel()

	ev := tagEvent(9735, nostr.Tags{}, unixDay("2024-01-01"))
	if got := extractZapperPubkey(ev); got != "unknown" {
		t.Errorf("extractZapperPubkey = %q, want unknown", got)
	}
}

func TestTopZappersIncludesCacheName(t *testing.T) {
	t.Parallel()

	pool := &fakePool{zapReceipts: []*nostr.Event{
		zapReceipt(100, "zapperA", "note1", unixDay("2024-01-01")),
	}}
	namer := &fakeNamer{names: map[string]store.CachedProfile{
		"zapperA": {Pubkey: "zapperA", DisplayName: "Alice"},
	}}
	a := New(pool, namer)

	result, err := a.ZapAnalytics(context.Background(), "targetpubkey", "30d")
	if err != nil {
		t.Fatalf("ZapAnalytics: %v", err)
	}
	if len(result.TopZappers) != 1 || result.TopZappers[0].Name != "Alice" {
		t.Errorf("top zappers = %+v, want Alice enriched", result.TopZappers)
	}
}
