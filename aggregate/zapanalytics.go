package aggregate

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

const (
	zapAnalyticsDefaultTimeframe = "30d"
	topN                         = 10
)

// ZapAnalyticsResult is the tool-result shape for zap_analytics.
type ZapAnalyticsResult struct {
	Pubkey            string         `json:"pubkey"`
	TotalReceivedSats int64          `json:"total_received_sats"`
	TotalZapsCount    int            `json:"total_zaps_count"`
	AvgZapSats        int64          `json:"avg_zap_sats"`
	TopZappers        []ZapperTotal  `json:"top_zappers"`
	TopZappedNotes    []NoteZapTotal `json:"top_zapped_notes"`
	ZapsOverTime      []DayZapBucket `json:"zaps_over_time"`
}

// ZapperTotal is one zapper's accumulated total, ranked for the top-10
// list.
type ZapperTotal struct {
	Pubkey    string `json:"pubkey"`
	Name      string `json:"name"`
	TotalSats int64  `json:"total_sats"`
}

// NoteZapTotal is one zapped note's accumulated total. ContentPreview is
// always empty: note bodies are not re-fetched for this listing.
type NoteZapTotal struct {
	NoteID         string `json:"note_id"`
	ContentPreview string `json:"content_preview"`
	TotalSats      int64  `json:"total_sats"`
}

// DayZapBucket is one UTC calendar day's zap count and total, ordered
// chronologically.
type DayZapBucket struct {
	Date      string `json:"date"`
	Count     int    `json:"count"`
	TotalSats int64  `json:"total_sats"`
}

// ZapAnalytics tallies kind:9735 zap receipts addressed to pubkey over
// timeframe (default 30d).
func (a *Aggregator) ZapAnalytics(ctx context.Context, pubkey, timeframe string) (ZapAnalyticsResult, error) {
	if timeframe == "" {
		timeframe = zapAnalyticsDefaultTimeframe
	}
	seconds, err := parseTimeframe(timeframe)
	if err != nil {
		return ZapAnalyticsResult{}, err
	}

	since := nostr.Timestamp(time.Now().Unix() - seconds)

	events, err := a.pool.FetchZapReceipts(ctx, pubkey, &since)
	if err != nil {
		return ZapAnalyticsResult{}, err
	}

	var total int64
	zapperTotals := make(map[string]int64)
	noteTotals := make(map[string]int64)
	dayCounts := make(map[string]int)
	daySats := make(map[string]int64)

	for _, ev := range events {
		amount := extractZapAmount(ev)
		total += amount

		if zapper := extractZapperPubkey(ev); zapper != "" {
			zapperTotals[zapper] += amount
		}
		for _, id := range eTagValues(ev.Tags) {
			noteTotals[id] += amount
		}

		day := time.Unix(int64(ev.CreatedAt), 0).UTC().Format("2006-01-02")
		dayCounts[day]++
		daySats[day] += amount
	}

	count := len(events)
	var avg int64
	if count > 0 {
		avg = total / int64(count)
	}

	return ZapAnalyticsResult{
		Pubkey:            pubkey,
		TotalReceivedSats: total,
		TotalZapsCount:    count,
		AvgZapSats:        avg,
		TopZappers:        a.topZappers(ctx, zapperTotals),
		TopZappedNotes:    topZappedNotes(noteTotals),
		ZapsOverTime:      sortedDayBuckets(dayCounts, daySats),
	}, nil
}

// extractZapAmount recovers the sats amount of a zap receipt, preferring
// its bolt11 tag, falling back to the millisat "amount" tag embedded in
// the zap request JSON carried in the description tag, else 0.
func extractZapAmount(ev *nostr.Event) int64 {
	if bolt11 := tagValue(ev.Tags, "bolt11"); bolt11 != "" {
		if sats, ok := parseBolt11Amount(bolt11); ok {
			return sats
		}
	}

	if desc := tagValue(ev.Tags, "description"); desc != "" {
		if msats, ok := zapRequestAmountMsats(desc); ok {
			return msats / 1000
		}
	}

	return 0
}

// zapRequestAmountMsats parses the embedded zap request JSON in a zap
// receipt's description tag and returns its "amount" tag value in
// millisats.
func zapRequestAmountMsats(description string) (int64, bool) {
	var zapRequest struct {
		Tags [][]string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(description), &zapRequest); err != nil {
		return 0, false
	}

	for _, t := range zapRequest.Tags {
		if len(t) >= 2 && t[0] == "amount" {
			msats, err := strconv.ParseInt(t[1], 10, 64)
			if err != nil {
				return 0, false
			}
			return msats, true
		}
	}
	return 0, false
}

// extractZapperPubkey identifies who sent a zap receipt, preferring the
// uppercase "P" tag, falling back to the embedded zap request's pubkey
// field, else "unknown".
func extractZapperPubkey(ev *nostr.Event) string {
	if p := tagValue(ev.Tags, "P"); p != "" {
		return p
	}

	if desc := tagValue(ev.Tags, "description"); desc != "" {
		var zapRequest struct {
			Pubkey string `json:"pubkey"`
		}
		if err := json.Unmarshal([]byte(desc), &zapRequest); err == nil && zapRequest.Pubkey != "" {
			return zapRequest.Pubkey
		}
	}

	return "unknown"
}

func (a *Aggregator) topZappers(ctx context.Context, totals map[string]int64) []ZapperTotal {
	pubkeys := topNKeys(totals, topN)

	result := make([]ZapperTotal, 0, len(pubkeys))
	for _, pk := range pubkeys {
		result = append(result, ZapperTotal{
			Pubkey:    pk,
			Name:      a.displayName(ctx, pk),
			TotalSats: totals[pk],
		})
	}
	return result
}

func topZappedNotes(totals map[string]int64) []NoteZapTotal {
	ids := topNKeys(totals, topN)

	result := make([]NoteZapTotal, 0, len(ids))
	for _, id := range ids {
		result = append(result, NoteZapTotal{
			NoteID:         id,
			ContentPreview: "",
			TotalSats:      totals[id],
		})
	}
	return result
}

// topNKeys returns the n keys of totals with the highest values,
// descending, breaking ties by key for determinism.
func topNKeys(totals map[string]int64, n int) []string {
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		if totals[keys[i]] != totals[keys[j]] {
			return totals[keys[i]] > totals[keys[j]]
		}
		return keys[i] < keys[j]
	})

	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func sortedDayBuckets(counts map[string]int, sats map[string]int64) []DayZapBucket {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)

	buckets := make([]DayZapBucket, 0, len(days))
	for _, d := range days {
		buckets = append(buckets, DayZapBucket{Date: d, Count: counts[d], TotalSats: sats[d]})
	}
	return buckets
}
