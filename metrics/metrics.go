// Package metrics declares this server's Prometheus collectors at the
// package level, registers them once at startup, and serves /metrics
// with promhttp.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ToolCalls counts every dispatched tool call by tool name and
	// outcome ("ok", "error").
	ToolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nostr_intel",
		Name:      "tool_calls_total",
		Help:      "Total MCP tool calls, by tool name and outcome.",
	}, []string{"tool", "outcome"})

	// PaywallOutcomes counts every paywall.Gate decision by outcome:
	// "proceed", "payment_required", "free_tier_exhausted".
	PaywallOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nostr_intel",
		Name:      "paywall_outcomes_total",
		Help:      "Total paywall gate decisions, by outcome.",
	}, []string{"tool", "outcome"})

	// RelayFetchSeconds observes the wall-clock latency of a single
	// RelayPool fetch, by method name (get_metadata, search_events, …).
	RelayFetchSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nostr_intel",
		Name:      "relay_fetch_seconds",
		Help:      "RelayPool fetch latency in seconds, by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// Register adds every collector above to the default Prometheus
// registry. Call once at process startup.
func Register() {
	prometheus.MustRegister(ToolCalls, PaywallOutcomes, RelayFetchSeconds)
}

// Handler returns the HTTP handler Prometheus scrapes /metrics with.
func Handler() http.Handler {
	return promhttp.Handler()
}
