// Package toolrouter holds the fixed dispatch table: given a tool name
// and its JSON arguments, produce a JSON result or a protocol error. It
// is deliberately independent of the MCP transport library: mcpserver
// adapts this package's Dispatch to mark3labs/mcp-go's tool-handler
// shape, but every pricing, paywall, and aggregation decision lives here
// where it can be tested without a transport in the loop.
package toolrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/themikemoniker/nostr-intel-mcp/aggregate"
	"github.com/themikemoniker/nostr-intel-mcp/intel"
	"github.com/themikemoniker/nostr-intel-mcp/metrics"
	"github.com/themikemoniker/nostr-intel-mcp/paywall"
	"github.com/themikemoniker/nostr-intel-mcp/pricer"
)

// FreeTools and PaidTools enumerate the fixed tool catalogue.
var (
	FreeTools = []string{
		"decode_nostr_uri", "resolve_nip05", "get_profile", "check_relay",
		"search_profiles",
	}
	PaidTools = []string{
		"search_events", "relay_discovery", "trending_notes",
		"get_follower_graph", "zap_analytics",
	}
)

// ErrUnknownTool is returned by Dispatch when toolName isn't in the fixed
// catalogue above.
var ErrUnknownTool = fmt.Errorf("unknown tool")

// Router is bound to one session's identity and the singletons every
// handler needs. Store, RelayPool, InvoiceGateway, and the paywall gate
// itself are all process-wide singletons; only SessionID distinguishes
// one Router from another. The HTTP transport constructs a fresh Router
// per session; the stdio transport constructs exactly one, with
// SessionID "stdio".
type Router struct {
	Tools     *intel.Tools
	Aggregate *aggregate.Aggregator
	Gate      *paywall.Gate
	Pricer    *pricer.Pricer
	SessionID string
}

// New builds a Router bound to sessionID.
func New(tools *intel.Tools, agg *aggregate.Aggregator, gate *paywall.Gate,
	pr *pricer.Pricer, sessionID string) *Router {

	return &Router{
		Tools: tools, Aggregate: agg, Gate: gate, Pricer: pr,
		SessionID: sessionID,
	}
}

// Dispatch runs toolName against rawArgs (the tool call's JSON
// arguments object) and returns its JSON result. The returned JSON is
// always one of: a tool-specific success object, a
// paywall.PaymentRequiredResponse, or a paywall.FreeTierExhaustedResponse
// and never an error envelope; handler/gate failures are returned as a Go
// error instead, for the caller to surface as an MCP protocol error.
func (r *Router) Dispatch(ctx context.Context, toolName string, rawArgs json.RawMessage) (out json.RawMessage, err error) {
	log.Debugf("session %s dispatching %s", r.SessionID, toolName)

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.ToolCalls.WithLabelValues(toolName, outcome).Inc()
	}()

	switch toolName {
	case "decode_nostr_uri":
		return r.decodeNostrURI(rawArgs)
	case "resolve_nip05":
		return r.resolveNip05(ctx, rawArgs)
	case "get_profile":
		return r.getProfile(ctx, rawArgs)
	case "check_relay":
		return r.checkRelay(ctx, rawArgs)
	case "search_profiles":
		return r.searchProfiles(ctx, rawArgs)
	case "search_events":
		return r.searchEvents(ctx, rawArgs)
	case "relay_discovery":
		return r.relayDiscovery(ctx, rawArgs)
	case "trending_notes":
		return r.trendingNotes(ctx, rawArgs)
	case "get_follower_graph":
		return r.getFollowerGraph(ctx, rawArgs)
	case "zap_analytics":
		return r.zapAnalytics(ctx, rawArgs)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, toolName)
	}
}

// gateOrProceed runs the paywall gate for a paid tool call. It returns
// (nil, ok=true) when the call may proceed, a ready-to-return JSON
// payload and ok=false on an early return (payment required or free tier
// exhausted), or an error when the gate itself failed.
func (r *Router) gateOrProceed(ctx context.Context, toolName string, amountSats int64,
	paymentHash string) (json.RawMessage, bool, error) {

	decision, err := r.Gate.Check(ctx, toolName, amountSats, paymentHash, r.SessionID)
	if err != nil {
		return nil, false, err
	}
	if decision.Outcome == paywall.Proceed {
		metrics.PaywallOutcomes.WithLabelValues(toolName, "proceed").Inc()
		return nil, true, nil
	}

	var payload any = decision.Exhausted
	outcome := "free_tier_exhausted"
	if decision.Response.PaymentRequired {
		payload = decision.Response
		outcome = "payment_required"
	}
	metrics.PaywallOutcomes.WithLabelValues(toolName, outcome).Inc()
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("marshal paywall response: %w", err)
	}
	return out, false, nil
}

func marshal(v any) (json.RawMessage, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return out, nil
}

func unmarshalArgs(rawArgs json.RawMessage, v any) error {
	if len(rawArgs) == 0 {
		return nil
	}
	if err := json.Unmarshal(rawArgs, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
