// Package mcpserver adapts toolrouter.Router to the MCP wire protocol via
// mark3labs/mcp-go, and exposes the handful of plain HTTP endpoints the
// streaming transport needs alongside it: health, metrics, and the L402
// challenge endpoint a client hits before it has a payment hash to offer.
//
// The MCP transport framing itself (JSON-RPC shell, stream encoding,
// client/server handshake) is mcp-go's job; this package only wires tool
// registration and session identity into it.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/themikemoniker/nostr-intel-mcp/aggregate"
	"github.com/themikemoniker/nostr-intel-mcp/intel"
	"github.com/themikemoniker/nostr-intel-mcp/l402"
	"github.com/themikemoniker/nostr-intel-mcp/metrics"
	"github.com/themikemoniker/nostr-intel-mcp/paywall"
	"github.com/themikemoniker/nostr-intel-mcp/pricer"
)

// Singletons holds the process-wide components every session's Router is
// built from. Everything here is shared; only the Router and its
// SessionID are per-session (see toolrouter.Router's doc comment).
type Singletons struct {
	Tools     *intel.Tools
	Aggregate *aggregate.Aggregator
	Gate      *paywall.Gate
	Pricer    *pricer.Pricer

	// Invoices and L402Manager are both optional. Without an
	// L402Manager the L402 challenge route is not mounted at all; with
	// one but no Invoices, the challenge endpoint answers 503 rather
	// than ever issuing a token nobody can redeem.
	Invoices    paywall.InvoiceIssuer
	L402Manager *l402.Manager

	// InvoiceExpirySecs is the expiry requested on invoices minted by
	// the L402 challenge endpoint, mirroring the gate's own setting.
	InvoiceExpirySecs uint64
}

// Server wraps one mcp-go MCPServer plus the plain HTTP endpoints layered
// around the streaming transport.
type Server struct {
	mcp *server.MCPServer
	s   Singletons

	// httpMode is set once when the HTTP transport is mounted. A process
	// serves exactly one transport, so this never flips back.
	httpMode atomic.Bool

	sessionIDs    sync.Map // mcp-go session id -> "http-<N>"
	routers       sync.Map // "stdio" / "http-<N>" -> *toolrouter.Router
	httpSessionNo atomic.Uint64
}

// New builds a Server. Tool handlers are registered once; which Router a
// given call uses is resolved per-request in toolHandler.
func New(s Singletons, name, version string) *Server {
	srv := &Server{
		mcp: server.NewMCPServer(name, version),
		s:   s,
	}
	for _, tool := range toolDefinitions() {
		srv.mcp.AddTool(tool, srv.toolHandler)
	}
	return srv
}

// ServeStdio runs the line-delimited JSON-RPC stdio transport. Its
// session identity is always the fixed string "stdio": one process
// talking stdio serves exactly one logical session.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns the streaming-HTTP mux: POST /mcp for the MCP
// transport itself, plus /health and /metrics.
func (s *Server) HTTPHandler() http.Handler {
	s.httpMode.Store(true)
	streamable := server.NewStreamableHTTPServer(s.mcp)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", metrics.Handler())

	// The challenge route is mounted whenever L402 is enabled; whether
	// an invoice gateway is actually reachable is decided per request,
	// so a wallet outage answers 503 instead of pretending the route
	// doesn't exist.
	if s.s.L402Manager != nil {
		mux.HandleFunc("/l402/challenge/", s.handleChallenge)
	}
	return mux
}

// sessionIDFor resolves the calling MCP session's identity: the fixed
// "stdio" for the stdio transport, else a stable "http-<N>" allocated
// the first time mcp-go's own opaque session id for that connection is
// seen. The counter is process-lifetime only; every tool call within
// one HTTP session resolves to the same N and therefore the same daily
// quota row.
func (s *Server) sessionIDFor(ctx context.Context) string {
	if !s.httpMode.Load() {
		return "stdio"
	}

	sess := server.ClientSessionFromContext(ctx)
	if sess == nil {
		// No session handshake (e.g. a bare POST); account it against a
		// shared bucket rather than minting a fresh quota per request.
		return "http-0"
	}

	key := sess.SessionID()
	if v, ok := s.sessionIDs.Load(key); ok {
		return v.(string)
	}

	id := fmt.Sprintf("http-%d", s.httpSessionNo.Add(1))
	if actual, loaded := s.sessionIDs.LoadOrStore(key, id); loaded {
		return actual.(string)
	}
	return id
}

func (s *Server) routerFor(sessionID string) dispatcher {
	if v, ok := s.routers.Load(sessionID); ok {
		return v.(dispatcher)
	}
	v, _ := s.routers.LoadOrStore(sessionID, newRouterFn(s.s, sessionID))
	return v.(dispatcher)
}

// toolHandler adapts a toolrouter.Router.Dispatch call to mcp-go's
// CallToolRequest/CallToolResult shape.
func (s *Server) toolHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	router := s.routerFor(s.sessionIDFor(ctx))

	rawArgs, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	out, err := router.Dispatch(ctx, req.Params.Name, rawArgs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// dispatcher is the subset of toolrouter.Router this package depends on,
// kept as an interface so session bookkeeping above doesn't need to know
// the concrete Router type.
type dispatcher interface {
	Dispatch(ctx context.Context, toolName string, rawArgs json.RawMessage) (json.RawMessage, error)
}
