package mcpserver

import (
	"github.com/themikemoniker/nostr-intel-mcp/toolrouter"
)

// newRouterFn builds a fresh toolrouter.Router bound to sessionID, sharing
// every singleton in s.
func newRouterFn(s Singletons, sessionID string) *toolrouter.Router {
	return toolrouter.New(s.Tools, s.Aggregate, s.Gate, s.Pricer, sessionID)
}
