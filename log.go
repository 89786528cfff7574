package nostrintel

import (
	"github.com/btcsuite/btclog/v2"
	"github.com/lightningnetwork/lnd/build"
	"github.com/themikemoniker/nostr-intel-mcp/aggregate"
	"github.com/themikemoniker/nostr-intel-mcp/intel"
	"github.com/themikemoniker/nostr-intel-mcp/invoicegateway"
	"github.com/themikemoniker/nostr-intel-mcp/l402"
	"github.com/themikemoniker/nostr-intel-mcp/mcpserver"
	"github.com/themikemoniker/nostr-intel-mcp/paywall"
	"github.com/themikemoniker/nostr-intel-mcp/relaypool"
	"github.com/themikemoniker/nostr-intel-mcp/store"
	"github.com/themikemoniker/nostr-intel-mcp/toolrouter"
)

// Subsystem is the logging tag used by the top-level wiring code.
const Subsystem = "MAIN"

var (
	logRotator = build.NewRotatingLogWriter()
	logConfig  = build.DefaultLogConfig()
	logMgr     = build.NewSubLoggerManager(
		build.NewDefaultLogHandlers(logConfig, logRotator)...,
	)

	log = build.NewSubLogger(Subsystem, genSubLogger)
)

// genSubLogger adapts the sub-logger manager's GenSubLogger method, which
// takes a shutdown callback, to the func(string) btclog.Logger signature
// expected by build.NewSubLogger. No shutdown action is needed here.
func genSubLogger(subsystem string) btclog.Logger {
	return logMgr.GenSubLogger(subsystem, func() {})
}

func init() {
	setSubLogger(Subsystem, log, nil)
	addSubLogger(store.Subsystem, store.UseLogger)
	addSubLogger(relaypool.Subsystem, relaypool.UseLogger)
	addSubLogger(aggregate.Subsystem, aggregate.UseLogger)
	addSubLogger(intel.Subsystem, intel.UseLogger)
	addSubLogger(invoicegateway.Subsystem, invoicegateway.UseLogger)
	addSubLogger(paywall.Subsystem, paywall.UseLogger)
	addSubLogger(l402.Subsystem, l402.UseLogger)
	addSubLogger(toolrouter.Subsystem, toolrouter.UseLogger)
	addSubLogger(mcpserver.Subsystem, mcpserver.UseLogger)
}

// addSubLogger is a helper method to conveniently create and register the
// logger of a sub system.
func addSubLogger(subsystem string, useLogger func(btclog.Logger)) {
	logger := build.NewSubLogger(subsystem, genSubLogger)
	setSubLogger(subsystem, logger, useLogger)
}

// setSubLogger is a helper method to conveniently register the logger of a
// sub system.
func setSubLogger(subsystem string, logger btclog.Logger,
	useLogger func(btclog.Logger)) {

	logMgr.RegisterSubLogger(subsystem, logger)
	if useLogger != nil {
		useLogger(logger)
	}
}
