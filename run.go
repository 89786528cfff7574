package nostrintel

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/lightningnetwork/lnd/build"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/themikemoniker/nostr-intel-mcp/aggregate"
	"github.com/themikemoniker/nostr-intel-mcp/httpfetch"
	"github.com/themikemoniker/nostr-intel-mcp/intel"
	"github.com/themikemoniker/nostr-intel-mcp/invoicegateway"
	"github.com/themikemoniker/nostr-intel-mcp/l402"
	"github.com/themikemoniker/nostr-intel-mcp/mcpserver"
	"github.com/themikemoniker/nostr-intel-mcp/metrics"
	"github.com/themikemoniker/nostr-intel-mcp/paywall"
	"github.com/themikemoniker/nostr-intel-mcp/pricer"
	"github.com/themikemoniker/nostr-intel-mcp/relaypool"
	"github.com/themikemoniker/nostr-intel-mcp/store"
	"github.com/themikemoniker/nostr-intel-mcp/x402"
)

const (
	defaultLogFilename    = "nostr-intel-mcp.log"
	defaultMaxLogFileSize = 10
	defaultMaxLogFiles    = 3
	defaultLogLevel       = "info"

	httpFetchRequestsPerSecond = 5
	httpFetchBurst             = 10
)

// Main is the process entrypoint: parse configuration, wire every
// component, and run until a shutdown signal arrives or the transport
// returns.
func Main(configFile string) error {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return fmt.Errorf("unable to set up logging: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if dir := filepath.Dir(cfg.Cache.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("unable to create cache directory: %w", err)
		}
	}
	s, err := store.Open(cfg.Cache.DatabasePath,
		time.Duration(cfg.Cache.ProfileTTLSeconds)*time.Second,
		time.Duration(cfg.Cache.RelayInfoTTLSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("unable to open cache: %w", err)
	}
	defer s.Close()

	go runCacheJanitor(ctx, s)

	pool := relaypool.New(ctx, cfg.Relays.Default)
	defer pool.Close()

	fetcher := httpfetch.New(httpFetchRequestsPerSecond, httpFetchBurst)
	tools := intel.New(fetcher, s, pool)
	agg := aggregate.New(pool, s)
	pr := pricer.New(pricer.Config{
		SearchEventsBase: cfg.Pricing.SearchEventsBase,
		RelayDiscovery:   cfg.Pricing.RelayDiscovery,
		TrendingNotes:    cfg.Pricing.TrendingNotes,
		GetFollowerGraph: cfg.Pricing.GetFollowerGraph,
		ZapAnalytics:     cfg.Pricing.ZapAnalytics,
	})

	var (
		invoices    *invoicegateway.Gateway
		l402Manager *l402.Manager
	)
	if cfg.Payment.NwcURL != "" {
		invoices, err = invoicegateway.New(ctx, cfg.Payment.NwcURL)
		if err != nil {
			return fmt.Errorf("unable to connect wallet gateway: %w", err)
		}
		defer invoices.Close()
	}
	if cfg.Payment.EnableL402 {
		l402Manager, err = l402.New(cfg.Payment.L402Secret)
		if err != nil {
			return fmt.Errorf("unable to start L402 manager: %w", err)
		}
	}
	if cfg.Payment.EnableX402 {
		stub := x402.New()
		log.Warnf("x402 payment mode is enabled but non-functional; "+
			"payments advertised for %s will never verify",
			stub.PaymentDetails().Address)
	}

	var issuer paywall.InvoiceIssuer
	if invoices != nil {
		issuer = invoices
	}
	gate := paywall.New(s, issuer, int(cfg.FreeTier.CallsPerDay),
		cfg.Payment.InvoiceExpirySeconds)

	metrics.Register()

	srv := mcpserver.New(mcpserver.Singletons{
		Tools:             tools,
		Aggregate:         agg,
		Gate:              gate,
		Pricer:            pr,
		Invoices:          issuer,
		L402Manager:       l402Manager,
		InvoiceExpirySecs: cfg.Payment.InvoiceExpirySeconds,
	}, cfg.Server.Name, cfg.Server.Version)

	switch cfg.Server.Transport {
	case "stdio":
		log.Infof("Starting %s over stdio.", cfg.Server.Name)
		return srv.ServeStdio(ctx)
	case "http":
		return serveHTTP(ctx, srv, cfg)
	default:
		return fmt.Errorf("unsupported transport %q", cfg.Server.Transport)
	}
}

// serveHTTP runs the streaming HTTP transport in cleartext (h2c). TLS
// termination is expected to sit in front of this server, in a reverse
// proxy or the hosting platform.
func serveHTTP(ctx context.Context, srv *mcpserver.Server, cfg *Config) error {
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	handler := h2c.NewHandler(srv.HTTPHandler(), &http2.Server{})
	httpServer := &http.Server{Addr: addr, Handler: handler}

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()

	log.Infof("Starting %s, listening on %s.", cfg.Server.Name, addr)

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return httpServer.Shutdown(context.Background())
	}
}

// runCacheJanitor deletes expired cache rows and prior days' rate-limit
// counters once an hour until ctx is cancelled.
func runCacheJanitor(ctx context.Context, s *store.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.CleanupExpired(ctx); err != nil {
				log.Warnf("cache cleanup failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// setupLogging parses the debug level and initializes the log file
// rotator before any component logs a line.
func setupLogging(cfg *Config) error {
	if cfg.Server.DebugLevel == "" {
		cfg.Server.DebugLevel = defaultLogLevel
	}

	logConfig.File.MaxLogFileSize = defaultMaxLogFileSize
	logConfig.File.MaxLogFiles = defaultMaxLogFiles

	err := logRotator.InitLogRotator(logConfig.File, defaultLogFilename)
	if err != nil {
		return err
	}

	return build.ParseAndSetDebugLevels(cfg.Server.DebugLevel, logMgr)
}
