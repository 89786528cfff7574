package nostrintel

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/lightningnetwork/lnd/build"
)

const (
	defaultConfigFilename = "config.toml"

	defaultProfileTTLSeconds   = 3600
	defaultRelayInfoTTLSeconds = 3600
	defaultInvoiceExpirySecs   = 300
)

// ServerConfig controls the MCP-facing identity and transport of the
// process.
type ServerConfig struct {
	Name       string `toml:"name"`
	Version    string `toml:"version"`
	Transport  string `toml:"transport"`
	HTTPPort   uint16 `toml:"http_port"`
	DebugLevel string `toml:"debug_level"`
}

// RelayConfig lists the relays queried when a tool call doesn't name its
// own.
type RelayConfig struct {
	Default []string `toml:"default"`
}

// CacheConfig points at the durable SQLite-backed cache and its TTLs.
type CacheConfig struct {
	DatabasePath        string `toml:"database_path"`
	ProfileTTLSeconds   uint64 `toml:"profile_ttl_seconds"`
	RelayInfoTTLSeconds uint64 `toml:"relay_info_ttl_seconds"`
}

// FreeTierConfig bounds the number of unpaid calls a session gets per day.
type FreeTierConfig struct {
	CallsPerDay uint32 `toml:"calls_per_day"`
}

// PricingConfig holds the base sat price of every paid tool.
type PricingConfig struct {
	SearchEventsBase int64 `toml:"search_events_base"`
	RelayDiscovery   int64 `toml:"relay_discovery"`
	TrendingNotes    int64 `toml:"trending_notes"`
	GetFollowerGraph int64 `toml:"get_follower_graph"`
	ZapAnalytics     int64 `toml:"zap_analytics"`
}

// PaymentConfig configures the wallet gateway and the L402 bearer-token
// scheme layered on top of it.
type PaymentConfig struct {
	NwcURL               string `toml:"nwc_url"`
	InvoiceExpirySeconds uint64 `toml:"invoice_expiry_seconds"`
	L402Secret           string `toml:"l402_secret"`
	EnableL402           bool   `toml:"enable_l402"`
	EnableX402           bool   `toml:"enable_x402"`
}

// Config is the full, parsed contents of config.toml.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Relays   RelayConfig    `toml:"relays"`
	Cache    CacheConfig    `toml:"cache"`
	FreeTier FreeTierConfig `toml:"free_tier"`
	Pricing  PricingConfig  `toml:"pricing"`
	Payment  PaymentConfig  `toml:"payment"`

	// Logging holds build's default log configuration. setupLogging does
	// not read it: the debug level applied comes from Server.DebugLevel.
	Logging *build.LogConfig `toml:"-"`
}

// NewConfig returns a Config populated with this server's defaults, before
// any config.toml or environment overrides are applied.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:       "nostr-intel-mcp",
			Version:    "0.1.0",
			Transport:  "stdio",
			HTTPPort:   8080,
			DebugLevel: "info",
		},
		Cache: CacheConfig{
			DatabasePath:        "./data/nostr-intel.db",
			ProfileTTLSeconds:   defaultProfileTTLSeconds,
			RelayInfoTTLSeconds: defaultRelayInfoTTLSeconds,
		},
		Payment: PaymentConfig{
			InvoiceExpirySeconds: defaultInvoiceExpirySecs,
		},
		Logging: build.DefaultLogConfig(),
	}
}

// LoadConfig reads and parses configFile (defaulting to config.toml in the
// working directory), then applies the NWC_URL, L402_SECRET, and
// MCP_TRANSPORT environment overrides documented for this server, each
// taking precedence over the file when non-empty.
func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = defaultConfigFilename
	}

	cfg := NewConfig()
	if _, err := toml.DecodeFile(configFile, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", configFile, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NWC_URL"); v != "" {
		cfg.Payment.NwcURL = v
	}
	if v := os.Getenv("L402_SECRET"); v != "" {
		cfg.Payment.L402Secret = v
	}
	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
}

func (c *Config) validate() error {
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("server.transport must be \"stdio\" or \"http\", "+
			"got %q", c.Server.Transport)
	}

	if c.Cache.DatabasePath == "" {
		return fmt.Errorf("cache.database_path must not be empty")
	}

	if len(c.Relays.Default) == 0 {
		return fmt.Errorf("relays.default must list at least one relay")
	}

	if c.Payment.EnableL402 && c.Payment.L402Secret == "" {
		return fmt.Errorf("payment.l402_secret must be set when " +
			"payment.enable_l402 is true")
	}

	return nil
}
