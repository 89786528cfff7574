package nostrintel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testConfigTOML = `
[server]
name = "nostr-intel-mcp"
version = "0.1.0"
transport = "stdio"
http_port = 8080

[relays]
default = ["wss://relay.damus.io"]

[cache]
database_path = "test.db"
profile_ttl_seconds = 3600
relay_info_ttl_seconds = 3600

[free_tier]
calls_per_day = 10

[pricing]
search_events_base = 10
relay_discovery = 5
trending_notes = 8
get_follower_graph = 12
zap_analytics = 8

[payment]
nwc_url = "nostr+walletconnect://abc"
invoice_expiry_seconds = 300
l402_secret = ""
enable_l402 = false
enable_x402 = false
`

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, testConfigTOML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "nostr-intel-mcp", cfg.Server.Name)
	require.Equal(t, []string{"wss://relay.damus.io"}, cfg.Relays.Default)
	require.EqualValues(t, 10, cfg.FreeTier.CallsPerDay)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("NWC_URL", "nostr+walletconnect://override")
	t.Setenv("L402_SECRET", "deadbeef")
	t.Setenv("MCP_TRANSPORT", "http")

	path := writeTestConfig(t, testConfigTOML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "nostr+walletconnect://override", cfg.Payment.NwcURL)
	require.Equal(t, "deadbeef", cfg.Payment.L402Secret)
	require.Equal(t, "http", cfg.Server.Transport)
}

func TestLoadConfigRejectsMissingRelays(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, `
[server]
name = "x"
version = "0"
transport = "stdio"

[relays]
default = []

[cache]
database_path = "test.db"
profile_ttl_seconds = 1
relay_info_ttl_seconds = 1

[free_tier]
calls_per_day = 1

[pricing]
search_events_base = 1
relay_discovery = 1
trending_notes = 1
get_follower_graph = 1
zap_analytics = 1

[payment]
nwc_url = ""
invoice_expiry_seconds = 1
l402_secret = ""
enable_l402 = false
enable_x402 = false
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigRequiresL402SecretWhenEnabled(t *testing.T) {
	t.Parallel()

	body := testConfigTOML
	path := writeTestConfig(t, body)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	cfg.Payment.EnableL402 = true
	cfg.Payment.L402Secret = ""
	require.Error(t, cfg.validate())
}
