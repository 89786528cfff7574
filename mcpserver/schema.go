package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// toolDefinitions is the fixed MCP tool catalogue, one mcp.Tool literal
// per entry rather than the builder-function style mcp-go also offers;
// the schemas read better as data.
func toolDefinitions() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "decode_nostr_uri",
			Description: "Decode a bech32-encoded Nostr entity (npub, nsec, note, nprofile, nevent, naddr), with or without a nostr: prefix.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"uri": map[string]any{
						"type":        "string",
						"description": "The bech32 entity to decode, e.g. npub1... or nostr:npub1...",
					},
				},
				Required: []string{"uri"},
			},
		},
		{
			Name:        "resolve_nip05",
			Description: "Resolve a NIP-05 internet identifier (user@domain) to its pubkey and relay hints.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"nip05": map[string]any{
						"type":        "string",
						"description": "The NIP-05 identifier to resolve, e.g. bob@example.com",
					},
				},
				Required: []string{"nip05"},
			},
		},
		{
			Name:        "get_profile",
			Description: "Look up a Nostr profile by hex pubkey, npub, NIP-05 identifier, or free-text name.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"pubkey": map[string]any{
						"type":        "string",
						"description": "Hex pubkey, npub, NIP-05 identifier, or a free-text name to search for.",
					},
				},
				Required: []string{"pubkey"},
			},
		},
		{
			Name:        "check_relay",
			Description: "Probe a relay's liveness and NIP-11 self-description.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"relay_url": map[string]any{
						"type":        "string",
						"description": "The relay's websocket URL, e.g. wss://relay.damus.io",
					},
				},
				Required: []string{"relay_url"},
			},
		},
		{
			Name:        "search_profiles",
			Description: "Search profiles by display name or NIP-05-like text via Primal's cache.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Free-text name or partial NIP-05 identifier to search for.",
					},
					"limit": map[string]any{
						"type":        "number",
						"description": "Maximum number of profiles to return (default 5, max 20).",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "search_events",
			Description: "Search Nostr events across the relay pool by author, kind, and full-text query. Paid tool.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"authors": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Hex pubkeys to restrict the search to.",
					},
					"kinds": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "number"},
						"description": "Event kinds to restrict the search to.",
					},
					"search": map[string]any{
						"type":        "string",
						"description": "Relay-side full-text search query (NIP-50).",
					},
					"since_hours": map[string]any{
						"type":        "number",
						"description": "Only return events newer than this many hours ago.",
					},
					"limit": map[string]any{
						"type":        "number",
						"description": "Maximum number of events to return, clamped to 100.",
					},
					"payment_hash": map[string]any{
						"type":        "string",
						"description": "Payment hash proving a prior invoice was settled, once the free tier is exhausted.",
					},
				},
			},
		},
		{
			Name:        "relay_discovery",
			Description: "Discover a pubkey's advertised read/write relay list (NIP-65). Paid tool.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"pubkey": map[string]any{
						"type":        "string",
						"description": "Hex pubkey to discover relays for.",
					},
					"payment_hash": map[string]any{
						"type":        "string",
						"description": "Payment hash proving a prior invoice was settled, once the free tier is exhausted.",
					},
				},
				Required: []string{"pubkey"},
			},
		},
		{
			Name:        "trending_notes",
			Description: "Rank recent text notes by reaction and repost counts within a timeframe. Paid tool.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"timeframe": map[string]any{
						"type":        "string",
						"description": "A duration like 1h, 24h, 7d, or 1y (default 24h).",
					},
					"limit": map[string]any{
						"type":        "number",
						"description": "Maximum number of notes to return (default 20, max 50).",
					},
					"payment_hash": map[string]any{
						"type":        "string",
						"description": "Payment hash proving a prior invoice was settled, once the free tier is exhausted.",
					},
				},
			},
		},
		{
			Name:        "get_follower_graph",
			Description: "Assemble a pubkey's following set, follower set, and their mutual intersection. Paid tool.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"pubkey": map[string]any{
						"type":        "string",
						"description": "Hex pubkey to build the follower graph for.",
					},
					"depth": map[string]any{
						"type":        "number",
						"description": "Graph depth, 1 or 2 (depth 2 is priced double; see tool notes).",
					},
					"payment_hash": map[string]any{
						"type":        "string",
						"description": "Payment hash proving a prior invoice was settled, once the free tier is exhausted.",
					},
				},
				Required: []string{"pubkey"},
			},
		},
		{
			Name:        "zap_analytics",
			Description: "Summarize Lightning zaps received by a pubkey: totals, top zappers, top zapped notes, and a daily time series. Paid tool.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"pubkey": map[string]any{
						"type":        "string",
						"description": "Hex pubkey to analyse zaps for.",
					},
					"timeframe": map[string]any{
						"type":        "string",
						"description": "A duration like 1h, 24h, 7d, or 1y (default 30d).",
					},
					"payment_hash": map[string]any{
						"type":        "string",
						"description": "Payment hash proving a prior invoice was settled, once the free tier is exhausted.",
					},
				},
				Required: []string{"pubkey"},
			},
		},
	}
}
