package intel

import (
	"context"
	"testing"

	"github.com/themikemoniker/nostr-intel-mcp/httpfetch"
	"github.com/themikemoniker/nostr-intel-mcp/relaypool"
)

func TestSearchEventsEmptyPoolReturnsEmptyResult(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := relaypool.New(ctx, nil)
	tools := New(httpfetch.New(100, 10), testStore(t), pool)

	result, err := tools.SearchEvents(ctx, nil, []int{1}, "bitcoin", 24, 10)
	if err != nil {
		t.Fatalf("SearchEvents: %v", err)
	}
	if result.Count != 0 || len(result.Events) != 0 {
		t.Errorf("result = %+v, want empty result over an empty pool", result)
	}
}
