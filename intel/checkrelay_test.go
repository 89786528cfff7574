package intel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/themikemoniker/nostr-intel-mcp/httpfetch"
	"github.com/themikemoniker/nostr-intel-mcp/store"
)

const testPubkeyHex = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

func testStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path, time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCheckRelayOnlineAndCached(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"test-relay","description":"a test relay","software":"golang",
			"version":"1.0","supported_nips":[1,11]}`))
	}))
	defer srv.Close()

	s := testStore(t)
	tools := New(httpfetch.New(100, 10), s, nil)

	result, err := tools.CheckRelay(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CheckRelay: %v", err)
	}
	if !result.Online {
		t.Fatal("Online = false, want true")
	}
	if result.Name != "test-relay" || result.Software != "golang" {
		t.Errorf("result = %+v, unexpected fields", result)
	}
	if result.LatencyMS == nil {
		t.Error("LatencyMS = nil, want populated")
	}

	cached, ok, err := s.GetRelay(context.Background(), srv.URL)
	if err != nil || !ok {
		t.Fatalf("expected relay to be cached after a successful probe, ok=%v err=%v", ok, err)
	}
	if cached.Name != "test-relay" {
		t.Errorf("cached.Name = %q, want test-relay", cached.Name)
	}
}

func TestCheckRelayOfflineOnHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := testStore(t)
	tools := New(httpfetch.New(100, 10), s, nil)

	result, err := tools.CheckRelay(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("CheckRelay: %v", err)
	}
	if result.Online {
		t.Error("Online = true, want false")
	}
	if result.Description == "" {
		t.Error("Description = \"\", want an error description")
	}

	if _, ok, _ := s.GetRelay(context.Background(), srv.URL); ok {
		t.Error("a failed probe must not be cached")
	}
}

func TestCheckRelayUsesCacheOnSecondCall(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"cached-relay"}`))
	}))
	defer srv.Close()

	s := testStore(t)
	tools := New(httpfetch.New(100, 10), s, nil)

	if _, err := tools.CheckRelay(context.Background(), srv.URL); err != nil {
		t.Fatalf("first CheckRelay: %v", err)
	}
	if _, err := tools.CheckRelay(context.Background(), srv.URL); err != nil {
		t.Fatalf("second CheckRelay: %v", err)
	}
	if calls != 1 {
		t.Errorf("server received %d requests, want 1 (second call should hit cache)", calls)
	}
}
