package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/themikemoniker/nostr-intel-mcp/invoicegateway"
	"github.com/themikemoniker/nostr-intel-mcp/l402"
	"github.com/themikemoniker/nostr-intel-mcp/pricer"
	"github.com/themikemoniker/nostr-intel-mcp/toolrouter"
)

func TestToolDefinitionsCoverFixedCatalogue(t *testing.T) {
	t.Parallel()

	defs := toolDefinitions()
	names := make(map[string]bool, len(defs))
	for _, d := range defs {
		names[d.Name] = true
		require.NotEmpty(t, d.Description)
		require.Equal(t, "object", d.InputSchema.Type)
	}

	for _, name := range append(append([]string{}, toolrouter.FreeTools...), toolrouter.PaidTools...) {
		require.True(t, names[name], "missing tool definition for %q", name)
	}
	require.Len(t, defs, len(toolrouter.FreeTools)+len(toolrouter.PaidTools))
}

func TestIsPaidToolMatchesPaidCatalogueOnly(t *testing.T) {
	t.Parallel()

	for _, name := range toolrouter.PaidTools {
		require.True(t, isPaidTool(name))
	}
	for _, name := range toolrouter.FreeTools {
		require.False(t, isPaidTool(name))
	}
	require.False(t, isPaidTool("not_a_tool"))
}

type fakeIssuer struct {
	inv invoicegateway.Invoice
	err error
}

func (f *fakeIssuer) CreateInvoice(_ context.Context, _ string, amountSats uint64,
	_ string, _ uint64) (invoicegateway.Invoice, error) {

	if f.err != nil {
		return invoicegateway.Invoice{}, f.err
	}
	inv := f.inv
	inv.AmountSats = amountSats
	return inv, nil
}

func (f *fakeIssuer) VerifyPayment(context.Context, string) (bool, error) {
	return false, nil
}

func newChallengeTestServer(t *testing.T, issuer *fakeIssuer) *Server {
	t.Helper()

	mgr, err := l402.New(strings.Repeat("ab", 32))
	require.NoError(t, err)

	s := Singletons{
		Pricer: pricer.New(pricer.Config{
			SearchEventsBase: 10,
			RelayDiscovery:   5,
			TrendingNotes:    8,
			GetFollowerGraph: 12,
			ZapAnalytics:     8,
		}),
		L402Manager:       mgr,
		InvoiceExpirySecs: 300,
	}
	if issuer != nil {
		s.Invoices = issuer
	}
	return New(s, "test", "0.0.1")
}

func TestChallengeEndpointReturns402WithHeader(t *testing.T) {
	t.Parallel()

	issuer := &fakeIssuer{inv: invoicegateway.Invoice{
		InvoiceBolt11: "lnbc100n1fakeinvoice",
		PaymentHash:   "cafe0123",
	}}
	srv := newChallengeTestServer(t, issuer)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/l402/challenge/search_events", nil)
	srv.HTTPHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	header := rec.Header().Get("WWW-Authenticate")
	require.True(t, strings.HasPrefix(header, `L402 invoice="lnbc`), header)
	require.Contains(t, header, `token="`)

	var body struct {
		Tool        string `json:"tool"`
		AmountSats  int64  `json:"amount_sats"`
		Invoice     string `json:"invoice"`
		PaymentHash string `json:"payment_hash"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "search_events", body.Tool)
	require.EqualValues(t, 10, body.AmountSats)
	require.Equal(t, "lnbc100n1fakeinvoice", body.Invoice)
	require.Equal(t, "cafe0123", body.PaymentHash)
}

func TestChallengeEndpointWithoutGatewayReturns503(t *testing.T) {
	t.Parallel()

	srv := newChallengeTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/l402/challenge/search_events", nil)
	srv.HTTPHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChallengeEndpointUnknownToolReturns404(t *testing.T) {
	t.Parallel()

	srv := newChallengeTestServer(t, &fakeIssuer{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/l402/challenge/not_a_tool", nil)
	srv.HTTPHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeClientSession struct {
	id       string
	notifyCh chan mcp.JSONRPCNotification
}

func (f *fakeClientSession) SessionID() string { return f.id }
func (f *fakeClientSession) Initialize()       {}
func (f *fakeClientSession) Initialized() bool { return true }
func (f *fakeClientSession) NotificationChannel() chan<- mcp.JSONRPCNotification {
	return f.notifyCh
}

// Each HTTP session must map to one stable "http-<N>" identity so every
// tool call within it draws from the same daily quota row; the stdio
// transport is always the single "stdio" session.
func TestSessionIDStablePerHTTPSession(t *testing.T) {
	t.Parallel()

	srv := newChallengeTestServer(t, nil)
	require.Equal(t, "stdio", srv.sessionIDFor(context.Background()))

	srv.httpMode.Store(true)

	sessA := &fakeClientSession{id: "mcp-opaque-a", notifyCh: make(chan mcp.JSONRPCNotification, 1)}
	sessB := &fakeClientSession{id: "mcp-opaque-b", notifyCh: make(chan mcp.JSONRPCNotification, 1)}

	ctxA := srv.mcp.WithContext(context.Background(), sessA)
	ctxB := srv.mcp.WithContext(context.Background(), sessB)

	idA := srv.sessionIDFor(ctxA)
	idB := srv.sessionIDFor(ctxB)

	require.Equal(t, "http-1", idA)
	require.Equal(t, "http-2", idB)
	require.Equal(t, idA, srv.sessionIDFor(ctxA))
	require.Equal(t, idB, srv.sessionIDFor(ctxB))
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newChallengeTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.HTTPHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
