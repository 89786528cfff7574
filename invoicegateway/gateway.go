// Package invoicegateway wraps a Nostr Wallet Connect (NIP-47) peer as
// an invoice-issuing, payment-verifying backend. It speaks the protocol
// directly over a single relay connection using go-nostr's event and
// NIP-04 encryption primitives: a request is an encrypted kind:23194
// event addressed to the wallet's service pubkey, and the matching
// response is an encrypted kind:23195 event tagged back to the request.
package invoicegateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"
)

const (
	kindNWCRequest  = 23194
	kindNWCResponse = 23195

	// responseTimeout bounds how long create_invoice/verify_payment
	// wait for the wallet's NIP-47 response event.
	responseTimeout = 20 * time.Second
)

// Invoice is the result of a successful CreateInvoice call.
type Invoice struct {
	InvoiceBolt11 string
	PaymentHash   string
	AmountSats    uint64
	ExpiresAt     *int64
}

// PendingInvoice tracks an invoice this gateway has issued but not yet
// seen settled.
type PendingInvoice struct {
	ToolName   string
	AmountSats uint64
	ExpiresAt  int64
}

// Gateway holds a single NWC wallet connection and the set of invoices
// issued through it that have not yet been confirmed settled.
type Gateway struct {
	relay        *nostr.Relay
	walletPubkey string
	clientSecret string
	clientPubkey string

	mu      sync.RWMutex
	pending map[string]PendingInvoice
}

// connectionURI is the parsed form of a nostr+walletconnect:// URI.
type connectionURI struct {
	walletPubkey string
	relayURL     string
	clientSecret string
}

// parseConnectionURI parses a NIP-47 connection string of the form
// nostr+walletconnect://<wallet-pubkey>?relay=<url>&secret=<hex-privkey>.
func parseConnectionURI(raw string) (connectionURI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return connectionURI{}, fmt.Errorf("invalid NWC URI: %w", err)
	}
	if u.Scheme != "nostr+walletconnect" {
		return connectionURI{}, fmt.Errorf("invalid NWC URI scheme %q", u.Scheme)
	}

	walletPubkey := u.Host
	if walletPubkey == "" {
		walletPubkey = strings.TrimPrefix(u.Opaque, "//")
	}
	if len(walletPubkey) != 64 {
		return connectionURI{}, fmt.Errorf("invalid NWC wallet pubkey")
	}

	relayURL := u.Query().Get("relay")
	secret := u.Query().Get("secret")
	if relayURL == "" || secret == "" {
		return connectionURI{}, fmt.Errorf("NWC URI missing relay or secret")
	}

	return connectionURI{
		walletPubkey: walletPubkey,
		relayURL:     relayURL,
		clientSecret: secret,
	}, nil
}

// New connects to the relay named in nwcURL and returns a Gateway ready
// to issue invoices and verify payments against the wallet it names.
func New(ctx context.Context, nwcURL string) (*Gateway, error) {
	conn, err := parseConnectionURI(nwcURL)
	if err != nil {
		return nil, err
	}

	clientPubkey, err := nostr.GetPublicKey(conn.clientSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid NWC client secret: %w", err)
	}

	relay, err := nostr.RelayConnect(ctx, conn.relayURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NWC relay: %w", err)
	}

	return &Gateway{
		relay:        relay,
		walletPubkey: conn.walletPubkey,
		clientSecret: conn.clientSecret,
		clientPubkey: clientPubkey,
		pending:      make(map[string]PendingInvoice),
	}, nil
}

// Close tears down the gateway's relay connection.
func (g *Gateway) Close() {
	g.relay.Close()
}

type makeInvoiceParams struct {
	Amount      uint64 `json:"amount"`
	Description string `json:"description,omitempty"`
	Expiry      uint64 `json:"expiry,omitempty"`
}

type lookupInvoiceParams struct {
	PaymentHash string `json:"payment_hash"`
}

type nwcRequest struct {
	Method string `json:"method"`
	Params any    `json:"params"`
}

type nwcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type makeInvoiceResult struct {
	Invoice     string `json:"invoice"`
	PaymentHash string `json:"payment_hash"`
	ExpiresAt   *int64 `json:"expires_at"`
}

type lookupInvoiceResult struct {
	Invoice     string `json:"invoice"`
	PaymentHash string `json:"payment_hash"`
	SettledAt   *int64 `json:"settled_at"`
}

type nwcResponse struct {
	ResultType string          `json:"result_type"`
	Error      *nwcError       `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// call encrypts req, publishes it as a kind:23194 event, waits for the
// matching kind:23195 response, decrypts it, and returns the parsed
// envelope.
func (g *Gateway) call(ctx context.Context, req nwcRequest) (*nwcResponse, error) {
	sharedSecret, err := nip04.ComputeSharedSecret(g.walletPubkey, g.clientSecret)
	if err != nil {
		return nil, fmt.Errorf("NWC shared secret: %w", err)
	}

	plaintext, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("NWC request encode: %w", err)
	}

	ciphertext, err := nip04.Encrypt(string(plaintext), sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("NWC request encrypt: %w", err)
	}

	event := nostr.Event{
		PubKey:    g.clientPubkey,
		CreatedAt: nostr.Now(),
		Kind:      kindNWCRequest,
		Tags:      nostr.Tags{{"p", g.walletPubkey}},
		Content:   ciphertext,
	}
	if err := event.Sign(g.clientSecret); err != nil {
		return nil, fmt.Errorf("NWC request sign: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, responseTimeout)
	defer cancel()

	sub, err := g.relay.Subscribe(callCtx, []nostr.Filter{{
		Kinds:   []int{kindNWCResponse},
		Authors: []string{g.walletPubkey},
		Tags:    nostr.TagMap{"e": {event.ID}, "p": {g.clientPubkey}},
	}})
	if err != nil {
		return nil, fmt.Errorf("NWC response subscribe: %w", err)
	}
	defer sub.Unsub()

	if err := g.relay.Publish(callCtx, event); err != nil {
		return nil, fmt.Errorf("NWC request publish: %w", err)
	}

	select {
	case ev, ok := <-sub.Events:
		if !ok {
			return nil, fmt.Errorf("NWC response channel closed")
		}

		respPlaintext, err := nip04.Decrypt(ev.Content, sharedSecret)
		if err != nil {
			return nil, fmt.Errorf("NWC response decrypt: %w", err)
		}

		var resp nwcResponse
		if err := json.Unmarshal([]byte(respPlaintext), &resp); err != nil {
			return nil, fmt.Errorf("NWC response decode: %w", err)
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("NWC error %s: %s", resp.Error.Code, resp.Error.Message)
		}
		return &resp, nil

	case <-callCtx.Done():
		return nil, fmt.Errorf("NWC request timed out: %w", callCtx.Err())
	}
}

// CreateInvoice asks the wallet to mint a bolt11 invoice for amountSats,
// converting to millisatoshi on the wire, and records a PendingInvoice
// keyed by the returned payment hash.
func (g *Gateway) CreateInvoice(ctx context.Context, toolName string,
	amountSats uint64, description string, expirySecs uint64) (Invoice, error) {

	resp, err := g.call(ctx, nwcRequest{
		Method: "make_invoice",
		Params: makeInvoiceParams{
			Amount:      amountSats * 1000,
			Description: description,
			Expiry:      expirySecs,
		},
	})
	if err != nil {
		return Invoice{}, err
	}

	var result makeInvoiceResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return Invoice{}, fmt.Errorf("NWC make_invoice result decode: %w", err)
	}
	if result.PaymentHash == "" {
		return Invoice{}, fmt.Errorf("NWC make_invoice returned no payment_hash")
	}

	g.mu.Lock()
	g.pending[result.PaymentHash] = PendingInvoice{
		ToolName:   toolName,
		AmountSats: amountSats,
		ExpiresAt:  derefOr(result.ExpiresAt, 0),
	}
	g.mu.Unlock()

	return Invoice{
		InvoiceBolt11: result.Invoice,
		PaymentHash:   result.PaymentHash,
		AmountSats:    amountSats,
		ExpiresAt:     result.ExpiresAt,
	}, nil
}

// VerifyPayment asks the wallet to look up payment_hash and reports
// whether it has been settled. A settled result removes the matching
// PendingInvoice; this makes the method idempotent under repeated
// polling.
func (g *Gateway) VerifyPayment(ctx context.Context, paymentHash string) (bool, error) {
	resp, err := g.call(ctx, nwcRequest{
		Method: "lookup_invoice",
		Params: lookupInvoiceParams{PaymentHash: paymentHash},
	})
	if err != nil {
		return false, err
	}

	var result lookupInvoiceResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return false, fmt.Errorf("NWC lookup_invoice result decode: %w", err)
	}

	settled := result.SettledAt != nil
	if settled {
		g.mu.Lock()
		delete(g.pending, paymentHash)
		g.mu.Unlock()
	}

	return settled, nil
}

// Pending returns the invoice still awaiting settlement for paymentHash,
// if any.
func (g *Gateway) Pending(paymentHash string) (PendingInvoice, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.pending[paymentHash]
	return p, ok
}

func derefOr(v *int64, fallback int64) int64 {
	if v == nil {
		return fallback
	}
	return *v
}
