// Package paywall implements the single decision point every paid tool
// call passes through: verify a presented payment, else check the
// caller's free-tier quota, else hand back an invoice or a
// free-tier-exhausted notice. It is the only place in this server that
// decides whether a call proceeds or is deferred for payment.
package paywall

import (
	"context"
	"errors"
	"fmt"

	"github.com/themikemoniker/nostr-intel-mcp/invoicegateway"
	"github.com/themikemoniker/nostr-intel-mcp/store"
)

// ErrPaymentSystemUnavailable is returned when a payment_hash is
// presented but no wallet gateway is configured to verify it.
var ErrPaymentSystemUnavailable = errors.New("payment system not configured")

// ErrPaymentUnconfirmed is returned when a presented payment_hash does
// not (yet) correspond to a settled invoice.
var ErrPaymentUnconfirmed = errors.New("Payment not confirmed. Invoice may be unpaid or expired.")

// Outcome distinguishes the two shapes a Decision can take.
type Outcome int

const (
	// Proceed means the caller may execute the tool body.
	Proceed Outcome = iota
	// EarlyReturn means the caller must hand Response back to the MCP
	// client as a successful tool result instead of running the tool.
	EarlyReturn
)

// Decision is the result of a single gate evaluation.
type Decision struct {
	Outcome   Outcome
	Response  PaymentRequiredResponse
	Exhausted FreeTierExhaustedResponse
}

// PaymentRequiredResponse is returned, as a successful tool result, when
// the free tier is exhausted but a wallet gateway is available to accept
// payment.
type PaymentRequiredResponse struct {
	PaymentRequired bool   `json:"payment_required"`
	ToolName        string `json:"tool_name"`
	AmountSats      int64  `json:"amount_sats"`
	Invoice         string `json:"invoice"`
	PaymentHash     string `json:"payment_hash"`
	Message         string `json:"message"`
}

// FreeTierExhaustedResponse is returned, as a successful tool result,
// when the free tier is exhausted and no wallet gateway is configured.
type FreeTierExhaustedResponse struct {
	FreeTierExhausted bool   `json:"free_tier_exhausted"`
	CallsUsed         int    `json:"calls_used"`
	CallsLimit        int    `json:"calls_limit"`
	Message           string `json:"message"`
	PaymentAvailable  bool   `json:"payment_available"`
}

// InvoiceIssuer is the subset of *invoicegateway.Gateway this package
// depends on. Declaring it here rather than depending on the concrete
// type lets tests exercise the gate's payment-required and
// payment-verified paths against a fake.
type InvoiceIssuer interface {
	CreateInvoice(ctx context.Context, toolName string, amountSats uint64,
		description string, expirySecs uint64) (invoicegateway.Invoice, error)
	VerifyPayment(ctx context.Context, paymentHash string) (bool, error)
}

// Gate evaluates payment_hash/free-tier-quota decisions for every paid
// tool call. Store, the invoice gateway, and the daily quota are shared
// across every session; the Gate itself holds no per-call state.
type Gate struct {
	store      *store.Store
	invoices   InvoiceIssuer
	dailyLimit int
	expirySecs uint64
}

// New builds a Gate. invoices may be nil, meaning no wallet is
// configured, in which case paid tools serve free-tier traffic only.
// expirySecs is the expiry requested on every invoice this gate issues.
func New(s *store.Store, invoices InvoiceIssuer, dailyLimit int,
	expirySecs uint64) *Gate {

	return &Gate{
		store:      s,
		invoices:   invoices,
		dailyLimit: dailyLimit,
		expirySecs: expirySecs,
	}
}

// Check runs the payment-gate decision algorithm for one call: toolName
// identifies the tool for invoice description/bookkeeping purposes,
// amountSats is its configured price, paymentHash is the caller-supplied
// proof of payment (empty if none), and sessionID identifies the caller
// for free-tier accounting.
func (g *Gate) Check(ctx context.Context, toolName string, amountSats int64,
	paymentHash, sessionID string) (Decision, error) {

	if paymentHash != "" {
		return g.checkPayment(ctx, paymentHash)
	}

	return g.checkFreeTier(ctx, toolName, amountSats, sessionID)
}

func (g *Gate) checkPayment(ctx context.Context, paymentHash string) (Decision, error) {
	if g.invoices == nil {
		return Decision{}, ErrPaymentSystemUnavailable
	}

	settled, err := g.invoices.VerifyPayment(ctx, paymentHash)
	if err != nil {
		return Decision{}, err
	}
	if !settled {
		return Decision{}, ErrPaymentUnconfirmed
	}

	return Decision{Outcome: Proceed}, nil
}

func (g *Gate) checkFreeTier(ctx context.Context, toolName string,
	amountSats int64, sessionID string) (Decision, error) {

	dayOrdinal := store.DayOrdinal(g.store.Now())

	underLimit, err := g.store.CheckAndIncrementRate(ctx, sessionID, dayOrdinal, g.dailyLimit)
	if err != nil {
		// Fail open: storage errors never block a call, they only get
		// logged.
		log.Warnf("rate limit check failed for session %s, allowing call: %v",
			sessionID, err)
		return Decision{Outcome: Proceed}, nil
	}
	if underLimit {
		return Decision{Outcome: Proceed}, nil
	}

	if g.invoices == nil {
		callsUsed, err := g.store.GetRateCount(ctx, sessionID, dayOrdinal)
		if err != nil {
			log.Warnf("rate count lookup failed for session %s: %v", sessionID, err)
			callsUsed = 0
		}

		return Decision{
			Outcome: EarlyReturn,
			Exhausted: FreeTierExhaustedResponse{
				FreeTierExhausted: true,
				CallsUsed:         callsUsed,
				CallsLimit:        g.dailyLimit,
				Message: fmt.Sprintf("Free tier exhausted (%d/%d calls used today). "+
					"Payment system is not currently available. Free tier resets "+
					"daily.", callsUsed, g.dailyLimit),
				PaymentAvailable: false,
			},
		}, nil
	}

	description := fmt.Sprintf("nostr-intel: %s", toolName)
	inv, err := g.invoices.CreateInvoice(ctx, toolName, uint64(amountSats),
		description, g.expirySecs)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Outcome: EarlyReturn,
		Response: PaymentRequiredResponse{
			PaymentRequired: true,
			ToolName:        toolName,
			AmountSats:      amountSats,
			Invoice:         inv.InvoiceBolt11,
			PaymentHash:     inv.PaymentHash,
			Message: fmt.Sprintf("Free tier exhausted. Payment required: %d sats. "+
				"Pay the invoice, then retry with the payment_hash parameter.",
				amountSats),
		},
	}, nil
}
