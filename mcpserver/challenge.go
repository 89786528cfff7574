package mcpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/themikemoniker/nostr-intel-mcp/toolrouter"
)

// challengeResponse is the JSON body returned alongside the 402 status and
// WWW-Authenticate header.
type challengeResponse struct {
	Tool        string `json:"tool"`
	AmountSats  int64  `json:"amount_sats"`
	Invoice     string `json:"invoice"`
	PaymentHash string `json:"payment_hash"`
}

// handleChallenge serves GET /l402/challenge/{tool_name}: it issues a
// fresh invoice for toolName at its base price and returns the L402
// WWW-Authenticate challenge a client presents back on its next tool call.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	toolName := strings.TrimPrefix(r.URL.Path, "/l402/challenge/")
	if toolName == "" {
		http.NotFound(w, r)
		return
	}
	if !isPaidTool(toolName) {
		http.NotFound(w, r)
		return
	}
	if s.s.Invoices == nil || s.s.L402Manager == nil {
		http.Error(w, "payment system unavailable", http.StatusServiceUnavailable)
		return
	}

	amount, ok := s.s.Pricer.Price(toolName)
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	expirySecs := s.s.InvoiceExpirySecs
	if expirySecs == 0 {
		expirySecs = 300
	}
	inv, err := s.s.Invoices.CreateInvoice(ctx, toolName, uint64(amount),
		"nostr-intel: "+toolName, expirySecs)
	if err != nil {
		http.Error(w, "payment system unavailable", http.StatusServiceUnavailable)
		return
	}

	expires := uint64(time.Now().Unix()) + expirySecs
	token := s.s.L402Manager.CreateChallenge(inv.InvoiceBolt11, inv.PaymentHash, toolName, expires)

	w.Header().Set("WWW-Authenticate", token)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	json.NewEncoder(w).Encode(challengeResponse{
		Tool:        toolName,
		AmountSats:  amount,
		Invoice:     inv.InvoiceBolt11,
		PaymentHash: inv.PaymentHash,
	})
}

func isPaidTool(toolName string) bool {
	for _, t := range toolrouter.PaidTools {
		if t == toolName {
			return true
		}
	}
	return false
}
