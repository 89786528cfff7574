// Package l402 issues and verifies the bearer credentials this server
// hands out in exchange for a Lightning payment. Rather than full
// macaroons, tokens are a small self-contained JSON envelope: a payment
// hash, a caveat set binding the token to one tool name and an expiry,
// and an HMAC-SHA256 signature over all three. Whoever presents the
// token must also present the payment preimage that hashes to the bound
// payment_hash.
package l402

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
)

var (
	// ErrInvalidSecret is returned by New when the supplied secret is
	// too short to serve as an HMAC key for this scheme.
	ErrInvalidSecret = errors.New("l402: secret must be at least 32 bytes hex-encoded")

	// ErrInvalidToken is returned when a presented token cannot be
	// decoded, or is missing the "L402 <token>:<preimage>" shape.
	ErrInvalidToken = errors.New("l402: invalid token")

	// ErrExpired is returned by VerifyToken when the token's caveat expiry
	// has passed.
	ErrExpired = errors.New("l402: token expired")

	// ErrBadSignature is returned by VerifyToken when the token's signature
	// does not match what the secret would have produced.
	ErrBadSignature = errors.New("l402: signature verification failed")

	// ErrBadPreimage describes a presented preimage that does not hash
	// to the token's payment_hash. VerifyPreimage reports that case as
	// false and does not return this error.
	ErrBadPreimage = errors.New("l402: invalid preimage")

	minSecretLen = 32
)

// Caveats is the restriction set bound to a token: it is only good for one
// tool, and only until it expires.
type Caveats struct {
	Tool    string `json:"tool"`
	Expires uint64 `json:"expires"`
}

// Token is the decoded form of a bearer credential: a payment hash, the
// caveats it is bound to, and the HMAC signature over both.
type Token struct {
	PaymentHash string  `json:"payment_hash"`
	Caveats     Caveats `json:"caveats"`
	Signature   string  `json:"signature"`
}

// Manager signs and verifies Tokens using a single shared HMAC secret. It
// holds no other state and is safe for concurrent use by any number of
// goroutines.
type Manager struct {
	secret []byte
}

// New builds a Manager from a hex-encoded secret of at least 32 bytes.
func New(secretHex string) (*Manager, error) {
	secret, err := hex.DecodeString(secretHex)
	if err != nil || len(secret) < minSecretLen {
		return nil, ErrInvalidSecret
	}

	return &Manager{secret: secret}, nil
}

// sign computes the canonical HMAC-SHA256 signature over payment_hash ∥
// tool ∥ big-endian-u64(expires), returning it as lowercase hex.
func (m *Manager) sign(paymentHash string, caveats Caveats) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(paymentHash))
	mac.Write([]byte(caveats.Tool))

	var expiresBuf [8]byte
	binary.BigEndian.PutUint64(expiresBuf[:], caveats.Expires)
	mac.Write(expiresBuf[:])

	return hex.EncodeToString(mac.Sum(nil))
}

// CreateToken mints a base64-encoded bearer token bound to paymentHash,
// tool, and an expiry given as a Unix timestamp.
func (m *Manager) CreateToken(paymentHash, tool string, expiresUnix uint64) string {
	caveats := Caveats{Tool: tool, Expires: expiresUnix}
	token := Token{
		PaymentHash: paymentHash,
		Caveats:     caveats,
		Signature:   m.sign(paymentHash, caveats),
	}

	// Token marshaling of this fixed, all-string/uint64 struct cannot
	// fail.
	raw, _ := json.Marshal(token)

	return base64.StdEncoding.EncodeToString(raw)
}

// VerifyToken decodes and validates a base64-encoded token, checking both
// its expiry and its signature. now is injected by the caller so tests
// can exercise expiry deterministically.
func (m *Manager) VerifyToken(tokenB64 string, now time.Time) (Token, error) {
	raw, err := base64.StdEncoding.DecodeString(tokenB64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: invalid base64", ErrInvalidToken)
	}

	var token Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return Token{}, fmt.Errorf("%w: invalid json", ErrInvalidToken)
	}

	if token.Caveats.Expires > 0 && uint64(now.Unix()) > token.Caveats.Expires {
		return Token{}, ErrExpired
	}

	expected := m.sign(token.PaymentHash, token.Caveats)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(token.Signature)) != 1 {
		return Token{}, ErrBadSignature
	}

	return token, nil
}

// VerifyPreimage reports whether the hex-encoded preimage hashes, under
// SHA-256, to the hex-encoded payment hash. Any decoding failure is
// reported as a false result rather than an error.
func VerifyPreimage(paymentHashHex, preimageHex string) bool {
	preimage, err := lntypes.MakePreimageFromStr(preimageHex)
	if err != nil {
		return false
	}
	hash, err := lntypes.MakeHashFromStr(paymentHashHex)
	if err != nil {
		return false
	}

	return preimage.Matches(hash)
}

// CreateChallenge builds the WWW-Authenticate header value offered in a
// 402 Payment Required response: L402 invoice="<inv>", token="<b64>".
func (m *Manager) CreateChallenge(invoice, paymentHash, tool string, expiresUnix uint64) string {
	token := m.CreateToken(paymentHash, tool, expiresUnix)
	return fmt.Sprintf(`L402 invoice="%s", token="%s"`, invoice, token)
}

// ParseAuthorization splits an incoming Authorization header of the form
// "L402 <token>:<preimage>" into its token and preimage parts.
func ParseAuthorization(header string) (token, preimage string, err error) {
	rest, ok := strings.CutPrefix(header, "L402 ")
	if !ok {
		return "", "", fmt.Errorf("%w: missing L402 prefix", ErrInvalidToken)
	}

	token, preimage, ok = strings.Cut(rest, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: missing colon separator", ErrInvalidToken)
	}

	return token, preimage, nil
}
