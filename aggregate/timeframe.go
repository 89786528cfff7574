package aggregate

import (
	"fmt"
	"strconv"
)

const (
	secondsPerHour = 3600
	secondsPerDay  = 24 * secondsPerHour
	secondsPerYear = 365 * secondsPerDay
)

// parseTimeframe converts a "<N>h", "<N>d", or "<N>y" timeframe string
// into a duration in seconds. Any other suffix, or a non-numeric N, is
// an error.
func parseTimeframe(tf string) (int64, error) {
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}

	suffix := tf[len(tf)-1]
	n, err := strconv.ParseInt(tf[:len(tf)-1], 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}

	switch suffix {
	case 'h':
		return n * secondsPerHour, nil
	case 'd':
		return n * secondsPerDay, nil
	case 'y':
		return n * secondsPerYear, nil
	default:
		return 0, fmt.Errorf("invalid timeframe suffix in %q", tf)
	}
}
