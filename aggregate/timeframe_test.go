package aggregate

import "testing"

func TestParseTimeframe(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{"1h", 3600},
		{"24h", 86400},
		{"7d", 604800},
		{"1y", 31_536_000},
	}

	for _, c := range cases {
		got, err := parseTimeframe(c.in)
		if err != nil {
			t.Fatalf("parseTimeframe(%q): unexpected error %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseTimeframe(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseTimeframeRejectsUnknownSuffix(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"1w", "5x", "bad", "", "h", "-3h"} {
		if _, err := parseTimeframe(in); err == nil {
			t.Errorf("parseTimeframe(%q): expected error, got nil", in)
		}
	}
}
