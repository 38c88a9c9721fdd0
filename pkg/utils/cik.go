// Package utils holds small helpers shared by the CLI, API, and adapters.
package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// cikWidth is the zero-padded width EDGAR uses in URLs and feeds.
const cikWidth = 10

// PadCIK zero-pads a CIK to 10 digits, e.g. 320193 -> "0000320193".
func PadCIK(cik int) string {
	return fmt.Sprintf("%0*d", cikWidth, cik)
}

// ParseCIK accepts "320193", "0000320193", or "CIK0000320193" and returns
// the numeric CIK. It rejects non-digits and non-positive values.
func ParseCIK(s string) (int, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(strings.ToUpper(raw), "CIK")
	if raw == "" || !isDigits(raw) {
		return 0, fmt.Errorf("invalid CIK %q", s)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid CIK %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid CIK %q: must be positive", s)
	}
	return n, nil
}

// ParseCIKs parses every entry, failing on the first invalid one.
func ParseCIKs(values []string) ([]int, error) {
	out := make([]int, 0, len(values))
	for _, v := range values {
		cik, err := ParseCIK(v)
		if err != nil {
			return nil, err
		}
		out = append(out, cik)
	}
	return out, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
