package observability

import (
	"fmt"
	"strconv"
	"time"
)

// ParseSince parses a look-back window such as "7d", "30d" or "24h" and
// returns the corresponding instant before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	num, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
