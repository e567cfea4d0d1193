package store

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationPattern matches duration strings like "12h", "7d", "2w"
var durationPattern = regexp.MustCompile(`^(\d+)([hdw])$`)

// ParseDuration parses a duration string like "12h", "7d" or "2w".
// Returns the duration or an error if the format is invalid.
//
// Supported units:
//   - h: hours
//   - d: days
//   - w: weeks (7 days)
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration string is empty")
	}

	matches := durationPattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid duration format: %s (expected format: <number><unit>, e.g., 12h, 7d, 2w)", s)
	}

	num, err := strconv.Atoi(matches[1])
	if err != nil || num < 0 {
		return 0, fmt.Errorf("invalid number in duration: %s", matches[1])
	}

	switch matches[2] {
	case "h":
		return time.Duration(num) * time.Hour, nil
	case "d":
		return time.Duration(num) * 24 * time.Hour, nil
	case "w":
		return time.Duration(num) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid duration unit: %s (expected h, d or w)", matches[2])
	}
}

// ParseTTL parses a cache TTL, using DefaultCacheTTL for an empty string.
// A zero TTL is rejected since it would make every entry stale.
func ParseTTL(s string) (time.Duration, error) {
	if s == "" {
		return DefaultCacheTTL, nil
	}

	ttl, err := ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse cache TTL: %w", err)
	}
	if ttl == 0 {
		return 0, fmt.Errorf("cache TTL must be positive: %s", s)
	}
	return ttl, nil
}
