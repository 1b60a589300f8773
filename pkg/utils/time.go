package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDurationOrMillis accepts a Go duration ("5s", "1m30s") or a bare
// integer number of milliseconds ("5000").
func ParseDurationOrMillis(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// ParseRFC3339 parses a time string in RFC3339 format, with or without
// fractional seconds
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
