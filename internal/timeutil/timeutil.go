// Package timeutil ports the timestamp and duration helpers every other
// package in Loom relies on for its STATE/ JSON timestamps.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const iso = time.RFC3339

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatTimestamp renders t as the ISO-8601 form Loom writes into state
// files, e.g. "2026-01-23T10:00:00Z".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// ParseISOTimestamp parses an ISO-8601 timestamp like
// "2026-01-23T10:00:00Z", accepting either a trailing Z or a +HH:MM offset.
func ParseISOTimestamp(s string) (time.Time, error) {
	if strings.HasSuffix(s, "Z") {
		s = s[:len(s)-1] + "+00:00"
	}
	t, err := time.Parse("2006-01-02T15:04:05-07:00", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse iso timestamp %q: %w", s, err)
	}
	return t, nil
}

// ElapsedSeconds returns the whole seconds elapsed since the ISO-8601
// timestamp ts. An unparseable timestamp yields 0.
func ElapsedSeconds(ts string) int {
	t, err := ParseISOTimestamp(ts)
	if err != nil {
		return 0
	}
	return int(NowUTC().Sub(t).Seconds())
}

// FormatDuration renders seconds as a human-readable duration string, e.g.
// FormatDuration(90) == "1m 30s", FormatDuration(3661) == "1h 1m 1s".
// Negative values and zero both render "0s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "0s"
	}
	hours := seconds / 3600
	remainder := seconds % 3600
	minutes := remainder / 60
	secs := remainder % 60

	var parts []string
	if hours != 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes != 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if secs != 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}
	return strings.Join(parts, " ")
}
