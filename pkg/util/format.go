package util

import (
	"fmt"
)

// OrDash returns the string if non-empty, otherwise returns "-".
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// FormatBytes formats bytes in a human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
