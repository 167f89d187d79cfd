// Package util provides small display helpers shared by the UI. It is kept
// dependency-free so it can be imported from anywhere without cycles.
package util

import (
	"fmt"
	"strings"
	"time"
)

// DefaultString returns fallback when v is empty or whitespace-only.
func DefaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// EmptyDash returns "-" for empty or whitespace-only values, used as a
// visible placeholder in list and detail panels.
func EmptyDash(s string) string {
	return DefaultString(s, "-")
}

// Ago formats a unix timestamp as a coarse "Nm ago" style string for the
// detail panel. Zero means "never".
func Ago(unix int64, now time.Time) string {
	if unix <= 0 {
		return "never"
	}
	d := now.Sub(time.Unix(unix, 0))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
