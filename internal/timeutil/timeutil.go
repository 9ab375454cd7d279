// Package timeutil provides date and duration helpers shared by the
// worklog operations.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// FormatDay formats a time as an ISO calendar date (YYYY-MM-DD).
func FormatDay(day time.Time) string {
	return day.Format(dayLayout)
}

// ParseDay parses an ISO calendar date (YYYY-MM-DD).
func ParseDay(value string) (time.Time, error) {
	parsed, err := time.Parse(dayLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", value, err)
	}
	return parsed, nil
}

// Today returns today's date in the local timezone as YYYY-MM-DD.
func Today() string {
	return FormatDay(time.Now())
}

// ParseDurationSeconds parses a human duration string into seconds.
// Accepted forms: "2h 30m", "1.5h", "90m", and bare numbers, which are
// treated as minutes. The result must be positive.
func ParseDurationSeconds(value string) (int, error) {
	text := strings.ToLower(strings.TrimSpace(value))
	if text == "" {
		return 0, fmt.Errorf("duration is empty")
	}

	// Decimal hours, e.g. "1.5h".
	if strings.Contains(text, "h") && !strings.Contains(text, "m") {
		hoursText := strings.TrimSpace(strings.TrimSuffix(text, "h"))
		if hours, err := strconv.ParseFloat(hoursText, 64); err == nil {
			return positiveSeconds(value, int(hours*3600))
		}
	}

	// Combined form, e.g. "2h 30m" or "1h,15m".
	total := 0
	parsedAny := false
	for _, part := range strings.Fields(strings.ReplaceAll(text, ",", " ")) {
		switch {
		case strings.HasSuffix(part, "h"):
			hours, err := strconv.ParseFloat(strings.TrimSuffix(part, "h"), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", value)
			}
			total += int(hours * 3600)
			parsedAny = true
		case strings.HasSuffix(part, "m"):
			minutes, err := strconv.ParseFloat(strings.TrimSuffix(part, "m"), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", value)
			}
			total += int(minutes * 60)
			parsedAny = true
		default:
			// Bare number means minutes.
			minutes, err := strconv.Atoi(part)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", value)
			}
			total += minutes * 60
			parsedAny = true
		}
	}

	if !parsedAny {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return positiveSeconds(value, total)
}

func positiveSeconds(input string, seconds int) (int, error) {
	if seconds <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", input)
	}
	return seconds, nil
}

// FormatDuration formats seconds as a compact human duration,
// e.g. 9000 -> "2h 30m", 2700 -> "45m".
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
