package timeutil

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// DateFormat is the canonical date layout used across the store and all
// date-scoped queries.
const DateFormat = "2006-01-02"

const timestampFormat = "2006-01-02 15:04:05"

// Today returns the current date in canonical form, local time.
func Today() string {
	return time.Now().Format(DateFormat)
}

// Yesterday returns the default target date for a pipeline run.
func Yesterday() string {
	return time.Now().AddDate(0, 0, -1).Format(DateFormat)
}

// CurrentTimestamp returns the current local time as a sortable string.
func CurrentTimestamp() string {
	return time.Now().Format(timestampFormat)
}

// DateRange returns the daysBack most recent dates ending with today,
// oldest first.
func DateRange(daysBack int) []string {
	if daysBack <= 0 {
		return nil
	}

	dates := make([]string, 0, daysBack)
	for i := daysBack - 1; i >= 0; i-- {
		dates = append(dates, time.Now().AddDate(0, 0, -i).Format(DateFormat))
	}
	return dates
}

// ValidDate reports whether s is a canonical YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateFormat, s)
	return err == nil
}

// ParseFeedDate converts a raw date string as found in a feed entry
// (RFC1123, RFC3339, and the many variants sources actually emit) into
// canonical YYYY-MM-DD form.
func ParseFeedDate(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("empty date string")
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse date %q: %w", raw, err)
	}

	return t.Format(DateFormat), nil
}

// IsRecent reports whether date falls within the last days days,
// today inclusive. Unparseable dates are not recent.
func IsRecent(date string, days int) bool {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return false
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	return t.After(cutoff)
}

// CutoffTimestamp returns the retention boundary for purging rows older
// than days days. The value carries a time component so that rows whose
// date-only published_date equals the cutoff day compare as older.
func CutoffTimestamp(days int) string {
	return time.Now().AddDate(0, 0, -days).Format(timestampFormat)
}

// FormatDuration renders a duration in seconds as HH:MM:SS, or MM:SS
// when under an hour.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
