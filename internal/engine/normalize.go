package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDue is returned by NormalizeDue when the tracker text is not a
// recognised date or timestamp.
var ErrInvalidDue = errors.New("invalid due date")

// dateLayout is the calendar-date form Jira uses for the duedate field.
const dateLayout = "2006-01-02"

// timestampLayouts are tried in order for due values that carry a time of day.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700", // Jira REST
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
}

// NormalizeEmail returns the join key shared by tasks and leaves.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeDue converts any due representation into a single UTC instant.
// Calendar dates map to 00:00 UTC of that day so they compare consistently
// against leave bounds stored as timestamps.
//
// ok is false when the task has no due date.
func NormalizeDue(d Due) (at time.Time, ok bool, err error) {
	if !d.At.IsZero() {
		if d.DateOnly {
			return startOfDay(d.At), true, nil
		}
		return d.At.UTC(), true, nil
	}

	text := strings.TrimSpace(d.Text)
	if text == "" {
		return time.Time{}, false, nil
	}

	if t, err := time.Parse(dateLayout, text); err == nil {
		return t, true, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDue, text)
}

// startOfDay keeps the calendar day of t as written, dropping the clock and zone.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
