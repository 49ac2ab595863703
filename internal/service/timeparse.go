package service

import (
	"fmt"
	"time"
)

// naiveLayouts are tried when the timestamp carries no offset.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// parseEventTime parses an ISO-8601 timestamp from a webhook payload.
// Offset-aware parsing is tried first; on failure the string is parsed as
// a naive local timestamp.  Either way the result is normalized to a
// timezone-naive value (wall-clock fields, UTC location) so that all
// stored and compared times share one representation.  An offset-aware
// timestamp keeps its wall clock and drops the offset; it is not
// converted between zones.
func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return stripOffset(t), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q", ErrValidation, s)
}

// stripOffset rebuilds t's wall-clock fields in UTC.
func stripOffset(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// dateOf truncates t to its calendar date at midnight UTC.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
