// Package isoweek computes the week labels used by the results store and the
// punishment decay markers.
//
// Weeks follow ISO 8601 with one deliberate shift: a Monday still counts as
// the preceding Sunday's week. Clan score weeks close on Sunday evening, and
// screenshots posted after midnight must land in the week that just ended
// rather than opening the next one.
package isoweek

import (
	"fmt"
	"time"
)

// For returns the year and week number for t under the shifted rule.
func For(t time.Time) (year, week int) {
	if t.Weekday() == time.Monday {
		t = t.AddDate(0, 0, -1)
	}
	return t.ISOWeek()
}

// Current returns the year and week number for the current local time.
func Current() (year, week int) {
	return For(time.Now())
}

// Key returns the marker label for t, e.g. "2026-W34".
func Key(t time.Time) string {
	year, week := For(t)
	return fmt.Sprintf("%d-W%d", year, week)
}
