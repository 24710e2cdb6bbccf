package shared

import "time"

// EndOfTime stands in for an open-ended timestamp. Recurring billing events
// and autorenew poll messages with no scheduled end carry this value so that
// range comparisons work without nullable columns.
var EndOfTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// IsEndOfTime reports whether t represents the open-ended sentinel.
func IsEndOfTime(t time.Time) bool {
	return t.Equal(EndOfTime)
}
