package timeutils

import "time"

// IsWeekday returns true if t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	day := t.Weekday()
	return day != time.Saturday && day != time.Sunday
}
