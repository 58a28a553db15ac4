package timeutils

import "fmt"

// HHMM formats an hour (0-23) and minute (0-59) as a zero-padded "HH:MM" string, as used by
// inverter TOU segment boundaries.
func HHMM(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
