package utils

import "time"

// LocalLayout renders instants the way Brazilian users read them,
// e.g. "18/10/2026, 14:00:00".
const LocalLayout = "02/01/2006, 15:04:05"

// FormatLocal formats t in loc using LocalLayout. A nil loc means time.Local.
func FormatLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(LocalLayout)
}
