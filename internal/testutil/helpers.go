package testutil

import "time"

// DaysAgo returns hour:00 UTC on the day that lies days before now.
func DaysAgo(now time.Time, days, hour int) time.Time {
	day := now.UTC().AddDate(0, 0, -days)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
}
