// Package stats holds the pure computations behind the dashboards: day
// bucketing, fixed-window growth series and empty-safe averages. Nothing in
// here touches the database.
package stats

import (
	"database/sql"
	"time"
)

// DateLayout is the ISO-8601 calendar date used on every series axis.
const DateLayout = "2006-01-02"

// DefaultWindowDays is the trailing window of the dashboard growth charts.
const DefaultWindowDays = 7

// DailyCount is one point of a growth series.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TruncateDay returns midnight UTC of the day t falls on.
func TruncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats the UTC calendar date of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// WindowStart is the first instant covered by a window of the given size
// ending on (and including) the day of now.
func WindowStart(now time.Time, window int) time.Time {
	if window < 1 {
		window = 1
	}
	return TruncateDay(now).AddDate(0, 0, -(window - 1))
}

// GrowthSeries counts events per UTC day over the trailing window ending on
// the day of now. The result always has exactly window entries in ascending
// order, with zero for days without events. Events outside the window are
// ignored.
func GrowthSeries(events []time.Time, now time.Time, window int) []DailyCount {
	if window < 1 {
		window = 1
	}

	counts := make(map[string]int, window)
	for _, e := range events {
		counts[DayKey(e)]++
	}

	today := TruncateDay(now)
	series := make([]DailyCount, 0, window)
	for i := window - 1; i >= 0; i-- {
		key := today.AddDate(0, 0, -i).Format(DateLayout)
		series = append(series, DailyCount{Date: key, Count: counts[key]})
	}
	return series
}

// SeriesTotal sums the counts of a series.
func SeriesTotal(series []DailyCount) int {
	total := 0
	for _, p := range series {
		total += p.Count
	}
	return total
}

// AverageOrZero resolves an SQL AVG over a possibly empty set. NULL (no rows)
// becomes 0.
func AverageOrZero(avg sql.NullFloat64) float64 {
	if !avg.Valid {
		return 0
	}
	return avg.Float64
}
