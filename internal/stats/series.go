package stats

import (
	"sort"
	"time"
)

// DatedCount is one point of a sparse series: only dates that had at least
// one contribution appear.
type DatedCount struct {
	Date  string
	Count int
}

// Tally accumulates weighted counts per UTC day.
type Tally map[string]int

// Add records weight occurrences on the day of t.
func (t Tally) Add(at time.Time, weight int) {
	if weight == 0 {
		return
	}
	t[DayKey(at)] += weight
}

// Series returns the tally as a date-ascending sparse series.
func (t Tally) Series() []DatedCount {
	out := make([]DatedCount, 0, len(t))
	for date, count := range t {
		out = append(out, DatedCount{Date: date, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// GroupByDay buckets events by UTC day into a sparse ascending series.
func GroupByDay(events []time.Time) []DatedCount {
	t := Tally{}
	for _, e := range events {
		t.Add(e, 1)
	}
	return t.Series()
}

// MergeAdditive sums two sparse series on their shared date axis. A date
// present in only one input keeps that input's count.
func MergeAdditive(a, b []DatedCount) []DatedCount {
	t := Tally{}
	for _, p := range a {
		t[p.Date] += p.Count
	}
	for _, p := range b {
		t[p.Date] += p.Count
	}
	return t.Series()
}
