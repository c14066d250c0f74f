package stats

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func TestGrowthSeries_ShapeAndOrder(t *testing.T) {
	series := GrowthSeries(nil, refNow, DefaultWindowDays)

	require.Len(t, series, 7)
	assert.Equal(t, "2026-03-04", series[0].Date)
	assert.Equal(t, "2026-03-10", series[6].Date, "series must end on today")

	for i := 1; i < len(series); i++ {
		prev, err := time.Parse(DateLayout, series[i-1].Date)
		require.NoError(t, err)
		cur, err := time.Parse(DateLayout, series[i].Date)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, cur.Sub(prev), "consecutive dates must be one day apart")
	}
	for _, p := range series {
		assert.Zero(t, p.Count)
	}
}

func TestGrowthSeries_CountsIgnoreTimeOfDay(t *testing.T) {
	events := []time.Time{
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC),
	}

	series := GrowthSeries(events, refNow, 7)

	assert.Equal(t, 2, series[6].Count)
	assert.Equal(t, 1, series[4].Count)
	assert.Equal(t, 3, SeriesTotal(series))
}

func TestGrowthSeries_DropsEventsOutsideWindow(t *testing.T) {
	// 10 users over the last 10 days, 2 of them today
	var events []time.Time
	for i := 0; i < 9; i++ {
		events = append(events, refNow.AddDate(0, 0, -(i+1)))
	}
	events = append(events, refNow, refNow.Add(-time.Hour))
	events = events[1:] // keep exactly 10: days -2..-9 plus two today

	series := GrowthSeries(events, refNow, 7)

	require.Len(t, series, 7)
	assert.Equal(t, 2, series[6].Count)
	// days -2..-6 fall inside the window, -7..-9 do not
	assert.Equal(t, 2+5, SeriesTotal(series))
	assert.NotEqual(t, len(events), SeriesTotal(series))
}

func TestGrowthSeries_NormalisesTimezones(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 2026-03-10 08:00 in Tokyo is 2026-03-09 23:00 UTC
	events := []time.Time{time.Date(2026, 3, 10, 8, 0, 0, 0, tokyo)}

	series := GrowthSeries(events, refNow, 7)
	assert.Equal(t, 1, series[5].Count)
	assert.Equal(t, 0, series[6].Count)
}

func TestGrowthSeries_Idempotent(t *testing.T) {
	events := []time.Time{refNow.Add(-2 * time.Hour), refNow.AddDate(0, 0, -3)}

	first := GrowthSeries(events, refNow, 7)
	second := GrowthSeries(events, refNow.Add(5*time.Hour), 7)

	assert.Equal(t, first, second)
}

func TestGrowthSeries_WindowFloor(t *testing.T) {
	series := GrowthSeries(nil, refNow, 0)
	require.Len(t, series, 1)
	assert.Equal(t, "2026-03-10", series[0].Date)
}

func TestWindowStart(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), WindowStart(refNow, 7))
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), WindowStart(refNow, 1))
}

func TestAverageOrZero(t *testing.T) {
	assert.Equal(t, 0.0, AverageOrZero(sql.NullFloat64{}))
	assert.False(t, math.IsNaN(AverageOrZero(sql.NullFloat64{})))
	assert.Equal(t, 4.5, AverageOrZero(sql.NullFloat64{Float64: 4.5, Valid: true}))
}
