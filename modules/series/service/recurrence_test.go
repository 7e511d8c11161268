package service

import (
	"testing"
	"time"

	"club-scheduler/modules/series/entity"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries(tz string, days []int64, interval int) *entity.EventSeries {
	return &entity.EventSeries{
		Timezone:      tz,
		DaysOfWeek:    pq.Int64Array(days),
		IntervalWeeks: interval,
		StartDate:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		StartTime:     "18:00",
		EndTime:       "20:00",
	}
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateDatesWeekly(t *testing.T) {
	// 2026-09-01 is a Tuesday.
	series := testSeries("UTC", []int64{1, 3, 5}, 1) // Mon/Wed/Fri
	dates, err := GenerateDates(series, utcDate(2026, 9, 1), utcDate(2026, 9, 14))
	require.NoError(t, err)

	want := []time.Time{
		utcDate(2026, 9, 2), utcDate(2026, 9, 4),
		utcDate(2026, 9, 7), utcDate(2026, 9, 9),
		utcDate(2026, 9, 11), utcDate(2026, 9, 14),
	}
	require.Len(t, dates, len(want))
	for i := range want {
		assert.True(t, dates[i].Equal(want[i]), "date %d: got %s want %s", i, dates[i], want[i])
	}
}

func TestGenerateDatesIntervalWeeks(t *testing.T) {
	// Every other Saturday, weeks counted from the series start's week
	// (weeks roll over on Sunday). The week of Tue 2026-09-01, the series
	// start, counts as week zero, so its Saturday (Sep 5) is included,
	// then Sep 19.
	series := testSeries("UTC", []int64{6}, 2)
	dates, err := GenerateDates(series, utcDate(2026, 9, 1), utcDate(2026, 9, 30))
	require.NoError(t, err)

	require.Len(t, dates, 2)
	assert.True(t, dates[0].Equal(utcDate(2026, 9, 5)))
	assert.True(t, dates[1].Equal(utcDate(2026, 9, 19)))
}

func TestGenerateDatesIntervalPhaseStableAcrossWindows(t *testing.T) {
	// Week parity is anchored on the series start, not on the window, so
	// re-invocations with shifting window starts agree on which weeks are
	// on-phase. Counting biweekly Saturdays from the week of Tue
	// 2026-09-01, December's on-phase dates are Dec 12 and Dec 26 — every
	// December window must yield exactly those, never Dec 5 or Dec 19.
	series := testSeries("UTC", []int64{6}, 2)
	want := []time.Time{utcDate(2026, 12, 12), utcDate(2026, 12, 26)}

	for _, windowStart := range []time.Time{
		utcDate(2026, 12, 1),
		utcDate(2026, 12, 8),
	} {
		dates, err := GenerateDates(series, windowStart, utcDate(2026, 12, 31))
		require.NoError(t, err)

		require.Len(t, dates, len(want), "window starting %s", windowStart)
		for i := range want {
			assert.True(t, dates[i].Equal(want[i]),
				"window starting %s: got %s want %s", windowStart, dates[i], want[i])
		}
	}
}

func TestGenerateDatesHorizonCap(t *testing.T) {
	series := testSeries("UTC", []int64{0, 1, 2, 3, 4, 5, 6}, 1)
	dates, err := GenerateDates(series, utcDate(2026, 9, 1), utcDate(2027, 3, 20))
	require.NoError(t, err)

	// Daily recurrence capped at windowStart + 90 days, inclusive.
	require.NotEmpty(t, dates)
	assert.Len(t, dates, 91)
	assert.True(t, dates[len(dates)-1].Equal(utcDate(2026, 11, 30)))
}

func TestGenerateDatesIncludesWindowStartDay(t *testing.T) {
	// A window opening mid-day on a matching weekday still yields that day:
	// dates are whole local days.
	series := testSeries("UTC", []int64{2}, 1) // Tuesday
	windowStart := time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC)
	dates, err := GenerateDates(series, windowStart, utcDate(2026, 9, 8))
	require.NoError(t, err)

	require.Len(t, dates, 2)
	assert.True(t, dates[0].Equal(utcDate(2026, 9, 1)))
	assert.True(t, dates[1].Equal(utcDate(2026, 9, 8)))
}

func TestGenerateDatesEmptyWindow(t *testing.T) {
	series := testSeries("UTC", []int64{1}, 1)
	dates, err := GenerateDates(series, utcDate(2026, 9, 14), utcDate(2026, 9, 1))
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestGenerateDatesInvalidWeekday(t *testing.T) {
	series := testSeries("UTC", []int64{7}, 1)
	_, err := GenerateDates(series, utcDate(2026, 9, 1), utcDate(2026, 9, 14))
	assert.Error(t, err)
}

func TestGenerateDatesInvalidTimezone(t *testing.T) {
	series := testSeries("Mars/Olympus", []int64{1}, 1)
	_, err := GenerateDates(series, utcDate(2026, 9, 1), utcDate(2026, 9, 14))
	assert.Error(t, err)
}

func TestGenerateDatesAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// DST ends Nov 1 2026 in America/New_York. Dates must stay local
	// midnights on both sides of the change.
	series := testSeries("America/New_York", []int64{0, 1, 2, 3, 4, 5, 6}, 1)
	windowStart := time.Date(2026, 10, 30, 0, 0, 0, 0, loc)
	windowEnd := time.Date(2026, 11, 3, 0, 0, 0, 0, loc)

	dates, err := GenerateDates(series, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, dates, 5)

	for _, date := range dates {
		local := date.In(loc)
		assert.Equal(t, 0, local.Hour(), "date %s is not a local midnight", date)
		assert.Equal(t, 0, local.Minute())
	}
	// The fall-back day itself is 25 hours long.
	assert.Equal(t, 25*time.Hour, dates[3].Sub(dates[2]))
}

func TestGenerateDatesSortedAndDeduplicated(t *testing.T) {
	series := testSeries("UTC", []int64{1, 1, 3}, 1)
	dates, err := GenerateDates(series, utcDate(2026, 9, 1), utcDate(2026, 9, 14))
	require.NoError(t, err)

	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i].After(dates[i-1]), "dates must be strictly ascending")
	}
}

func TestEventWindow(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	series := testSeries("Europe/Berlin", []int64{1}, 1)
	series.StartTime = "18:30"
	series.EndTime = "20:15"

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, loc)
	startAt, endAt, err := EventWindow(series, date)
	require.NoError(t, err)

	assert.True(t, startAt.Equal(time.Date(2026, 9, 7, 18, 30, 0, 0, loc)))
	assert.True(t, endAt.Equal(time.Date(2026, 9, 7, 20, 15, 0, 0, loc)))
}

func TestParseTimeOfDay(t *testing.T) {
	h, m, err := ParseTimeOfDay("07:45")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 45, m)

	_, _, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, _, err = ParseTimeOfDay("evening")
	assert.Error(t, err)
}
