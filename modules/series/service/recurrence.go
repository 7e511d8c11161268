package service

import (
	"fmt"
	"time"

	"club-scheduler/core/constants"
	"club-scheduler/modules/series/entity"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// GenerateDates expands the series' weekly recurrence into concrete event
// dates within [windowStart, windowEnd], capped at windowStart plus the
// generation horizon so a single batch stays bounded. Each returned instant
// is a local midnight in the series timezone (DST-correct), ascending and
// deduplicated. Pure function of its inputs.
func GenerateDates(series *entity.EventSeries, windowStart, windowEnd time.Time) ([]time.Time, error) {
	loc, err := series.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", series.Timezone, err)
	}

	horizon := windowStart.AddDate(0, 0, constants.MaxGenerationHorizonDays)
	if windowEnd.After(horizon) {
		windowEnd = horizon
	}
	if windowEnd.Before(windowStart) {
		return nil, nil
	}

	byweekday := make([]rrule.Weekday, 0, len(series.DaysOfWeek))
	for _, d := range series.DaysOfWeek {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %d", d)
		}
		byweekday = append(byweekday, rruleWeekdays[d])
	}

	interval := series.IntervalWeeks
	if interval < 1 {
		interval = 1
	}

	// Anchor the rule at the series start's local midnight, never at the
	// window: week-interval parity must stay stable across every window the
	// generator is re-invoked with, or an every-other-week series would
	// change phase from batch to batch. WKST=SU makes interval weeks roll
	// over on Sundays.
	dtstart := StartOfDay(series.StartDate, loc)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  interval,
		Wkst:      rrule.SU,
		Byweekday: byweekday,
		Dtstart:   dtstart,
	})
	if err != nil {
		return nil, fmt.Errorf("build recurrence rule: %w", err)
	}

	occurrences := rule.Between(StartOfDay(windowStart, loc), windowEnd.In(loc), true)

	dates := make([]time.Time, 0, len(occurrences))
	for _, occ := range occurrences {
		date := time.Date(occ.Year(), occ.Month(), occ.Day(), 0, 0, 0, 0, loc)
		if date.After(windowEnd) {
			continue
		}
		if len(dates) > 0 && !date.After(dates[len(dates)-1]) {
			continue
		}
		dates = append(dates, date)
	}

	return dates, nil
}

// EventWindow computes the absolute start and end instants of an event on
// the given local date from the series' local times of day.
func EventWindow(series *entity.EventSeries, date time.Time) (time.Time, time.Time, error) {
	loc, err := series.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	startHour, startMin, err := ParseTimeOfDay(series.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endHour, endMin, err := ParseTimeOfDay(series.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	local := date.In(loc)
	startAt := time.Date(local.Year(), local.Month(), local.Day(), startHour, startMin, 0, 0, loc)
	endAt := time.Date(local.Year(), local.Month(), local.Day(), endHour, endMin, 0, 0, loc)
	return startAt, endAt, nil
}

// ParseTimeOfDay parses a local "HH:MM" time-of-day string.
func ParseTimeOfDay(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// StartOfDay returns the local midnight of t in the given location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
