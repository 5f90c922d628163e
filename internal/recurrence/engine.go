package recurrence

import (
	"fmt"
	"time"
)

// NextOccurrence returns the earliest date reachable from start by adding
// whole periods that is not before the calendar day of now. Calendar days are
// taken in now's location, and start is treated as a date in that location.
// If start is already on or after today it is returned unchanged.
//
// Calendar-month periods advance one step at a time and each step clamps to
// the end of a shorter month, so a subscription starting on the 31st bills on
// the 29th of every month after a leap-year February.
func NextOccurrence(start time.Time, period Period, now time.Time) (time.Time, error) {
	if !period.Valid() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(period))
	}
	if start.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero start date", ErrInvalidDate)
	}

	loc := now.Location()
	anchor := dateIn(start, loc)
	today := StartOfDay(now)

	if !anchor.Before(today) {
		return anchor, nil
	}

	if step := period.days(); step > 0 {
		// Jump straight to the first step on or after today.
		behind := dayNumber(today) - dayNumber(anchor)
		k := (behind + int64(step) - 1) / int64(step)
		return anchor.AddDate(0, 0, int(k)*step), nil
	}

	step := period.months()
	elapsed := (today.Year()-anchor.Year())*12 + int(today.Month()-anchor.Month())
	// After elapsed/step steps the chain is in today's month or the one
	// before it, so at most one more step is needed.
	next := chainMonths(anchor, elapsed/step, step)
	for next.Before(today) {
		next = addMonths(next, step)
	}
	return next, nil
}

// Advance returns the date n periods after date (n = 0 is date itself),
// applying each period in turn.
func Advance(date time.Time, period Period, n int) (time.Time, error) {
	if !period.Valid() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, string(period))
	}
	if n < 0 {
		return time.Time{}, fmt.Errorf("negative period count %d", n)
	}

	anchor := StartOfDay(date)
	if step := period.days(); step > 0 {
		return anchor.AddDate(0, 0, n*step), nil
	}
	return chainMonths(anchor, n, period.months()), nil
}

// Step advances a date by exactly one period. The result is always strictly
// after date.
func Step(date time.Time, period Period) (time.Time, error) {
	return Advance(date, period, 1)
}

// chainMonths is k repeated addMonths(date, step) calls. A clamped day never
// grows back, so the result keeps the smallest day-of-month seen on the way.
func chainMonths(date time.Time, k, step int) time.Time {
	y, m, d := date.Date()
	for i := 1; i <= k; i++ {
		target := time.Date(y, m+time.Month(i*step), 1, 0, 0, 0, 0, time.UTC)
		if last := daysIn(target.Year(), target.Month()); d > last {
			d = last
		}
	}
	return time.Date(y, m+time.Month(k*step), d, 0, 0, 0, 0, date.Location())
}
