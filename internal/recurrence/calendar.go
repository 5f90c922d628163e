package recurrence

import "time"

// DefaultUpcomingDays is the dashboard's "upcoming payments" horizon.
const DefaultUpcomingDays = 7

// Calendar pins a reference instant to the reference timezone. All due and
// aggregation decisions for one request or scan are made against the same
// Calendar so they agree with each other.
type Calendar struct {
	loc *time.Location
	now time.Time
}

// NewCalendar returns a Calendar for now in loc. A nil loc means UTC.
func NewCalendar(now time.Time, loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{loc: loc, now: now.In(loc)}
}

// Location returns the reference timezone.
func (c Calendar) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Now returns the reference instant in the reference timezone.
func (c Calendar) Now() time.Time {
	return c.now
}

// Today returns midnight of the reference day.
func (c Calendar) Today() time.Time {
	return StartOfDay(c.now)
}

// Tomorrow returns midnight of the day after the reference day.
func (c Calendar) Tomorrow() time.Time {
	return c.Today().AddDate(0, 0, 1)
}

// UpcomingWindow returns the inclusive range [today, now+days].
func (c Calendar) UpcomingWindow(days int) (from, to time.Time) {
	return c.Today(), c.now.AddDate(0, 0, days)
}

// CurrentMonth returns the calendar month of the reference day.
func (c Calendar) CurrentMonth() Month {
	return MonthOf(c.now)
}

// ParseDate parses a stored date in the reference timezone.
func (c Calendar) ParseDate(raw string) (time.Time, error) {
	return ParseDate(raw, c.Location())
}

// NextOccurrence is NextOccurrence evaluated against the calendar.
func (c Calendar) NextOccurrence(start time.Time, period Period) (time.Time, error) {
	return NextOccurrence(start, period, c.now)
}

// Next parses a Billable's start date and returns its effective next
// occurrence.
func (c Calendar) Next(b Billable) (time.Time, error) {
	start, err := c.ParseDate(b.BillingStart())
	if err != nil {
		return time.Time{}, err
	}
	return c.NextOccurrence(start, b.BillingPeriod())
}

// DueTomorrow reports whether occurrence falls on the day after the reference day.
func (c Calendar) DueTomorrow(occurrence time.Time) bool {
	return IsDueOn(occurrence.In(c.Location()), c.Tomorrow())
}

// Upcoming reports whether occurrence falls in the next days days, today included.
func (c Calendar) Upcoming(occurrence time.Time, days int) bool {
	from, to := c.UpcomingWindow(days)
	return DueWithin(occurrence.In(c.Location()), from, to)
}
