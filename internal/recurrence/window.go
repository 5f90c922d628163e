package recurrence

import "time"

// IsDueOn reports whether occurrence and day are the same calendar day.
// The time of day of either argument is ignored.
func IsDueOn(occurrence, day time.Time) bool {
	return dayNumber(occurrence) == dayNumber(day)
}

// DueWithin reports whether from <= occurrence <= to at calendar-day
// granularity, inclusive on both ends.
func DueWithin(occurrence, from, to time.Time) bool {
	d := dayNumber(occurrence)
	return d >= dayNumber(from) && d <= dayNumber(to)
}
