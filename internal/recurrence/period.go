// Package recurrence computes billing occurrences for recurring subscriptions.
// Every function is pure: the reference instant and timezone are passed in
// explicitly, nothing is cached and nothing is read from globals.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned for records that cannot be scheduled.
var (
	ErrInvalidPeriod = errors.New("invalid billing period")
	ErrInvalidDate   = errors.New("invalid date")
)

// ErrorKind names the scheduling error for logs and metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPeriod):
		return "invalid_period"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	default:
		return "other"
	}
}

// Period is the recurrence unit of a subscription.
type Period string

const (
	Daily     Period = "daily"
	Weekly    Period = "weekly"
	BiWeekly  Period = "bi-weekly"
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Yearly    Period = "yearly"
)

// Periods lists every supported period in ascending length.
var Periods = []Period{Daily, Weekly, BiWeekly, Monthly, Quarterly, Yearly}

// ParsePeriod validates a raw period value.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	return p, nil
}

// Valid reports whether p is one of the supported periods.
func (p Period) Valid() bool {
	return p.days() > 0 || p.months() > 0
}

// IsSubMonthly reports whether p can fire more than once in a calendar month.
func (p Period) IsSubMonthly() bool {
	return p.days() > 0
}

func (p Period) String() string {
	return string(p)
}

// days is the fixed step of day-based periods, 0 otherwise.
func (p Period) days() int {
	switch p {
	case Daily:
		return 1
	case Weekly:
		return 7
	case BiWeekly:
		return 14
	}
	return 0
}

// months is the step of calendar-month periods, 0 otherwise.
func (p Period) months() int {
	switch p {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Yearly:
		return 12
	}
	return 0
}
