package recurrence

import (
	"time"

	"github.com/shopspring/decimal"
)

// Billable is anything with a recurring price.
type Billable interface {
	BillingStart() string
	BillingPeriod() Period
	BillingPrice() decimal.Decimal
}

// Contribution is one subscription's share of a monthly total.
type Contribution struct {
	Index       int
	Occurrences []time.Time
	Subtotal    decimal.Decimal
	Err         error
}

// Breakdown is a monthly total with its per-subscription detail.
type Breakdown struct {
	Month         Month
	Total         decimal.Decimal
	Contributions []Contribution
}

// Skipped returns the contributions whose records could not be scheduled.
func (b Breakdown) Skipped() []Contribution {
	var out []Contribution
	for _, c := range b.Contributions {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

// MonthlyTotal sums every occurrence of items that lands in month, counting
// from the reference day of now. See Calendar.MonthlyBreakdown.
func MonthlyTotal(items []Billable, month Month, now time.Time) decimal.Decimal {
	return NewCalendar(now, now.Location()).MonthlyBreakdown(items, month).Total
}

// MonthlyTotal is MonthlyTotal evaluated against the calendar.
func (c Calendar) MonthlyTotal(items []Billable, month Month) decimal.Decimal {
	return c.MonthlyBreakdown(items, month).Total
}

// MonthlyBreakdown computes each item's next occurrence from today. An
// occurrence outside month, or before today, contributes nothing. Otherwise
// the price is added once, and for sub-monthly periods once more for every
// further occurrence still inside month. Negative prices count as zero.
// Items with an invalid period or start date contribute nothing and carry
// the error.
func (c Calendar) MonthlyBreakdown(items []Billable, month Month) Breakdown {
	out := Breakdown{
		Month:         month,
		Total:         decimal.Zero,
		Contributions: make([]Contribution, len(items)),
	}
	today := c.Today()

	for i, item := range items {
		contrib := Contribution{Index: i, Subtotal: decimal.Zero}

		occ, err := c.Next(item)
		if err != nil {
			contrib.Err = err
			out.Contributions[i] = contrib
			continue
		}
		if !month.Contains(occ) || occ.Before(today) {
			out.Contributions[i] = contrib
			continue
		}

		price := item.BillingPrice()
		if price.IsNegative() {
			price = decimal.Zero
		}

		contrib.Occurrences = append(contrib.Occurrences, occ)
		if item.BillingPeriod().IsSubMonthly() {
			contrib.Occurrences = append(contrib.Occurrences, remainingInMonth(occ, item.BillingPeriod(), month)...)
		}
		contrib.Subtotal = price.Mul(decimal.NewFromInt(int64(len(contrib.Occurrences))))

		out.Total = out.Total.Add(contrib.Subtotal)
		out.Contributions[i] = contrib
	}

	return out
}

// remainingInMonth steps a sub-monthly period forward from occ and collects
// the occurrences that stay inside month. It is bounded by the month length.
func remainingInMonth(occ time.Time, period Period, month Month) []time.Time {
	if !period.IsSubMonthly() {
		return nil
	}

	var out []time.Time
	next := occ
	for i := 0; i < month.Days(); i++ {
		stepped, err := Step(next, period)
		if err != nil || !stepped.After(next) || !month.Contains(stepped) {
			break
		}
		out = append(out, stepped)
		next = stepped
	}
	return out
}
