package model

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr/internal/recurrence"
)

// Category is the closed set of subscription categories.
type Category string

const (
	CategoryEntertainment Category = "Entertainment"
	CategorySoftware      Category = "Software"
	CategoryUtilities     Category = "Utilities"
	CategoryHealth        Category = "Health"
	CategoryEducation     Category = "Education"
	CategoryFinancial     Category = "Financial"
	CategoryOther         Category = "Other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryEntertainment,
	CategorySoftware,
	CategoryUtilities,
	CategoryHealth,
	CategoryEducation,
	CategoryFinancial,
	CategoryOther,
}

// ParseCategory matches a category case-insensitively.
func ParseCategory(raw string) (Category, error) {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c, nil
		}
	}
	return "", invalid("category", fmt.Sprintf("unknown category %q", raw), nil)
}

// NewPrice parses a price and rejects negative values.
func NewPrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, invalid("price", "not a number", err)
	}
	return d, CheckPrice(d)
}

// CheckPrice rejects negative prices.
func CheckPrice(d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid("price", "must not be negative", nil)
	}
	return nil
}

// Subscription is a recurring payment owned by a user.
//
// NextBillingDate is a cached hint written by clients. It can be stale and is
// never used for due or aggregation decisions; the effective date is always
// recomputed from StartDate and Period.
type Subscription struct {
	ID              string            `json:"id"`
	OwnerID         string            `json:"owner_id"`
	Name            string            `json:"name"`
	Category        Category          `json:"category"`
	StartDate       string            `json:"start_date"`
	Period          recurrence.Period `json:"billing_period"`
	Price           decimal.Decimal   `json:"price"`
	CardID          string            `json:"card_id"`
	NextBillingDate string            `json:"next_billing_date,omitempty"`
	ManageURL       string            `json:"manage_url,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// BillingStart implements recurrence.Billable.
func (s *Subscription) BillingStart() string {
	return s.StartDate
}

// BillingPeriod implements recurrence.Billable.
func (s *Subscription) BillingPeriod() recurrence.Period {
	return s.Period
}

// BillingPrice implements recurrence.Billable.
func (s *Subscription) BillingPrice() decimal.Decimal {
	return s.Price
}

// Validate checks the write-boundary rules. The first failing field is
// returned as a *ValidationError.
func (s *Subscription) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return invalid("name", "is required", nil)
	}
	if _, err := ParseCategory(string(s.Category)); err != nil {
		return err
	}
	if _, err := recurrence.ParseDate(s.StartDate, time.UTC); err != nil {
		return invalid("start_date", "must be an ISO date", err)
	}
	if _, err := recurrence.ParsePeriod(string(s.Period)); err != nil {
		return invalid("billing_period", "unknown billing period", err)
	}
	if err := CheckPrice(s.Price); err != nil {
		return err
	}
	if strings.TrimSpace(s.CardID) == "" {
		return invalid("card_id", "payment card is required", nil)
	}
	if s.ManageURL != "" {
		u, err := url.ParseRequestURI(s.ManageURL)
		if err != nil || u.Host == "" {
			return invalid("manage_url", "must be a valid URL", err)
		}
	}
	return nil
}

// Normalize canonicalizes parsed enum fields in place.
func (s *Subscription) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	if c, err := ParseCategory(string(s.Category)); err == nil {
		s.Category = c
	}
	if p, err := recurrence.ParsePeriod(string(s.Period)); err == nil {
		s.Period = p
	}
	if d, err := recurrence.ParseDate(s.StartDate, time.UTC); err == nil {
		s.StartDate = recurrence.FormatDate(d)
	}
}
