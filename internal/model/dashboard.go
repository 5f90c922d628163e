package model

import (
	"github.com/shopspring/decimal"
)

// SubscriptionView is a subscription with its recomputed billing date.
type SubscriptionView struct {
	Subscription
	// EffectiveDate is empty when the record cannot be scheduled.
	EffectiveDate string `json:"effective_date,omitempty"`
	DueTomorrow   bool   `json:"due_tomorrow"`
}

// UpcomingPayment is one entry of the upcoming payments list.
type UpcomingPayment struct {
	SubscriptionID string          `json:"subscription_id"`
	Name           string          `json:"name"`
	Date           string          `json:"date"`
	Price          decimal.Decimal `json:"price"`
}

// SkippedRecord names a subscription that was left out of a computation.
type SkippedRecord struct {
	SubscriptionID string `json:"subscription_id"`
	Name           string `json:"name"`
	Reason         string `json:"reason"`
}

// Dashboard is a user's subscription summary as of one calendar day.
type Dashboard struct {
	UserID        string             `json:"user_id"`
	Day           string             `json:"day"`
	Month         string             `json:"month"`
	MonthlyTotal  decimal.Decimal    `json:"monthly_total"`
	ActiveCount   int                `json:"active_count"`
	Upcoming      []UpcomingPayment  `json:"upcoming"`
	Subscriptions []SubscriptionView `json:"subscriptions"`
	Skipped       []SkippedRecord    `json:"skipped,omitempty"`
}
