package model

import (
	"regexp"
	"strings"
	"time"
)

var (
	last4Regex      = regexp.MustCompile(`^[0-9]{4}$`)
	expirationRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

// Card is a payment card a subscription is charged to.
type Card struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"owner_id"`
	Name       string    `json:"card_name"`
	Bank       string    `json:"bank"`
	Last4      string    `json:"last4"`
	Expiration string    `json:"expiration_date"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidateLast4 requires exactly four digits.
func ValidateLast4(s string) error {
	if !last4Regex.MatchString(s) {
		return invalid("last4", "must be exactly 4 digits", nil)
	}
	return nil
}

// ValidateExpiration requires MM/YY with a month between 01 and 12.
func ValidateExpiration(s string) error {
	if !expirationRegex.MatchString(s) {
		return invalid("expiration_date", "must be MM/YY", nil)
	}
	return nil
}

// Validate checks the write-boundary rules for a card.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("card_name", "is required", nil)
	}
	if strings.TrimSpace(c.Bank) == "" {
		return invalid("bank", "is required", nil)
	}
	if err := ValidateLast4(c.Last4); err != nil {
		return err
	}
	return ValidateExpiration(c.Expiration)
}
