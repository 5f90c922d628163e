// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// UserPreference holds the notification settings of one user.
type UserPreference struct {
	UserID               string    `json:"user_id"`
	Email                string    `json:"email"`
	DisplayName          string    `json:"display_name,omitempty"`
	NotificationsEnabled *bool     `json:"notifications_enabled,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NotificationsOn resolves the notification flag. An absent flag means on.
func (u *UserPreference) NotificationsOn() bool {
	return u.NotificationsEnabled == nil || *u.NotificationsEnabled
}

// Notifiable returns true if reminders should be computed for this user.
func (u *UserPreference) Notifiable() bool {
	return u.NotificationsOn() && strings.TrimSpace(u.Email) != ""
}

// Greeting returns the name used in reminder emails.
func (u *UserPreference) Greeting() string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	return "there"
}

// Bool returns a pointer to b, for optional flags.
func Bool(b bool) *bool {
	return &b
}
