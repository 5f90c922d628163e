// Package auth carries caller identity through request contexts and checks
// the shared secret that guards the notification trigger.
//
// Authentication of end users happens upstream. The API trusts the user ID
// that the proxy forwards in the X-User-ID header.
package auth

import (
	"context"
	"strings"
)

// UserIDHeader is the header the upstream proxy sets for authenticated users.
const UserIDHeader = "X-User-ID"

// maxUserIDLength bounds header values so a bad proxy can't blow up keys.
const maxUserIDLength = 128

type contextKey string

const userIDKey contextKey = "user_id"

// ContextWithUserID returns a copy of ctx carrying userID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the caller's user ID, or "" when the identity
// middleware has not run.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// NormalizeUserID trims the header value and rejects values that cannot be
// used as an owner key.
func NormalizeUserID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxUserIDLength {
		return "", false
	}
	for _, r := range id {
		if r < 0x21 || r == 0x7f {
			return "", false
		}
	}
	return id, true
}
