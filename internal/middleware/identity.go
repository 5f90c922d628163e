package middleware

import (
	"log/slog"
	"net/http"

	"github.com/subtrackr/subtrackr/internal/auth"
)

// Identity resolves the caller from the X-User-ID header the upstream proxy
// sets. Requests without a usable ID are rejected with 401.
func Identity(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.NormalizeUserID(r.Header.Get(auth.UserIDHeader))
			if !ok {
				logger.WarnContext(r.Context(), "missing user identity",
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing user identity")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(r.Context(), userID)))
		})
	}
}

// CronSecret guards the notification trigger with a shared bearer secret.
// A mismatch answers a plain 401 and the wrapped handler never runs.
func CronSecret(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.VerifySecret(auth.BearerToken(r), secret) {
				logger.WarnContext(r.Context(), "cron authentication failed",
					slog.String("ip", clientIP(r)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte("Unauthorized"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
