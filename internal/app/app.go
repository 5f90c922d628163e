// Package app holds the process wiring shared by the server and the CLI:
// logger setup, sender selection and secret redaction for startup errors.
package app

import (
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/subtrackr/subtrackr/internal/config"
	"github.com/subtrackr/subtrackr/internal/notify"
)

// NewLogger builds a slog logger writing to w in the configured format and
// installs it as the default.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// ParseLogLevel converts a string log level to slog.Level. Unknown values
// fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewSender returns the reminder transport selected by EMAIL_PROVIDER.
// The config is assumed validated.
func NewSender(cfg *config.Config, logger *slog.Logger) notify.Sender {
	switch cfg.EmailProvider {
	case config.EmailProviderResend:
		return notify.NewResendSender(notify.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			BaseURL:   cfg.ResendBaseURL,
			From:      cfg.EmailFrom,
			ManageURL: cfg.AppURL,
		})
	case config.EmailProviderSMTP:
		return notify.NewSMTPSender(notify.SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUsername,
			Password:  cfg.SMTPPassword,
			From:      cfg.EmailFrom,
			ManageURL: cfg.AppURL,
		})
	default:
		return notify.NewLogSender(logger, cfg.AppURL)
	}
}

// ScannerConfig maps scan settings onto the scanner's options.
func ScannerConfig(cfg *config.Config) notify.ScannerConfig {
	return notify.ScannerConfig{
		Workers:     cfg.ScanWorkers,
		ReadTimeout: cfg.ScanReadTimeout,
		SendTimeout: cfg.ScanSendTimeout,
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// RedactURL drops the password from a connection URL.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// SanitizeError renders err with every secret replaced by its redacted form
// and any password=... pair masked.
func SanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := RedactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
