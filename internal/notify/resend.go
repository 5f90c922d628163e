package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultResendBaseURL is the Resend API endpoint.
const DefaultResendBaseURL = "https://api.resend.com"

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second
)

// NewHTTPClient creates an HTTP client for the email API. It does not
// follow redirects.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// ResendConfig configures a ResendSender.
type ResendConfig struct {
	APIKey    string
	BaseURL   string
	From      string
	ManageURL string
	Client    *http.Client
}

// ResendSender delivers reminders through the Resend HTTP API.
type ResendSender struct {
	cfg    ResendConfig
	client *http.Client
}

// NewResendSender creates a ResendSender, filling unset fields with defaults.
func NewResendSender(cfg ResendConfig) *ResendSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultResendBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	client := cfg.Client
	if client == nil {
		client = NewHTTPClient()
	}
	return &ResendSender{cfg: cfg, client: client}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type resendError struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Send posts r to the Resend emails endpoint.
func (s *ResendSender) Send(ctx context.Context, r Reminder) error {
	msg, err := Render(r, s.cfg.ManageURL)
	if err != nil {
		return err
	}

	body, err := json.Marshal(resendRequest{
		From:    s.cfg.From,
		To:      []string{r.Email},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SubTrackr-Notifier/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	// Drain body to allow connection reuse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr resendError
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
		return fmt.Errorf("%w: resend %d %s: %s", ErrSendFailed, resp.StatusCode, apiErr.Name, apiErr.Message)
	}
	return fmt.Errorf("%w: resend HTTP %d", ErrSendFailed, resp.StatusCode)
}
