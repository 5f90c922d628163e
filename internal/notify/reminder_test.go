package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReminder() Reminder {
	return NewReminder("ada@example.com", "", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), []ReminderItem{
		{Name: "Netflix", Price: decimal.RequireFromString("15.49")},
		{Name: "<Gym>", Price: decimal.RequireFromString("30")},
	})
}

func TestRender(t *testing.T) {
	msg, err := Render(sampleReminder(), "https://subtrackr.app")
	require.NoError(t, err)

	assert.Equal(t, "Payment Reminder: 2 subscriptions due tomorrow", msg.Subject)
	assert.Contains(t, msg.HTML, "Hello there,")
	assert.Contains(t, msg.HTML, "(Jun 15, 2024)")
	assert.Contains(t, msg.HTML, "<strong>Netflix</strong>: $15.49")
	assert.Contains(t, msg.HTML, "&lt;Gym&gt;")
	assert.Contains(t, msg.HTML, "Total: $45.49")
	assert.Contains(t, msg.HTML, `href="https://subtrackr.app"`)
	assert.Contains(t, msg.Text, "- Netflix: $15.49")
	assert.Contains(t, msg.Text, "Total: $45.49")
}

func TestRender_DisplayNameAndNoLink(t *testing.T) {
	r := sampleReminder()
	r.DisplayName = "Ada"

	msg, err := Render(r, "")
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, "Hello Ada,")
	assert.NotContains(t, msg.HTML, "Manage Subscriptions")
}

func TestResendSender_Send(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	s := NewResendSender(ResendConfig{APIKey: "re_test", BaseURL: srv.URL + "/", Client: srv.Client()})
	require.NoError(t, s.Send(context.Background(), sampleReminder()))

	assert.Equal(t, DefaultFrom, got.From)
	assert.Equal(t, []string{"ada@example.com"}, got.To)
	assert.Equal(t, "Payment Reminder: 2 subscriptions due tomorrow", got.Subject)
}

func TestResendSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"invalid to","statusCode":422}`))
	}))
	defer srv.Close()

	s := NewResendSender(ResendConfig{APIKey: "re_test", BaseURL: srv.URL, Client: srv.Client()})
	err := s.Send(context.Background(), sampleReminder())
	require.ErrorIs(t, err, ErrSendFailed)
	assert.Contains(t, err.Error(), "invalid to")
}

func TestBuildMIME(t *testing.T) {
	msg, err := Render(sampleReminder(), "")
	require.NoError(t, err)

	raw := string(buildMIME(DefaultFrom, "ada@example.com", msg))
	assert.True(t, strings.HasPrefix(raw, "From: SubTrackr <onboarding@resend.dev>\r\n"))
	assert.Contains(t, raw, "Subject: Payment Reminder: 2 subscriptions due tomorrow\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8")
	assert.NotContains(t, strings.ReplaceAll(raw, "\r\n", ""), "\n")
}
