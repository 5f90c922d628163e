// Package notify finds subscriptions that bill tomorrow and emails each
// user one reminder listing them.
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr/internal/model"
)

// DefaultFrom is the sender used when none is configured.
const DefaultFrom = "SubTrackr <onboarding@resend.dev>"

// ReminderItem is one subscription due on the reminder day.
type ReminderItem struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Reminder is the per-user email payload handed to a Sender.
type Reminder struct {
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Day         time.Time       `json:"day"`
	Items       []ReminderItem  `json:"items"`
	Total       decimal.Decimal `json:"total"`
}

// NewReminder builds a reminder and sums its total.
func NewReminder(email, displayName string, day time.Time, items []ReminderItem) Reminder {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return Reminder{
		Email:       email,
		DisplayName: displayName,
		Day:         day,
		Items:       items,
		Total:       total,
	}
}

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

var reminderHTML = template.Must(template.New("reminder").Parse(`<h1>Upcoming Payments for Tomorrow</h1>
<p>Hello {{.Greeting}},</p>
<p>You have the following subscriptions due tomorrow ({{.Day}}):</p>
<ul>
{{- range .Items}}
<li><strong>{{.Name}}</strong>: ${{.Price}}</li>
{{- end}}
</ul>
<p>Total: ${{.Total}}</p>
{{- if .ManageURL}}
<p><a href="{{.ManageURL}}">Manage Subscriptions</a></p>
{{- end}}
`))

type renderItem struct {
	Name  string
	Price string
}

type renderData struct {
	Greeting  string
	Day       string
	Items     []renderItem
	Total     string
	ManageURL string
}

// Render formats r as an email. manageURL is linked at the bottom when set.
func Render(r Reminder, manageURL string) (Message, error) {
	user := model.UserPreference{Email: r.Email, DisplayName: r.DisplayName}

	data := renderData{
		Greeting:  user.Greeting(),
		Day:       r.Day.Format("Jan 2, 2006"),
		Total:     r.Total.StringFixed(2),
		ManageURL: manageURL,
	}
	for _, it := range r.Items {
		data.Items = append(data.Items, renderItem{Name: it.Name, Price: it.Price.StringFixed(2)})
	}

	var html bytes.Buffer
	if err := reminderHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render reminder: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hello %s,\n\nYou have the following subscriptions due tomorrow (%s):\n\n", data.Greeting, data.Day)
	for _, it := range data.Items {
		fmt.Fprintf(&text, "- %s: $%s\n", it.Name, it.Price)
	}
	fmt.Fprintf(&text, "\nTotal: $%s\n", data.Total)
	if manageURL != "" {
		fmt.Fprintf(&text, "\nManage subscriptions: %s\n", manageURL)
	}

	return Message{
		Subject: fmt.Sprintf("Payment Reminder: %d subscriptions due tomorrow", len(r.Items)),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
