package delivery

import (
	"bytes"
	"encoding/json"
	"html/template"
	"time"

	"github.com/google/uuid"
)

const windowDisplayLayout = "Monday, January 2, 2006 3:04 PM"

type Email struct {
	From     string
	To       string
	Bcc      string
	Subject  string
	HTMLBody string
}

// ScheduledMessage is the internal pub/sub notification for a booked window.
type ScheduledMessage struct {
	Reference     uuid.UUID `json:"reference"`
	BookingID     string    `json:"bookingId,omitempty"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	TimeZone      string    `json:"timeZone"`
}

func NewScheduledMessage(b Booking, result *BookingResult, p TriggerPayload) ScheduledMessage {
	msg := ScheduledMessage{
		Reference:     b.Reference,
		CustomerName:  p.CustomerName,
		CustomerEmail: p.CustomerEmail,
		CustomerPhone: p.CustomerNumber,
		Start:         b.Window.Start(),
		End:           b.Window.End(),
		TimeZone:      b.TimeZone,
	}
	if result != nil {
		msg.BookingID = result.ID
	}
	return msg
}

func (m ScheduledMessage) Encode() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var customerEmailTemplate = template.Must(template.New("customer").Parse(
	`<html><body>` +
		`<p>Hi {{.Name}},</p>` +
		`<p>Your delivery is scheduled between <strong>{{.Start}}</strong> and <strong>{{.End}}</strong> ({{.Zone}}).</p>` +
		`<p>Reference: {{.Reference}}</p>` +
		`</body></html>`,
))

type EmailSettings struct {
	From    string
	Bcc     string
	Subject string
}

func NewCustomerEmail(settings EmailSettings, b Booking, p TriggerPayload) (Email, error) {
	loc, err := time.LoadLocation(b.TimeZone)
	if err != nil {
		loc = b.Window.Start().Location()
	}

	var body bytes.Buffer
	err = customerEmailTemplate.Execute(&body, map[string]any{
		"Name":      p.CustomerName,
		"Start":     b.Window.Start().In(loc).Format(windowDisplayLayout),
		"End":       b.Window.End().In(loc).Format(windowDisplayLayout),
		"Zone":      b.TimeZone,
		"Reference": b.Reference.String(),
	})
	if err != nil {
		return Email{}, err
	}

	return Email{
		From:     settings.From,
		To:       p.CustomerEmail,
		Bcc:      settings.Bcc,
		Subject:  settings.Subject,
		HTMLBody: body.String(),
	}, nil
}
