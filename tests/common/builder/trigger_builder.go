//go:build unit || e2e

package builder

import (
	"time"

	"delivery-scheduler/internal/domain/delivery"
	reqdto "delivery-scheduler/internal/handler/dto/request"
	"delivery-scheduler/internal/usecase/commands"

	"github.com/google/uuid"
)

type TriggerBuilder struct {
	ReceivedAt     time.Time
	CustomerName   string
	CustomerEmail  string
	CustomerNumber string
}

func NewTriggerBuilder() *TriggerBuilder {
	return &TriggerBuilder{
		ReceivedAt:     time.Date(2021, 3, 30, 16, 25, 5, 0, time.UTC),
		CustomerName:   "Ada Lovelace",
		CustomerEmail:  "ada@example.com",
		CustomerNumber: "+1 555 0100",
	}
}

func (b *TriggerBuilder) WithReceivedAt(t time.Time) *TriggerBuilder {
	b.ReceivedAt = t
	return b
}

func (b *TriggerBuilder) WithCustomerEmail(email string) *TriggerBuilder {
	b.CustomerEmail = email
	return b
}

func (b *TriggerBuilder) With(mutate func(*TriggerBuilder)) *TriggerBuilder {
	mutate(b)
	return b
}

// Build methods
func (b *TriggerBuilder) BuildDomain() delivery.TriggerPayload {
	return delivery.TriggerPayload{
		ReceivedTimestamp: b.ReceivedAt.Format(time.RFC3339),
		CustomerName:      b.CustomerName,
		CustomerEmail:     b.CustomerEmail,
		CustomerNumber:    b.CustomerNumber,
	}
}

func (b *TriggerBuilder) BuildRequestDTO() reqdto.TriggerRequest {
	return reqdto.TriggerRequest{
		ReceivedTimestamp: b.ReceivedAt.Format(time.RFC3339),
		CustomerName:      b.CustomerName,
		CustomerEmail:     b.CustomerEmail,
		CustomerNumber:    b.CustomerNumber,
	}
}

// BuildScheduleResult returns a finished run for the trigger with a
// two-hour window in the default zone.
func (b *TriggerBuilder) BuildScheduleResult(replayed bool) (*commands.ScheduleResult, error) {
	zone := delivery.MustLoadZone(delivery.DefaultZoneName)
	window, err := delivery.NewCalculator(zone).ComputeWindow(b.ReceivedAt, 2)
	if err != nil {
		return nil, err
	}

	res := &commands.ScheduleResult{
		RunID:         uuid.New(),
		Stage:         commands.StageDone,
		Window:        window,
		BookingResult: &delivery.BookingResult{ID: "evt-1", HTMLLink: "https://calendar/evt-1", Status: "confirmed"},
		IsReplayed:    replayed,
	}
	if !replayed {
		res.Notification = commands.NotificationOutcome{Published: true, Emailed: true}
	}
	return res, nil
}
