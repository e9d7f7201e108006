package queries

import (
	"context"
	"strings"
	"time"

	"delivery-scheduler/internal/domain/delivery"
	"delivery-scheduler/internal/pkg/errs"
)

var ErrInvalidWindowQuery = errs.New("invalid window query")

// MaxPreviewHours bounds the window length a preview may ask for.
const MaxPreviewHours = 24

type WindowView struct {
	ReceivedAt time.Time `json:"received_at"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	TimeZone   string    `json:"time_zone"`
	Hours      int       `json:"hours"`
}

//go:generate mockgen -source=window.go -destination=../../../tests/mock/queries/window.go -package=queriesmock

type WindowQueries interface {
	Preview(ctx context.Context, receivedAt string, hours int) (*WindowView, error)
}

type windowQueriesImpl struct {
	calculator   *delivery.Calculator
	defaultHours int
}

func NewWindowQueries(calculator *delivery.Calculator, defaultHours int) WindowQueries {
	return &windowQueriesImpl{calculator: calculator, defaultHours: defaultHours}
}

// Preview computes the window a trigger received at receivedAt would book.
// A zero hours falls back to the configured window length.
func (q *windowQueriesImpl) Preview(_ context.Context, receivedAt string, hours int) (*WindowView, error) {
	if strings.TrimSpace(receivedAt) == "" {
		return nil, errs.Mark(delivery.ErrMissingTimestamp, ErrInvalidWindowQuery)
	}
	if hours == 0 {
		hours = q.defaultHours
	}
	if hours < 0 || hours > MaxPreviewHours {
		return nil, errs.Mark(delivery.ErrInvalidWindowLength, ErrInvalidWindowQuery)
	}

	zone := q.calculator.Zone()
	received, err := delivery.ParseReceivedTimestamp(receivedAt, zone)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidWindowQuery)
	}

	window, err := q.calculator.ComputeWindow(received, hours)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidWindowQuery)
	}

	return &WindowView{
		ReceivedAt: received,
		Start:      window.Start(),
		End:        window.End(),
		TimeZone:   zone.Name(),
		Hours:      hours,
	}, nil
}
