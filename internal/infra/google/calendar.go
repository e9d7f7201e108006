package google

import (
	"context"
	"net/http"
	"strings"
	"time"

	"delivery-scheduler/internal/domain/delivery"
	"delivery-scheduler/internal/pkg/errs"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type CalendarClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewCalendarClient targets the Calendar v3 API rooted at baseURL.
func NewCalendarClient(httpClient *http.Client, baseURL string) *CalendarClient {
	return &CalendarClient{httpClient: httpClient, baseURL: strings.TrimRight(baseURL, "/") + "/"}
}

// CreateEvent inserts the booking into its calendar using the bearer token.
func (c *CalendarClient) CreateEvent(ctx context.Context, booking delivery.Booking, accessToken string) (*delivery.BookingResult, error) {
	svc, err := c.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	event, err := svc.Events.Insert(booking.CalendarID, newEvent(booking)).Context(ctx).Do()
	if err != nil {
		return nil, apiError(err, "insert event")
	}
	return &delivery.BookingResult{ID: event.Id, HTMLLink: event.HtmlLink, Status: event.Status}, nil
}

func (c *CalendarClient) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient), ts)

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client), option.WithEndpoint(c.baseURL))
	if err != nil {
		return nil, errs.Wrap(err, "create calendar service")
	}
	return svc, nil
}

func newEvent(b delivery.Booking) *calendar.Event {
	return &calendar.Event{
		Summary:     b.Summary,
		Description: b.Description,
		Start:       &calendar.EventDateTime{DateTime: b.Window.Start().Format(time.RFC3339), TimeZone: b.TimeZone},
		End:         &calendar.EventDateTime{DateTime: b.Window.End().Format(time.RFC3339), TimeZone: b.TimeZone},
	}
}

// apiError turns a googleapi error into an APIError so callers see one
// provider error type.
func apiError(err error, msg string) error {
	var gerr *googleapi.Error
	if errs.As(err, &gerr) {
		body := gerr.Body
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		if body == "" {
			body = gerr.Message
		}
		return &APIError{StatusCode: gerr.Code, Body: strings.TrimSpace(body)}
	}
	return errs.Wrap(err, msg)
}
