package delivery

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Booking is the calendar event requested for one delivery window.
type Booking struct {
	Reference   uuid.UUID
	CalendarID  string
	Summary     string
	Description string
	Window      Window
	TimeZone    string
}

type BookingResult struct {
	ID       string
	HTMLLink string
	Status   string
}

func NewBooking(reference uuid.UUID, calendarID string, zone Zone, payload TriggerPayload, window Window) Booking {
	return Booking{
		Reference:   reference,
		CalendarID:  calendarID,
		Summary:     fmt.Sprintf("Delivery: %s", payload.CustomerName),
		Description: bookingDescription(reference, payload),
		Window:      window,
		TimeZone:    zone.Name(),
	}
}

func bookingDescription(reference uuid.UUID, p TriggerPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s\n", p.CustomerName)
	fmt.Fprintf(&b, "Email: %s\n", p.CustomerEmail)
	if p.CustomerNumber != "" {
		fmt.Fprintf(&b, "Phone: %s\n", p.CustomerNumber)
	}
	fmt.Fprintf(&b, "Reference: %s", reference)
	return b.String()
}
