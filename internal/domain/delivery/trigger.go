package delivery

import (
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
)

var (
	ErrMissingTimestamp     = errors.New("received timestamp is required")
	ErrInvalidTimestamp     = errors.New("received timestamp is not a recognised date")
	ErrMissingCustomer      = errors.New("customer name is required")
	ErrInvalidCustomerEmail = errors.New("customer email is invalid")
)

// TriggerPayload is the inbound event that starts one scheduling run.
type TriggerPayload struct {
	ReceivedTimestamp string
	CustomerName      string
	CustomerEmail     string
	CustomerNumber    string
}

// Layouts carrying an explicit offset or zone name.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC850,
	time.UnixDate,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// RFC 2822 obsolete zone names. time.Parse reads abbreviations it does not
// know as +0000, so these are pinned to their fixed offsets.
var obsoleteZones = map[string]int{
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

// resolveZoneName fixes up a time parsed from a layout with a zone name.
// Names other than the universal ones that came back with a zero offset
// were not understood and are rejected.
func resolveZoneName(t time.Time, input string) (time.Time, bool) {
	name, offset := t.Zone()
	if !slices.Contains(strings.Fields(input), name) {
		return t, true
	}
	if hours, ok := obsoleteZones[name]; ok {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
			time.FixedZone(name, hours*3600)), true
	}
	switch name {
	case "UT", "UTC", "GMT", "Z":
		return t, true
	}
	return t, offset != 0
}

// Layouts without an offset; these are read as civil time in the target zone.
var civilLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.ANSIC,
}

// ParseReceivedTimestamp accepts RFC 2822 and ISO 8601 renderings. A bare
// date is midnight UTC; a date-time without offset is civil time in zone.
func ParseReceivedTimestamp(value string, zone Zone) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, ErrMissingTimestamp
	}

	// JS toString() appends a parenthesised zone name.
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}

	// time.Parse only knows zone names of three or more letters.
	if strings.HasSuffix(s, " UT") {
		s += "C"
	}

	for _, layout := range zonedLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t, ok := resolveZoneName(t, s); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("%w: unknown zone in %q", ErrInvalidTimestamp, value)
	}
	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, s, zone.Location()); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, value)
}

// Validate reports the first problem that prevents scheduling.
func (p TriggerPayload) Validate() error {
	if strings.TrimSpace(p.ReceivedTimestamp) == "" {
		return ErrMissingTimestamp
	}
	if strings.TrimSpace(p.CustomerName) == "" {
		return ErrMissingCustomer
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(p.CustomerEmail)); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidCustomerEmail, p.CustomerEmail)
	}
	return nil
}

func (p TriggerPayload) Normalized() TriggerPayload {
	return TriggerPayload{
		ReceivedTimestamp: strings.TrimSpace(p.ReceivedTimestamp),
		CustomerName:      strings.TrimSpace(p.CustomerName),
		CustomerEmail:     strings.ToLower(strings.TrimSpace(p.CustomerEmail)),
		CustomerNumber:    strings.TrimSpace(p.CustomerNumber),
	}
}
