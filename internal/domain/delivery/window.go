package delivery

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrHourOutOfRange      = errors.New("civil hour out of range")
	ErrInvalidWindowLength = errors.New("window length must be positive")
	ErrInvalidWindow       = errors.New("window start must be before end")
)

// Slot is the bucketed base delivery slot for a civil hour.
type Slot struct {
	Hour     int
	DaysAway int
}

// SlotForHour maps a civil hour to its delivery slot. Range bounds are
// inclusive and each boundary hour belongs to the lower range.
func SlotForHour(hour int) (Slot, error) {
	switch {
	case hour < 0 || hour > 23:
		return Slot{}, fmt.Errorf("%w: %d", ErrHourOutOfRange, hour)
	case hour <= 8:
		return Slot{Hour: 9, DaysAway: 1}, nil
	case hour <= 16:
		return Slot{Hour: hour, DaysAway: 1}, nil
	case hour <= 20:
		return Slot{Hour: 16, DaysAway: 1}, nil
	default:
		return Slot{Hour: 9, DaysAway: 2}, nil
	}
}

type Window struct {
	start time.Time
	end   time.Time
}

func NewWindow(start, end time.Time) (Window, error) {
	if !start.Before(end) {
		return Window{}, ErrInvalidWindow
	}
	return Window{start: start, end: end}, nil
}

func (w Window) Start() time.Time {
	return w.start
}

func (w Window) End() time.Time {
	return w.end
}

func (w Window) Duration() time.Duration {
	return w.end.Sub(w.start)
}

func (w Window) IsZero() bool {
	return w.start.IsZero() && w.end.IsZero()
}

type Calculator struct {
	zone Zone
}

// NewCalculator schedules in zone, or in DefaultZoneName for a zero Zone.
func NewCalculator(zone Zone) *Calculator {
	if zone.loc == nil {
		zone = MustLoadZone(DefaultZoneName)
	}
	return &Calculator{zone: zone}
}

func (c *Calculator) Zone() Zone {
	return c.zone
}

// ComputeWindow returns the delivery window offered for an event received at
// the given instant. The day offset is added on the absolute instant so DST
// transitions in between are honored by the time library.
func (c *Calculator) ComputeWindow(received time.Time, windowLengthHours int) (Window, error) {
	if windowLengthHours <= 0 {
		return Window{}, fmt.Errorf("%w: %d", ErrInvalidWindowLength, windowLengthHours)
	}

	civil := c.zone.Civil(received)
	slot, err := SlotForHour(civil.Hour)
	if err != nil {
		return Window{}, err
	}

	start := civil.At(slot.Hour).
		Add(time.Duration(slot.DaysAway) * 24 * time.Hour).
		In(c.zone.Location())
	end := start.Add(time.Duration(windowLengthHours) * time.Hour)

	return NewWindow(start, end)
}
