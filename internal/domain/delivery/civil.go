package delivery

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"
)

const DefaultZoneName = "America/New_York"

var ErrUnknownZone = errors.New("unknown time zone")

// Zone is the fixed civil timezone deliveries are scheduled in.
type Zone struct {
	loc *time.Location
}

func LoadZone(name string) (Zone, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("%w: %s", ErrUnknownZone, name)
	}
	return Zone{loc: loc}, nil
}

func MustLoadZone(name string) Zone {
	z, err := LoadZone(name)
	if err != nil {
		panic(err)
	}
	return z
}

func (z Zone) Name() string {
	return z.loc.String()
}

func (z Zone) Location() *time.Location {
	return z.loc
}

// CivilTime is the wall-clock reading of an instant in a Zone.
type CivilTime struct {
	Year        int
	Month       time.Month
	Day         int
	Hour        int
	OffsetHours int
}

// Civil reads t on the zone's wall clock. OffsetHours is the prevailing UTC
// offset in whole hours, daylight saving included.
func (z Zone) Civil(t time.Time) CivilTime {
	local := t.In(z.loc)
	_, offsetSec := local.Zone()
	return CivilTime{
		Year:        local.Year(),
		Month:       local.Month(),
		Day:         local.Day(),
		Hour:        local.Hour(),
		OffsetHours: offsetSec / 3600,
	}
}

// At builds the instant for hour:00:00 on the same civil date, pinned to the
// offset observed when c was read rather than the one prevailing at that hour.
func (c CivilTime) At(hour int) time.Time {
	return time.Date(c.Year, c.Month, c.Day, hour, 0, 0, 0, time.FixedZone("", c.OffsetHours*3600))
}
