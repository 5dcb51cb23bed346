package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
)

const (
	// DateLayout is the dd-MM-yyyy form used on the command line and in files.
	DateLayout  = "02-01-2006"
	ClockLayout = "15:04"
)

// Clock is a time of day with minute precision, counted from midnight.
type Clock int

// EndOfDay is the latest representable Clock.
const EndOfDay Clock = 23*60 + 59

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses an HH:mm token.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q, expected HH:mm", ErrCalendarTime, s)
	}
	return NewClock(t.Hour(), t.Minute()), nil
}

// ClockOf returns the wall-clock time of t in its own location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

// Sub returns the duration c-o.
func (c Clock) Sub(o Clock) time.Duration {
	return time.Duration(c-o) * time.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On places the clock on the given date in loc.
func (c Clock) On(d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour(), c.Minute(), 0, 0, loc)
}

// ParseDate parses a dd-MM-yyyy token. Days that do not exist in the given
// month, including 29-02 of non-leap years, are rejected.
func ParseDate(s string) (civil.Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q, expected dd-MM-yyyy", ErrCalendarDate, s)
	}
	return civil.DateOf(t), nil
}

func FormatDate(d civil.Date) string {
	return d.In(time.UTC).Format(DateLayout)
}

func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

func IsWeekend(d civil.Date) bool {
	wd := Weekday(d)
	return wd == time.Saturday || wd == time.Sunday
}

// ParseHours parses a positive, possibly fractional, number of hours such
// as "2" or "1.5".
func ParseHours(s string) (time.Duration, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number of hours", ErrInput, s)
	}
	if !(hours > 0 && hours <= 24) {
		return 0, fmt.Errorf("%w: hours must be within (0, 24], got %s", ErrInput, s)
	}
	return time.Duration(hours * float64(time.Hour)).Round(time.Minute), nil
}
