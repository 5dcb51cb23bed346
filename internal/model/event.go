package model

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"
)

// TimeInterval is a time-of-day range with Start <= End.
type TimeInterval struct {
	Start Clock
	End   Clock
}

// NewInterval validates start <= end.
func NewInterval(start, end Clock) (TimeInterval, error) {
	if start > end {
		return TimeInterval{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidInterval, start, end)
	}
	return TimeInterval{Start: start, End: end}, nil
}

// ParseInterval parses two HH:mm tokens into a validated interval.
func ParseInterval(start, end string) (TimeInterval, error) {
	s, err := ParseClock(start)
	if err != nil {
		return TimeInterval{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return TimeInterval{}, err
	}
	return NewInterval(s, e)
}

func (ti TimeInterval) Duration() time.Duration {
	return ti.End.Sub(ti.Start)
}

func (ti TimeInterval) String() string {
	return ti.Start.String() + "-" + ti.End.String()
}

// Event is a single booking on a calendar date.
type Event struct {
	Date      civil.Date
	Interval  TimeInterval
	Name      string
	Note      string
	IsHoliday bool
}

// NewEvent builds an event from command-line tokens. The holiday flag
// starts out true on weekends.
func NewEvent(date, start, end, name, note string) (Event, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Event{}, err
	}
	iv, err := ParseInterval(start, end)
	if err != nil {
		return Event{}, err
	}
	return MakeEvent(d, iv, name, note), nil
}

func MakeEvent(date civil.Date, iv TimeInterval, name, note string) Event {
	return Event{
		Date:      date,
		Interval:  iv,
		Name:      name,
		Note:      note,
		IsHoliday: IsWeekend(date),
	}
}

// Key builds an event usable only as a lookup key for Calendar.Lookup and
// Calendar.Remove.
func Key(date civil.Date, start, end Clock) Event {
	return Event{Date: date, Interval: TimeInterval{Start: start, End: end}}
}

func (e Event) Start() Clock { return e.Interval.Start }
func (e Event) End() Clock   { return e.Interval.End }

func (e Event) Duration() time.Duration { return e.Interval.Duration() }

// Equal reports whether e and o denote the same booking: same date and the
// same start or the same end. This is intentionally looser than identity,
// so a key with a matching start time finds the event whatever its end.
func (e Event) Equal(o Event) bool {
	if e.Date != o.Date {
		return false
	}
	return e.Start() == o.Start() || e.End() == o.End()
}

// Less orders events by start time only.
func (e Event) Less(o Event) bool {
	return e.Start() < o.Start()
}

// WithInterval returns a copy of e moved to another time range.
func (e Event) WithInterval(iv TimeInterval) Event {
	e.Interval = iv
	return e
}

func (e Event) String() string {
	s := FormatDate(e.Date) + " " + e.Interval.String()
	if e.Name != "" {
		s += " " + e.Name
	}
	return s
}
