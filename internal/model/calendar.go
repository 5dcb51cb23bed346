package model

import (
	"fmt"
	"sort"

	"github.com/golang-sql/civil"
)

// Calendar is the set of events of one calendar file plus the dates the
// owner declared as holidays. Events never share a key under Event.Equal.
//
// Readers get copies; all mutation goes through the methods below.
type Calendar struct {
	events   []Event
	holidays map[civil.Date]struct{}
}

// NewCalendar builds a calendar from loaded events. Events equal to an
// earlier one are dropped. Dates of events flagged as holiday are added to
// the holiday set together with the explicit holidays.
func NewCalendar(events []Event, holidays []civil.Date) *Calendar {
	c := &Calendar{holidays: make(map[civil.Date]struct{})}
	for _, d := range holidays {
		c.holidays[d] = struct{}{}
	}
	for _, ev := range events {
		if _, dup := c.index(ev); dup {
			continue
		}
		c.events = append(c.events, ev)
		if ev.IsHoliday {
			c.holidays[ev.Date] = struct{}{}
		}
	}
	return c
}

func (c *Calendar) Len() int { return len(c.events) }

// Events returns a snapshot of all events ordered by date, then start.
func (c *Calendar) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	SortByDate(out)
	return out
}

// EventsOn returns a snapshot of the events on d ordered by start.
func (c *Calendar) EventsOn(d civil.Date) []Event {
	var out []Event
	for _, ev := range c.events {
		if ev.Date == d {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Holidays returns the holiday set in chronological order.
func (c *Calendar) Holidays() []civil.Date {
	out := make([]civil.Date, 0, len(c.holidays))
	for d := range c.holidays {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// HasHoliday reports whether d was declared a holiday.
func (c *Calendar) HasHoliday(d civil.Date) bool {
	_, ok := c.holidays[d]
	return ok
}

// IsHolidayDate reports whether d is a declared holiday or carries any
// event flagged as holiday.
func (c *Calendar) IsHolidayDate(d civil.Date) bool {
	if c.HasHoliday(d) {
		return true
	}
	for _, ev := range c.events {
		if ev.Date == d && ev.IsHoliday {
			return true
		}
	}
	return false
}

// Lookup finds the event equal to key.
func (c *Calendar) Lookup(key Event) (Event, bool) {
	i, ok := c.index(key)
	if !ok {
		return Event{}, false
	}
	return c.events[i], true
}

// LookupStart finds the event on d starting at start.
func (c *Calendar) LookupStart(d civil.Date, start Clock) (Event, bool) {
	for _, ev := range c.events {
		if ev.Date == d && ev.Start() == start {
			return ev, true
		}
	}
	return Event{}, false
}

// Insert adds ev unless an equal event is already present. It does not
// check for overlaps; that is the caller's job.
func (c *Calendar) Insert(ev Event) error {
	if existing, dup := c.Lookup(ev); dup {
		return fmt.Errorf("%w: %s", ErrAlreadyBooked, existing)
	}
	c.events = append(c.events, ev)
	return nil
}

// Remove deletes the event equal to key and returns it.
func (c *Calendar) Remove(key Event) (Event, error) {
	i, ok := c.index(key)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	removed := c.events[i]
	c.events = append(c.events[:i], c.events[i+1:]...)
	return removed, nil
}

// Replace swaps the exact event old for next. Nothing changes on error.
func (c *Calendar) Replace(old, next Event) error {
	at := -1
	for i, ev := range c.events {
		if ev == old {
			at = i
			break
		}
	}
	if at < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, old)
	}
	for i, ev := range c.events {
		if i != at && ev.Equal(next) {
			return fmt.Errorf("%w: %s", ErrAlreadyBooked, ev)
		}
	}
	c.events[at] = next
	return nil
}

// SetName renames the event equal to key.
func (c *Calendar) SetName(key Event, name string) (Event, error) {
	return c.update(key, func(ev *Event) { ev.Name = name })
}

// SetNote replaces the note of the event equal to key.
func (c *Calendar) SetNote(key Event, note string) (Event, error) {
	return c.update(key, func(ev *Event) { ev.Note = note })
}

// MarkHoliday flags every event on d and remembers d so that later
// bookings inherit the flag.
func (c *Calendar) MarkHoliday(d civil.Date) {
	for i := range c.events {
		if c.events[i].Date == d {
			c.events[i].IsHoliday = true
		}
	}
	if c.holidays == nil {
		c.holidays = make(map[civil.Date]struct{})
	}
	c.holidays[d] = struct{}{}
}

func (c *Calendar) update(key Event, fn func(*Event)) (Event, error) {
	i, ok := c.index(key)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	fn(&c.events[i])
	return c.events[i], nil
}

func (c *Calendar) index(key Event) (int, bool) {
	for i, ev := range c.events {
		if ev.Equal(key) {
			return i, true
		}
	}
	return -1, false
}

// SortByDate orders events by date, then start time.
func SortByDate(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.Less(b)
	})
}
