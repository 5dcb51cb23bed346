package schedule

import (
	"fmt"
	"strings"

	"github.com/golang-sql/civil"

	appLog "pcal/internal/log"
	"pcal/internal/model"
)

// Change options accepted by Change.
const (
	OptionDate      = "date"
	OptionStartTime = "startTime"
	OptionEndTime   = "endTime"
	OptionName      = "name"
	OptionNote      = "note"
)

// Book validates the raw fields, inherits the holiday flag of declared
// holidays and inserts the event unless it clashes with an existing one.
// The calendar is untouched on error.
func Book(cal *model.Calendar, date, start, end, name, note string) (model.Event, error) {
	ev, err := model.NewEvent(date, start, end, name, note)
	if err != nil {
		return model.Event{}, err
	}
	if cal.HasHoliday(ev.Date) {
		ev.IsHoliday = true
	}

	if existing, dup := cal.Lookup(ev); dup {
		return model.Event{}, fmt.Errorf("%w: %s", model.ErrAlreadyBooked, existing)
	}
	if conflicts := FindConflicts(cal, ev); len(conflicts) > 0 {
		return model.Event{}, &model.ConflictError{Candidate: ev, Conflicts: conflicts}
	}
	if err := cal.Insert(ev); err != nil {
		return model.Event{}, err
	}

	appLog.Debug("event booked", "event", ev.String(), "holiday", ev.IsHoliday)
	return ev, nil
}

// Unbook removes the event matching date and either boundary time.
func Unbook(cal *model.Calendar, date, start, end string) (model.Event, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return model.Event{}, err
	}
	iv, err := model.ParseInterval(start, end)
	if err != nil {
		return model.Event{}, err
	}

	removed, err := cal.Remove(model.Key(d, iv.Start, iv.End))
	if err != nil {
		return model.Event{}, fmt.Errorf("%w booked: %s %s", model.ErrNotFound, date, iv)
	}

	appLog.Debug("event unbooked", "event", removed.String())
	return removed, nil
}

// Change edits one field of the event starting at date+start. Moving the
// event in time re-checks conflicts against every other event and either
// swaps old for new or leaves the calendar as it was.
func Change(cal *model.Calendar, date, start, option, value string) (model.Event, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return model.Event{}, err
	}
	s, err := model.ParseClock(start)
	if err != nil {
		return model.Event{}, err
	}

	old, ok := cal.LookupStart(d, s)
	if !ok {
		return model.Event{}, fmt.Errorf("%w in the calendar: %s %s", model.ErrNotFound, date, s)
	}

	next := old
	switch {
	case strings.EqualFold(option, OptionName):
		return cal.SetName(old, value)
	case strings.EqualFold(option, OptionNote):
		return cal.SetNote(old, value)
	case strings.EqualFold(option, OptionDate):
		nd, err := model.ParseDate(value)
		if err != nil {
			return model.Event{}, err
		}
		next.Date = nd
		next.IsHoliday = model.IsWeekend(nd) || cal.HasHoliday(nd)
	case strings.EqualFold(option, OptionStartTime):
		c, err := model.ParseClock(value)
		if err != nil {
			return model.Event{}, err
		}
		iv, err := model.NewInterval(c, old.End())
		if err != nil {
			return model.Event{}, err
		}
		next = old.WithInterval(iv)
	case strings.EqualFold(option, OptionEndTime):
		c, err := model.ParseClock(value)
		if err != nil {
			return model.Event{}, err
		}
		iv, err := model.NewInterval(old.Start(), c)
		if err != nil {
			return model.Event{}, err
		}
		next = old.WithInterval(iv)
	default:
		return model.Event{}, fmt.Errorf("%w: %s is not recognized as internal command", model.ErrInput, option)
	}

	if conflicts := conflictsExcept(cal, next, &old); len(conflicts) > 0 {
		return model.Event{}, &model.ConflictError{Candidate: next, Conflicts: conflicts}
	}
	if err := cal.Replace(old, next); err != nil {
		return model.Event{}, err
	}

	appLog.Debug("event changed", "from", old.String(), "to", next.String(), "option", option)
	return next, nil
}

// Agenda lists the events on d in chronological order.
func Agenda(cal *model.Calendar, d civil.Date) []model.Event {
	return cal.EventsOn(d)
}

// Find returns the events whose name or note contains text, ignoring case,
// ordered by date and start.
func Find(cal *model.Calendar, text string) ([]model.Event, error) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil, fmt.Errorf("%w: empty search string", model.ErrInput)
	}
	var out []model.Event
	for _, ev := range cal.Events() {
		if strings.Contains(strings.ToLower(ev.Name), needle) || strings.Contains(strings.ToLower(ev.Note), needle) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// SetHoliday declares d a holiday, flagging the events already booked on it.
func SetHoliday(cal *model.Calendar, d civil.Date) error {
	if cal.IsHolidayDate(d) {
		return fmt.Errorf("%w: %s", model.ErrAlreadyHoliday, model.FormatDate(d))
	}
	cal.MarkHoliday(d)
	appLog.Debug("holiday set", "date", model.FormatDate(d))
	return nil
}
