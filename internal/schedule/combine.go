package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	appLog "pcal/internal/log"
	"pcal/internal/model"
)

// BusyBlockName names the placeholder events produced by CombineBusy.
const BusyBlockName = "busy"

// NamedCalendar is an external calendar together with the name the
// operator used to refer to it.
type NamedCalendar struct {
	Name     string
	Calendar *model.Calendar
}

// SlotReport is the outcome of a slot search against one external calendar.
type SlotReport struct {
	Calendar string
	Slots    []model.TimeInterval
	Err      error
}

// CombineBusy unions two calendars' events into one non-overlapping busy
// timeline. Identical spans keep a single copy; overlapping events are
// replaced by a block from the earliest start to the latest end, and a
// block keeps absorbing whatever overlaps it. Events that overlap nothing
// pass through unchanged.
func CombineBusy(loaded, external []model.Event) []model.Event {
	all := make([]model.Event, 0, len(loaded)+len(external))
	all = append(all, loaded...)
	all = append(all, external...)
	model.SortByDate(all)

	var (
		out   []model.Event
		names [][]string
		synth []bool
	)
	for _, ev := range all {
		n := len(out)
		if n == 0 || !Overlaps(out[n-1], ev) {
			out = append(out, ev)
			names = append(names, []string{ev.Name})
			synth = append(synth, false)
			continue
		}

		last := &out[n-1]
		if last.Interval == ev.Interval && !synth[n-1] {
			continue
		}
		names[n-1] = append(names[n-1], ev.Name)
		synth[n-1] = true

		span := last.Interval
		if ev.End() > span.End {
			span.End = ev.End()
		}
		*last = model.Event{
			Date:      last.Date,
			Interval:  span,
			Name:      BusyBlockName,
			Note:      joinNames(names[n-1]),
			IsHoliday: last.IsHoliday || ev.IsHoliday,
		}
	}
	return out
}

func joinNames(names []string) string {
	kept := names[:0:0]
	for _, n := range names {
		if n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, ", ")
}

// FreeSlotsAcross finds, per external calendar, the slots on d that are
// free both in cal and in that calendar. A holiday in cal refuses the whole
// search; a holiday in one external calendar only fails its own report.
func FreeSlotsAcross(cal *model.Calendar, externals []NamedCalendar, d civil.Date, minDuration time.Duration, window model.TimeInterval) ([]SlotReport, error) {
	if cal.IsHolidayDate(d) {
		return nil, fmt.Errorf("%w: %s", model.ErrHolidayDate, model.FormatDate(d))
	}

	own := cal.EventsOn(d)
	reports := make([]SlotReport, 0, len(externals))
	for _, ext := range externals {
		rep := SlotReport{Calendar: ext.Name}
		if ext.Calendar.IsHolidayDate(d) {
			rep.Err = fmt.Errorf("%w: %s is a holiday in %s", model.ErrHolidayDate, model.FormatDate(d), ext.Name)
			reports = append(reports, rep)
			continue
		}
		busy := CombineBusy(own, ext.Calendar.EventsOn(d))
		rep.Slots = FindFreeSlots(busy, window, minDuration)
		appLog.Debug("combined slots computed", "calendar", ext.Name, "busy", len(busy), "slots", len(rep.Slots))
		reports = append(reports, rep)
	}
	return reports, nil
}
