package ics

import (
	"errors"
	"time"

	"github.com/golang-sql/civil"
	"github.com/teambition/rrule-go"

	appLog "pcal/internal/log"
	"pcal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
	// maxAllDaySpan caps how many days a single all-day event may block.
	maxAllDaySpan = 366
)

// ExpandConfig controls how recurring events are flattened.
type ExpandConfig struct {
	// RangeStart / RangeEnd bound the occurrences produced from RRULEs.
	// Non-recurring events are always kept.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps a single RRULE. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the flattened events.
type ExpandResult struct {
	Events []model.Event
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandOccurrences flattens parsed VEVENTs into calendar events:
//
//   - single events map to one event on their start date
//   - RRULEs are expanded inside the configured range, honouring EXDATE
//   - RECURRENCE-ID overrides replace the matching occurrence
//   - all-day events block 00:00-23:59 on every day they cover
//   - timed events crossing midnight are clipped to their start date
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Overrides are grouped by UID and consumed by their base event.
	var (
		order     []string
		baseByUID = make(map[string][]ParsedEvent)
		overrides = make(map[string][]ParsedEvent)
	)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	for _, uid := range order {
		truncated := false
		for _, ev := range baseByUID[uid] {
			out, hitCap := expandEvent(ev, overrides[uid], cfg)
			truncated = truncated || hitCap
			result.Events = append(result.Events, out...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	if ev.RawRRule == "" {
		if o, ok := findOverrideForStart(overrides, ev.Start); ok {
			ev = o
		}
		return toEvents(ev, ev.Start, ev.End), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	var out []model.Event

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	occTimes := set.Between(
		cfg.RangeStart.In(ev.Start.Location()),
		cfg.RangeEnd.In(ev.Start.Location()),
		true,
	)

	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	dur := ev.End.Sub(ev.Start)
	for _, occStart := range occTimes {
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			out = append(out, toEvents(o, o.Start, o.End)...)
			continue
		}
		out = append(out, toEvents(ev, occStart, occStart.Add(dur))...)
	}

	return out, hitCap
}

// findOverrideForStart finds the override whose RECURRENCE-ID equals start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// toEvents maps one occurrence onto local dates and clocks. Floating and
// all-day values are already local; zoned ones are converted.
func toEvents(ev ParsedEvent, start, end time.Time) []model.Event {
	start, end = start.In(time.Local), end.In(time.Local)
	date := civil.DateOf(start)

	if ev.AllDay {
		last := civil.DateOf(end)
		if !last.After(date) {
			last = date.AddDays(1)
		}
		var out []model.Event
		for d := date; d.Before(last) && len(out) < maxAllDaySpan; d = d.AddDays(1) {
			out = append(out, makeEvent(ev, d, model.TimeInterval{Start: 0, End: model.EndOfDay}))
		}
		return out
	}

	s := model.ClockOf(start)
	e := model.ClockOf(end)
	if civil.DateOf(end).After(date) {
		e = model.EndOfDay
	}
	if e < s {
		e = s
	}
	return []model.Event{makeEvent(ev, date, model.TimeInterval{Start: s, End: e})}
}

func makeEvent(ev ParsedEvent, d civil.Date, iv model.TimeInterval) model.Event {
	out := model.MakeEvent(d, iv, ev.Summary, ev.Description)
	if ev.Holiday != nil {
		out.IsHoliday = *ev.Holiday
	}
	return out
}
