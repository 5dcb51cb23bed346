package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang-sql/civil"

	appLog "pcal/internal/log"
	"pcal/internal/model"
)

// DefaultWindow is the working day searched for free slots.
var DefaultWindow = model.TimeInterval{Start: model.NewClock(8, 0), End: model.NewClock(17, 0)}

// FindFreeSlots walks events in start order and returns the gaps inside
// window lasting at least minDuration. events must not overlap each other.
// Empty gaps are never returned.
func FindFreeSlots(events []model.Event, window model.TimeInterval, minDuration time.Duration) []model.TimeInterval {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	var out []model.TimeInterval
	emit := func(from, to model.Clock) {
		if to > window.End {
			to = window.End
		}
		if to <= from {
			return
		}
		gap := model.TimeInterval{Start: from, End: to}
		if gap.Duration() >= minDuration {
			out = append(out, gap)
		}
	}

	cursor := window.Start
	for _, ev := range sorted {
		if ev.End() <= cursor {
			continue
		}
		if ev.Start() >= window.End {
			break
		}
		emit(cursor, ev.Start())
		cursor = ev.End()
	}
	emit(cursor, window.End)

	return out
}

// FreeSlots searches one working date of cal. Holidays are refused.
func FreeSlots(cal *model.Calendar, d civil.Date, minDuration time.Duration, window model.TimeInterval) ([]model.TimeInterval, error) {
	if cal.IsHolidayDate(d) {
		return nil, fmt.Errorf("%w: %s", model.ErrHolidayDate, model.FormatDate(d))
	}
	slots := FindFreeSlots(cal.EventsOn(d), window, minDuration)
	appLog.Debug("free slots computed", "date", model.FormatDate(d), "min", minDuration.String(), "slots", len(slots))
	return slots, nil
}
