package schedule

import (
	"pcal/internal/model"
)

// Overlaps reports whether a and b cannot both be booked. Events on
// different dates never overlap. On the same date they overlap when they
// share a start or an end, or when each starts before the other ends, so
// back-to-back events (a.End == b.Start) are compatible.
func Overlaps(a, b model.Event) bool {
	if a.Date != b.Date {
		return false
	}
	if a.Start() == b.Start() || a.End() == b.End() {
		return true
	}
	return a.Start() < b.End() && b.Start() < a.End()
}

// FindConflicts returns every event of cal overlapping candidate, ordered
// by start time.
func FindConflicts(cal *model.Calendar, candidate model.Event) []model.Event {
	return conflictsExcept(cal, candidate, nil)
}

// conflictsExcept is FindConflicts ignoring the event identical to *skip.
func conflictsExcept(cal *model.Calendar, candidate model.Event, skip *model.Event) []model.Event {
	var out []model.Event
	for _, ev := range cal.EventsOn(candidate.Date) {
		if skip != nil && ev == *skip {
			continue
		}
		if Overlaps(ev, candidate) {
			out = append(out, ev)
		}
	}
	return out
}
