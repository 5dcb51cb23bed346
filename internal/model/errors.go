package model

import (
	"errors"
	"strings"
)

var (
	// ErrCalendarDate reports an unparsable or non-existent date.
	ErrCalendarDate = errors.New("invalid date")
	// ErrCalendarTime reports an unparsable time of day.
	ErrCalendarTime = errors.New("invalid time")
	// ErrInvalidInterval reports a start time after the end time.
	ErrInvalidInterval = errors.New("invalid interval")
	ErrConflict        = errors.New("conflicting event")
	ErrNotFound        = errors.New("no such event")
	ErrAlreadyBooked   = errors.New("event is already booked")
	ErrAlreadyHoliday  = errors.New("that date is already holiday")
	// ErrHolidayDate is returned by slot searches on non-working dates.
	ErrHolidayDate = errors.New("search for free spaces only in work days")
	// ErrInput covers malformed command arguments: counts, options, durations.
	ErrInput        = errors.New("invalid input")
	ErrMergeAborted = errors.New("merge aborted")
)

// ConflictError is returned when a candidate event overlaps existing ones.
// Conflicts is ordered by start time.
type ConflictError struct {
	Candidate Event
	Conflicts []Event
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 1 {
		return "the event you have typed is currently incompatible with event: " + e.Conflicts[0].String()
	}
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, c.String())
	}
	return "the event you have typed is currently incompatible with events: " + strings.Join(parts, "; ")
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
