package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcal/internal/model"
)

func TestBook(t *testing.T) {
	cal := model.NewCalendar(nil, nil)

	ev, err := Book(cal, "15-05-2023", "09:00", "10:00", "standup", "daily")
	require.NoError(t, err)
	assert.Equal(t, "standup", ev.Name)
	assert.False(t, ev.IsHoliday)

	_, err = Book(cal, "15-05-2023", "10:00", "11:00", "review", "")
	require.NoError(t, err, "back-to-back bookings are allowed")

	assert.Equal(t, 2, cal.Len())
}

func TestBookRejectsMalformedInput(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	tests := []struct {
		name             string
		date, start, end string
		want             error
	}{
		{"leap day in common year", "29-02-2023", "09:00", "10:00", model.ErrCalendarDate},
		{"bad time", "15-05-2023", "9 o'clock", "10:00", model.ErrCalendarTime},
		{"inverted", "15-05-2023", "11:00", "10:00", model.ErrInvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Book(cal, tt.date, tt.start, tt.end, "x", "")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, cal.Len())
		})
	}
}

func TestBookConflictLeavesCalendarUnchanged(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	_, err := Book(cal, "15-05-2023", "09:00", "10:00", "standup", "")
	require.NoError(t, err)
	christmas, err := model.ParseDate("25-12-2023")
	require.NoError(t, err)
	require.NoError(t, SetHoliday(cal, christmas))
	beforeEvents, beforeHolidays := cal.Events(), cal.Holidays()

	_, err = Book(cal, "15-05-2023", "09:30", "11:00", "clash", "")
	var conflict *model.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, "standup", conflict.Conflicts[0].Name)

	assert.Equal(t, beforeEvents, cal.Events())
	assert.Equal(t, beforeHolidays, cal.Holidays())
}

func TestBookSameKeyIsAlreadyBooked(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	_, err := Book(cal, "15-05-2023", "09:00", "10:00", "standup", "")
	require.NoError(t, err)

	_, err = Book(cal, "15-05-2023", "09:00", "10:00", "standup again", "")
	assert.ErrorIs(t, err, model.ErrAlreadyBooked)
	assert.NotErrorIs(t, err, model.ErrConflict)
	assert.Equal(t, 1, cal.Len())
}

func TestBookInheritsDeclaredHoliday(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	d, err := model.ParseDate("16-05-2023")
	require.NoError(t, err)
	require.NoError(t, SetHoliday(cal, d))

	ev, err := Book(cal, "16-05-2023", "09:00", "10:00", "picnic", "")
	require.NoError(t, err)
	assert.True(t, ev.IsHoliday)
}

func TestBookThenUnbookRestoresCalendar(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	_, err := Book(cal, "15-05-2023", "09:00", "10:00", "standup", "")
	require.NoError(t, err)
	before := cal.Events()

	_, err = Book(cal, "15-05-2023", "13:00", "14:00", "lunch", "")
	require.NoError(t, err)
	removed, err := Unbook(cal, "15-05-2023", "13:00", "14:00")
	require.NoError(t, err)
	assert.Equal(t, "lunch", removed.Name)

	assert.Equal(t, before, cal.Events())
}

func TestUnbookNotFound(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	_, err := Unbook(cal, "15-05-2023", "13:00", "14:00")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Contains(t, err.Error(), "15-05-2023 13:00-14:00")
}

// Unbook keys on date plus either boundary, so a key that only shares the
// end time removes the event. This mirrors the loose event equality.
func TestUnbookMatchesSharedEndTime(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	_, err := Book(cal, "15-05-2023", "09:00", "10:00", "standup", "")
	require.NoError(t, err)

	removed, err := Unbook(cal, "15-05-2023", "09:30", "10:00")
	require.NoError(t, err)
	assert.Equal(t, "standup", removed.Name)
	assert.Equal(t, 0, cal.Len())
}

func TestChange(t *testing.T) {
	newCal := func(t *testing.T) *model.Calendar {
		cal := model.NewCalendar(nil, nil)
		_, err := Book(cal, "15-05-2023", "09:00", "10:00", "a", "note a")
		require.NoError(t, err)
		_, err = Book(cal, "15-05-2023", "11:00", "12:00", "b", "")
		require.NoError(t, err)
		_, err = Book(cal, "15-05-2023", "12:30", "13:00", "c", "")
		require.NoError(t, err)
		return cal
	}

	t.Run("name in place", func(t *testing.T) {
		cal := newCal(t)
		ev, err := Change(cal, "15-05-2023", "09:00", "name", "renamed")
		require.NoError(t, err)
		assert.Equal(t, "renamed", ev.Name)
		assert.Equal(t, "note a", ev.Note)
	})

	t.Run("note in place", func(t *testing.T) {
		cal := newCal(t)
		ev, err := Change(cal, "15-05-2023", "09:00", "note", "updated")
		require.NoError(t, err)
		assert.Equal(t, "updated", ev.Note)
	})

	t.Run("move date to weekend", func(t *testing.T) {
		cal := newCal(t)
		ev, err := Change(cal, "15-05-2023", "09:00", "date", "20-05-2023")
		require.NoError(t, err)
		assert.True(t, ev.IsHoliday)
		d, _ := model.ParseDate("15-05-2023")
		assert.Len(t, cal.EventsOn(d), 2)
	})

	t.Run("start time excluding itself", func(t *testing.T) {
		cal := newCal(t)
		ev, err := Change(cal, "15-05-2023", "09:00", "startTime", "08:00")
		require.NoError(t, err)
		assert.Equal(t, "08:00-10:00", ev.Interval.String())
	})

	t.Run("end time conflicts with all", func(t *testing.T) {
		cal := newCal(t)
		before := cal.Events()
		_, err := Change(cal, "15-05-2023", "09:00", "endTime", "13:00")
		var conflict *model.ConflictError
		require.True(t, errors.As(err, &conflict))
		require.Len(t, conflict.Conflicts, 2)
		assert.Equal(t, "b", conflict.Conflicts[0].Name)
		assert.Equal(t, "c", conflict.Conflicts[1].Name)
		assert.Equal(t, before, cal.Events())
	})

	t.Run("inverted interval", func(t *testing.T) {
		cal := newCal(t)
		_, err := Change(cal, "15-05-2023", "09:00", "endTime", "08:00")
		assert.ErrorIs(t, err, model.ErrInvalidInterval)
	})

	t.Run("unknown option", func(t *testing.T) {
		cal := newCal(t)
		_, err := Change(cal, "15-05-2023", "09:00", "colour", "red")
		assert.ErrorIs(t, err, model.ErrInput)
		assert.Contains(t, err.Error(), "colour is not recognized")
	})

	t.Run("missing event", func(t *testing.T) {
		_, err := Change(model.NewCalendar(nil, nil), "15-05-2023", "09:00", "name", "x")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestAgendaAndFind(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	_, err := Book(cal, "15-05-2023", "14:00", "15:00", "Dentist", "bring card")
	require.NoError(t, err)
	_, err = Book(cal, "15-05-2023", "09:00", "10:00", "standup", "")
	require.NoError(t, err)
	_, err = Book(cal, "14-05-2023", "09:00", "10:00", "brunch", "CARDamom buns")
	require.NoError(t, err)

	d, _ := model.ParseDate("15-05-2023")
	agenda := Agenda(cal, d)
	require.Len(t, agenda, 2)
	assert.Equal(t, "standup", agenda[0].Name)
	assert.Equal(t, "Dentist", agenda[1].Name)

	found, err := Find(cal, "card")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "brunch", found[0].Name)
	assert.Equal(t, "Dentist", found[1].Name)

	found, err = Find(cal, "nothing")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = Find(cal, "  ")
	assert.ErrorIs(t, err, model.ErrInput)
}

func TestSetHoliday(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	_, err := Book(cal, "15-05-2023", "09:00", "10:00", "standup", "")
	require.NoError(t, err)
	d, _ := model.ParseDate("15-05-2023")

	require.NoError(t, SetHoliday(cal, d))
	assert.True(t, Agenda(cal, d)[0].IsHoliday)
	assert.ErrorIs(t, SetHoliday(cal, d), model.ErrAlreadyHoliday)

	saturday, _ := model.ParseDate("20-05-2023")
	_, err = Book(cal, "20-05-2023", "09:00", "10:00", "hike", "")
	require.NoError(t, err)
	assert.ErrorIs(t, SetHoliday(cal, saturday), model.ErrAlreadyHoliday)
}
