package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcal/internal/model"
)

func TestCombineBusySynthesizesBlock(t *testing.T) {
	loaded := []model.Event{makeEvent(t, "01-06-2023", "09:00", "10:00", "mine")}
	external := []model.Event{makeEvent(t, "01-06-2023", "09:30", "11:00", "theirs")}

	busy := CombineBusy(loaded, external)

	require.Len(t, busy, 1)
	assert.Equal(t, "09:00-11:00", busy[0].Interval.String())
	assert.Equal(t, BusyBlockName, busy[0].Name)
	assert.Equal(t, "mine, theirs", busy[0].Note)
}

func TestCombineBusyKeepsOneCopyOfIdenticalSpans(t *testing.T) {
	mine := makeEvent(t, "01-06-2023", "09:00", "10:00", "mine")
	theirs := makeEvent(t, "01-06-2023", "09:00", "10:00", "theirs")

	busy := CombineBusy([]model.Event{mine}, []model.Event{theirs})

	assert.Equal(t, []model.Event{mine}, busy)
}

func TestCombineBusyAbsorbsTransitively(t *testing.T) {
	loaded := []model.Event{
		makeEvent(t, "01-06-2023", "09:00", "10:00", "a"),
		makeEvent(t, "01-06-2023", "10:30", "12:00", "b"),
		makeEvent(t, "01-06-2023", "15:00", "16:00", "c"),
	}
	external := []model.Event{
		makeEvent(t, "01-06-2023", "09:45", "10:45", "x"),
		makeEvent(t, "01-06-2023", "11:30", "13:00", "y"),
		makeEvent(t, "01-06-2023", "16:00", "16:30", "z"),
	}

	busy := CombineBusy(loaded, external)

	require.Len(t, busy, 3)
	assert.Equal(t, "09:00-13:00", busy[0].Interval.String())
	assert.Equal(t, "a, x, b, y", busy[0].Note)
	assert.Equal(t, loaded[2], busy[1], "back-to-back events pass through")
	assert.Equal(t, external[2], busy[2])

	for i := 1; i < len(busy); i++ {
		assert.False(t, Overlaps(busy[i-1], busy[i]))
	}
}

func TestCombineBusyContainedEvent(t *testing.T) {
	loaded := []model.Event{makeEvent(t, "01-06-2023", "09:00", "17:00", "workshop")}
	external := []model.Event{makeEvent(t, "01-06-2023", "10:00", "11:00", "call")}

	busy := CombineBusy(loaded, external)

	require.Len(t, busy, 1)
	assert.Equal(t, "09:00-17:00", busy[0].Interval.String())
}

func TestFreeSlotsAcrossReportsPerCalendar(t *testing.T) {
	cal := model.NewCalendar([]model.Event{makeEvent(t, "01-06-2023", "09:00", "10:00", "mine")}, nil)
	team := model.NewCalendar([]model.Event{makeEvent(t, "01-06-2023", "09:30", "11:00", "team sync")}, nil)
	off := makeEvent(t, "01-06-2023", "08:00", "17:00", "leave")
	off.IsHoliday = true
	partner := model.NewCalendar([]model.Event{off}, nil)
	empty := model.NewCalendar(nil, nil)
	d, _ := model.ParseDate("01-06-2023")

	reports, err := FreeSlotsAcross(cal, []NamedCalendar{
		{Name: "team.xml", Calendar: team},
		{Name: "partner.xml", Calendar: partner},
		{Name: "empty.xml", Calendar: empty},
	}, d, 2*time.Hour, DefaultWindow)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "team.xml", reports[0].Calendar)
	assert.NoError(t, reports[0].Err)
	assert.Equal(t, []model.TimeInterval{interval(t, "11:00", "17:00")}, reports[0].Slots)

	assert.ErrorIs(t, reports[1].Err, model.ErrHolidayDate)

	assert.Equal(t, []model.TimeInterval{interval(t, "10:00", "17:00")}, reports[2].Slots)
}

func TestFreeSlotsAcrossRefusesLoadedHoliday(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	d, _ := model.ParseDate("01-06-2023")
	require.NoError(t, SetHoliday(cal, d))

	_, err := FreeSlotsAcross(cal, nil, d, time.Hour, DefaultWindow)
	assert.ErrorIs(t, err, model.ErrHolidayDate)
}
