package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcal/internal/model"
)

func interval(t *testing.T, start, end string) model.TimeInterval {
	t.Helper()
	iv, err := model.ParseInterval(start, end)
	require.NoError(t, err)
	return iv
}

func TestFindFreeSlotsSkipsShortMorningGap(t *testing.T) {
	events := []model.Event{makeEvent(t, "15-05-2023", "09:00", "10:00", "standup")}

	slots := FindFreeSlots(events, DefaultWindow, 2*time.Hour)

	assert.Equal(t, []model.TimeInterval{interval(t, "10:00", "17:00")}, slots)
}

func TestFindFreeSlotsFractionalHours(t *testing.T) {
	events := []model.Event{
		makeEvent(t, "15-05-2023", "11:30", "12:00", "b"),
		makeEvent(t, "15-05-2023", "08:00", "10:00", "a"),
		makeEvent(t, "15-05-2023", "12:00", "16:00", "c"),
	}
	need, err := model.ParseHours("1.5")
	require.NoError(t, err)

	slots := FindFreeSlots(events, DefaultWindow, need)

	assert.Equal(t, []model.TimeInterval{interval(t, "10:00", "11:30")}, slots)
}

func TestFindFreeSlotsEmptyDay(t *testing.T) {
	slots := FindFreeSlots(nil, DefaultWindow, time.Hour)
	assert.Equal(t, []model.TimeInterval{DefaultWindow}, slots)

	assert.Empty(t, FindFreeSlots(nil, DefaultWindow, 10*time.Hour))
}

func TestFindFreeSlotsClipsToWindow(t *testing.T) {
	events := []model.Event{
		makeEvent(t, "15-05-2023", "06:00", "08:30", "early"),
		makeEvent(t, "15-05-2023", "16:00", "19:00", "late"),
		makeEvent(t, "15-05-2023", "20:00", "21:00", "evening"),
	}

	slots := FindFreeSlots(events, DefaultWindow, time.Hour)

	assert.Equal(t, []model.TimeInterval{interval(t, "08:30", "16:00")}, slots)
}

func TestFindFreeSlotsProperties(t *testing.T) {
	events := []model.Event{
		makeEvent(t, "15-05-2023", "08:15", "09:00", "a"),
		makeEvent(t, "15-05-2023", "09:45", "10:00", "b"),
		makeEvent(t, "15-05-2023", "10:00", "11:10", "c"),
		makeEvent(t, "15-05-2023", "13:00", "13:20", "d"),
		makeEvent(t, "15-05-2023", "15:59", "16:30", "e"),
	}
	for _, need := range []time.Duration{15 * time.Minute, 45 * time.Minute, time.Hour, 2 * time.Hour} {
		for _, slot := range FindFreeSlots(events, DefaultWindow, need) {
			assert.GreaterOrEqual(t, slot.Duration(), need)
			assert.GreaterOrEqual(t, slot.Start, DefaultWindow.Start)
			assert.LessOrEqual(t, slot.End, DefaultWindow.End)
			for _, ev := range events {
				intersects := ev.Start() < slot.End && slot.Start < ev.End()
				assert.False(t, intersects, "slot %s intersects %s", slot, ev)
			}
		}
	}
}

func TestFreeSlotsRefusesHolidays(t *testing.T) {
	cal := model.NewCalendar(nil, nil)
	_, err := Book(cal, "15-05-2023", "09:00", "10:00", "standup", "")
	require.NoError(t, err)
	d, _ := model.ParseDate("15-05-2023")

	slots, err := FreeSlots(cal, d, 2*time.Hour, DefaultWindow)
	require.NoError(t, err)
	assert.Equal(t, []model.TimeInterval{interval(t, "10:00", "17:00")}, slots)

	require.NoError(t, SetHoliday(cal, d))
	_, err = FreeSlots(cal, d, time.Hour, DefaultWindow)
	assert.ErrorIs(t, err, model.ErrHolidayDate)
}
