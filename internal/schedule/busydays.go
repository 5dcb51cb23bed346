package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"pcal/internal/model"
)

var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayLoad is the total booked time on one day of the week.
type WeekdayLoad struct {
	Day   time.Weekday
	Total time.Duration
}

func (w WeekdayLoad) String() string {
	total := int(w.Total / time.Minute)
	return fmt.Sprintf("%s - %dh %dm", strings.ToUpper(w.Day.String()), total/60, total%60)
}

// Busydays sums event durations per weekday for dates in [from, to] and
// returns the weekdays that have events, busiest first. Ties keep
// Monday-first order.
func Busydays(cal *model.Calendar, from, to civil.Date) ([]WeekdayLoad, error) {
	if from.After(to) {
		return nil, fmt.Errorf("%w: invalid date interval, start date must be before end date", model.ErrInput)
	}

	totals := make(map[time.Weekday]time.Duration)
	for _, ev := range cal.Events() {
		if ev.Date.Before(from) || ev.Date.After(to) {
			continue
		}
		totals[model.Weekday(ev.Date)] += ev.Duration()
	}

	out := make([]WeekdayLoad, 0, len(totals))
	for _, wd := range weekOrder {
		if total, ok := totals[wd]; ok {
			out = append(out, WeekdayLoad{Day: wd, Total: total})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}
