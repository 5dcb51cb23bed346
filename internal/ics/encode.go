package ics

import (
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "pcal/internal/log"
	"pcal/internal/model"
)

const (
	productService = "pcal"
	floatingLayout = "20060102T150405"
	dateLayout     = "20060102"
)

// uidNamespace seeds the name-based UIDs of exported events so that
// exporting the same calendar twice yields the same UIDs.
var uidNamespace = uuid.MustParse("3f0b8a52-4d3e-4c8e-9a55-0f6c2b7e1d90")

// EventUID derives a stable UID from the event key.
func EventUID(ev model.Event) string {
	key := model.FormatDate(ev.Date) + "/" + ev.Interval.String() + "/" + ev.Name
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@" + productService
}

// EncodeCalendar renders cal as an iCalendar document. Times are written as
// floating local times; holiday dates become calendar-level PropHoliday
// properties.
func EncodeCalendar(cal *model.Calendar, stamp time.Time) string {
	out := ical.NewCalendarFor(productService)

	for _, d := range cal.Holidays() {
		out.CalendarProperties = append(out.CalendarProperties, ical.CalendarProperty{
			BaseProperty: ical.BaseProperty{
				IANAToken:      PropHoliday,
				ICalParameters: map[string][]string{},
				Value:          d.In(time.Local).Format(dateLayout),
			},
		})
	}

	for _, ev := range cal.Events() {
		ve := out.AddEvent(EventUID(ev))
		ve.SetDtStampTime(stamp)
		ve.SetProperty(ical.ComponentPropertyDtStart, ev.Start().On(ev.Date, time.Local).Format(floatingLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, ev.End().On(ev.Date, time.Local).Format(floatingLayout))
		ve.SetSummary(ev.Name)
		if ev.Note != "" {
			ve.SetDescription(ev.Note)
		}
		ve.SetProperty(ical.ComponentProperty(PropHoliday), strconv.FormatBool(ev.IsHoliday))
	}

	return out.Serialize()
}

// DecodeCalendar parses an iCalendar document written by EncodeCalendar or
// by another application and flattens it into a calendar.
func DecodeCalendar(src Source, body []byte, cfg ExpandConfig) (*model.Calendar, error) {
	feed, err := ParseICS(src, body)
	if err != nil {
		return nil, err
	}
	res, err := ExpandOccurrences(feed.Events, cfg)
	if err != nil {
		return nil, err
	}
	if len(res.TruncatedEvents) > 0 {
		appLog.Info("ics: calendar loaded with capped recurrences",
			"source", src.Name,
			"uids", strings.Join(res.TruncatedEvents, ","),
		)
	}
	return model.NewCalendar(res.Events, feed.Holidays), nil
}
