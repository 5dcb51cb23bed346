package ics

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/golang-sql/civil"
	"github.com/google/uuid"

	appLog "pcal/internal/log"
)

// PropHoliday marks holiday dates (calendar level) and the holiday flag of
// single events (event level).
const PropHoliday = "X-PCAL-HOLIDAY"

// Source identifies where an ICS payload came from.
type Source struct {
	// Name is the label the operator used, e.g. an alias or file name.
	Name string
	// Location is the file path or URL.
	Location string
}

// ParsedEvent is the normalized representation of a VEVENT before
// recurrence flattening.
type ParsedEvent struct {
	Source Source

	UID         string
	Summary     string
	Description string

	Start  time.Time
	End    time.Time
	AllDay bool
	// Holiday is set only when the VEVENT carries PropHoliday.
	Holiday *bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present) in event's own timezone
	IsOverride bool       // true if this VEVENT is an override for a recurring instance
}

// Feed is one parsed ICS payload.
type Feed struct {
	Source   Source
	Events   []ParsedEvent
	Holidays []civil.Date
}

// ParseICS parses a single ICS payload.
//
//   - Timezones come from the library's TZID handling; floating times are
//     read in time.Local and used by wall clock.
//   - All-day events are detected from the DTSTART value format.
//   - RRULE/EXDATE/RECURRENCE-ID are recorded but not expanded; see
//     ExpandOccurrences.
func ParseICS(src Source, body []byte) (Feed, error) {
	feed := Feed{Source: src}
	if len(bytes.TrimSpace(body)) == 0 {
		return feed, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "source", src.Name, "location", redactURL(src.Location))
		return feed, err
	}

	for _, p := range cal.CalendarProperties {
		if p.IANAToken != PropHoliday {
			continue
		}
		t, err := parseICSTime(p.Value)
		if err != nil {
			appLog.Error("ics holiday property skipped", err, "source", src.Name, "value", p.Value)
			continue
		}
		feed.Holidays = append(feed.Holidays, civil.DateOf(t))
	}

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "source", src.Name, "location", redactURL(src.Location))
			continue
		}
		feed.Events = append(feed.Events, ev)
	}

	appLog.Info("ics parse completed", "source", src.Name, "event_count", len(feed.Events), "holiday_count", len(feed.Holidays))
	return feed, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent
	out.Source = src

	if uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId); uidProp != nil && uidProp.Value != "" {
		out.UID = uidProp.Value
	} else {
		// Overrides cannot be matched without a UID, but plain events still
		// count as busy time.
		out.UID = uuid.NewString()
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	out.Start = start

	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if vs, ok := dtStartProp.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}

	end, err := ve.GetEndAt()
	switch {
	case err == nil:
		out.End = end
	case ve.GetProperty(ical.ComponentPropertyDuration) != nil:
		d, derr := parseICSDuration(ve.GetProperty(ical.ComponentPropertyDuration).Value)
		if derr != nil {
			return out, derr
		}
		out.End = start.Add(d)
	case out.AllDay:
		out.End = start.AddDate(0, 0, 1)
	default:
		out.End = start
	}

	if p := ve.GetProperty(ical.ComponentProperty(PropHoliday)); p != nil {
		if b, err := strconv.ParseBool(strings.TrimSpace(p.Value)); err == nil {
			out.Holiday = &b
		}
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if ridProp := ve.GetProperty(ical.ComponentPropertyRecurrenceId); ridProp != nil {
		if t, err := parseICSTime(ridProp.Value); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parseICSTime parses a basic DATE / DATE-TIME / UTC value without
// parameter context.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}

var durationRe = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseICSDuration parses an RFC 5545 DURATION value such as "PT1H30M",
// "P1D" or "P2W". Days count as 24 hours.
func parseICSDuration(v string) (time.Duration, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	m := durationRe.FindStringSubmatch(v)
	if m == nil || v == "P" || v == "+P" || v == "-P" || strings.HasSuffix(v, "T") {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d += time.Duration(n) * unit
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}
