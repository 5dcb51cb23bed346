package storage

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"

	"github.com/golang-sql/civil"

	"pcal/internal/model"
)

// XMLCodec stores a calendar as
//
//	<calendar>
//	  <event isHoliday="false">
//	    <name>..</name><date>dd-MM-yyyy</date><note>..</note>
//	    <startTime>HH:mm</startTime><endTime>HH:mm</endTime>
//	  </event>
//	  <holiday>dd-MM-yyyy</holiday>
//	</calendar>
type XMLCodec struct{}

type xmlCalendar struct {
	XMLName  xml.Name   `xml:"calendar"`
	Events   []xmlEvent `xml:"event"`
	Holidays []string   `xml:"holiday"`
}

type xmlEvent struct {
	IsHoliday bool   `xml:"isHoliday,attr"`
	Name      string `xml:"name"`
	Date      string `xml:"date"`
	Note      string `xml:"note"`
	StartTime string `xml:"startTime"`
	EndTime   string `xml:"endTime"`
}

// Read parses path. An empty file is an empty calendar.
func (XMLCodec) Read(path string) (*model.Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return model.NewCalendar(nil, nil), nil
	}

	var doc xmlCalendar
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}

	events := make([]model.Event, 0, len(doc.Events))
	for i, xe := range doc.Events {
		ev, err := model.NewEvent(xe.Date, xe.StartTime, xe.EndTime, xe.Name, xe.Note)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: event %d: %w", path, i+1, err)
		}
		ev.IsHoliday = xe.IsHoliday
		events = append(events, ev)
	}

	holidays := make([]civil.Date, 0, len(doc.Holidays))
	for _, s := range doc.Holidays {
		d, err := model.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: holiday: %w", path, err)
		}
		holidays = append(holidays, d)
	}

	return model.NewCalendar(events, holidays), nil
}

func (XMLCodec) Write(path string, cal *model.Calendar) error {
	doc := xmlCalendar{}
	for _, ev := range cal.Events() {
		doc.Events = append(doc.Events, xmlEvent{
			IsHoliday: ev.IsHoliday,
			Name:      ev.Name,
			Date:      model.FormatDate(ev.Date),
			Note:      ev.Note,
			StartTime: ev.Start().String(),
			EndTime:   ev.End().String(),
		})
	}
	for _, d := range cal.Holidays() {
		doc.Holidays = append(doc.Holidays, model.FormatDate(d))
	}

	body, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("file cannot be saved %s: %w", path, err)
	}
	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("file cannot be saved %s: %w", path, err)
	}
	return nil
}
