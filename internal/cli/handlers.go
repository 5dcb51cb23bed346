package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pcal/internal/model"
	"pcal/internal/schedule"
)

func cmdOpen(_ context.Context, s *Session, args []string) error {
	created, err := s.store.Open(args[0])
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintln(s.out, "File not found.")
		fmt.Fprintf(s.out, "New file was created and loaded: %s\n", s.store.Path())
		return nil
	}
	fmt.Fprintf(s.out, "File successfully opened: %s\n", s.store.Path())
	if s.store.Calendar().Len() == 0 {
		fmt.Fprintln(s.out, "File is empty.")
	}
	return nil
}

func cmdClose(_ context.Context, s *Session, _ []string) error {
	path, dirty := s.store.Path(), s.store.Dirty()
	if err := s.store.Close(); err != nil {
		return err
	}
	if dirty {
		fmt.Fprintln(s.out, "Unsaved changes were discarded.")
	}
	fmt.Fprintf(s.out, "File successfully closed %s\n", path)
	return nil
}

func cmdSave(_ context.Context, s *Session, _ []string) error {
	if err := s.store.Save(); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "File successfully saved %s\n", s.store.Path())
	return nil
}

func cmdSaveAs(_ context.Context, s *Session, args []string) error {
	name := strings.Join(args, " ")
	if s.store.Exists(name) {
		answer, err := s.confirm(fmt.Sprintf("File %s already exists. Overwrite? (Press 'N' to cancel)", s.store.Resolve(name)))
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if errors.Is(err, io.EOF) || strings.EqualFold(strings.TrimSpace(answer), "n") {
			fmt.Fprintln(s.out, "Saving was cancelled.")
			return nil
		}
	}
	path, err := s.store.SaveAs(name)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "File saved as %s\n", path)
	return nil
}

func cmdHelp(_ context.Context, s *Session, _ []string) error {
	printHelp(s.out)
	return nil
}

func cmdBook(_ context.Context, s *Session, args []string) error {
	note := strings.Join(args[4:], " ")
	ev, err := schedule.Book(s.store.Calendar(), args[0], args[1], args[2], args[3], note)
	if err != nil {
		return err
	}
	s.store.MarkDirty()
	fmt.Fprintln(s.out, "Event successfully booked:")
	fmt.Fprintln(s.out, formatEvent(ev))
	return nil
}

func cmdUnbook(_ context.Context, s *Session, args []string) error {
	ev, err := schedule.Unbook(s.store.Calendar(), args[0], args[1], args[2])
	if err != nil {
		return err
	}
	s.store.MarkDirty()
	fmt.Fprintln(s.out, "Event successfully unbooked:")
	fmt.Fprintln(s.out, formatEvent(ev))
	return nil
}

func cmdAgenda(_ context.Context, s *Session, args []string) error {
	d, err := model.ParseDate(args[0])
	if err != nil {
		return err
	}
	events := schedule.Agenda(s.store.Calendar(), d)
	if len(events) == 0 {
		fmt.Fprintf(s.out, "There are no events on %s\n", model.FormatDate(d))
		return nil
	}
	printEvents(s.out, events)
	return nil
}

func cmdChange(_ context.Context, s *Session, args []string) error {
	value := strings.Join(args[3:], " ")
	ev, err := schedule.Change(s.store.Calendar(), args[0], args[1], args[2], value)
	if err != nil {
		return err
	}
	s.store.MarkDirty()
	fmt.Fprintln(s.out, "Event successfully changed:")
	fmt.Fprintln(s.out, formatEvent(ev))
	return nil
}

func cmdFind(_ context.Context, s *Session, args []string) error {
	text := strings.Join(args, " ")
	events, err := schedule.Find(s.store.Calendar(), text)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(s.out, "There are no events that contain: %s\n", text)
		return nil
	}
	fmt.Fprintf(s.out, "Here are the events that contain '%s':\n", text)
	printEvents(s.out, events)
	return nil
}

func cmdHoliday(_ context.Context, s *Session, args []string) error {
	d, err := model.ParseDate(args[0])
	if err != nil {
		return err
	}
	if err := schedule.SetHoliday(s.store.Calendar(), d); err != nil {
		return err
	}
	s.store.MarkDirty()
	fmt.Fprintf(s.out, "%s is now a holiday\n", model.FormatDate(d))
	return nil
}

func cmdBusydays(_ context.Context, s *Session, args []string) error {
	from, err := model.ParseDate(args[0])
	if err != nil {
		return err
	}
	to, err := model.ParseDate(args[1])
	if err != nil {
		return err
	}
	loads, err := schedule.Busydays(s.store.Calendar(), from, to)
	if err != nil {
		return err
	}
	if len(loads) == 0 {
		fmt.Fprintf(s.out, "There are no events between %s and %s\n", args[0], args[1])
		return nil
	}
	for _, l := range loads {
		fmt.Fprintln(s.out, l)
	}
	return nil
}

func cmdFindSlot(_ context.Context, s *Session, args []string) error {
	d, err := model.ParseDate(args[0])
	if err != nil {
		return err
	}
	hours, err := model.ParseHours(args[1])
	if err != nil {
		return err
	}
	slots, err := schedule.FreeSlots(s.store.Calendar(), d, hours, s.window)
	if err != nil {
		return err
	}
	printSlots(s.out, s.calendarName(), slots)
	return nil
}

func printSlots(w io.Writer, name string, slots []model.TimeInterval) {
	if len(slots) == 0 {
		fmt.Fprintln(w, "There is no free space in calendar")
		return
	}
	fmt.Fprintf(w, "There are free spaces in %s:\n", name)
	for _, iv := range slots {
		fmt.Fprintln(w, iv)
	}
}

func cmdFindSlotWith(ctx context.Context, s *Session, args []string) error {
	d, err := model.ParseDate(args[0])
	if err != nil {
		return err
	}
	hours, err := model.ParseHours(args[1])
	if err != nil {
		return err
	}

	externals := make([]schedule.NamedCalendar, 0, len(args)-2)
	for _, ref := range args[2:] {
		cal, err := s.store.LoadExternal(ctx, ref)
		if err != nil {
			return err
		}
		externals = append(externals, schedule.NamedCalendar{Name: ref, Calendar: cal})
	}

	reports, err := schedule.FreeSlotsAcross(s.store.Calendar(), externals, d, hours, s.window)
	if err != nil {
		return err
	}
	for _, rep := range reports {
		fmt.Fprintf(s.out, "%s - ", rep.Calendar)
		if rep.Err != nil {
			fmt.Fprintln(s.out, rep.Err)
			continue
		}
		printSlots(s.out, rep.Calendar, rep.Slots)
	}
	return nil
}

func cmdMerge(ctx context.Context, s *Session, args []string) error {
	rec := schedule.NewReconciler(s.in, s.out)
	for _, ref := range args {
		ext, err := s.store.LoadExternal(ctx, ref)
		if err != nil {
			return err
		}
		report, err := rec.Merge(s.store.Calendar(), ref, ext.Events())
		if len(report.Replaced)+len(report.Added) > 0 {
			s.store.MarkDirty()
		}
		if err != nil {
			return err
		}
		if len(report.Skipped) > 0 {
			fmt.Fprintf(s.out, "Events from %s left out because they overlap each other:\n", ref)
			printEvents(s.out, report.Skipped)
		}
		fmt.Fprintf(s.out, "%s: %d added, %d replaced\n", ref, len(report.Added), len(report.Replaced))
	}
	fmt.Fprintf(s.out, "All calendars were successfully merged to %s.\n", s.store.Path())
	return nil
}
