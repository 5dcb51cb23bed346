package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"pcal/internal/model"
)

type handler func(ctx context.Context, s *Session, args []string) error

type command struct {
	name string
	args []string
	// atLeast accepts more arguments than listed; the extra ones are
	// joined into the last.
	atLeast   bool
	needsFile bool
	help      string
	run       handler
}

func (c command) usage() string {
	if len(c.args) == 0 {
		return c.name
	}
	return c.name + " " + strings.Join(c.args, " ")
}

// checkArgs enforces the argument count of c.
func (c command) checkArgs(args []string) error {
	n := len(c.args)
	switch {
	case c.atLeast && len(args) >= n:
		return nil
	case !c.atLeast && len(args) == n:
		return nil
	case n == 0:
		return fmt.Errorf("%w: '%s' does not expect arguments", model.ErrInput, c.name)
	default:
		return fmt.Errorf("%w: '%s' expects %s", model.ErrInput, c.name, strings.Join(c.args, " "))
	}
}

var commands []command

func init() {
	commands = []command{
		{name: "open", args: []string{"<file>"}, help: "opens <file>", run: cmdOpen},
		{name: "close", needsFile: true, help: "closes currently opened file", run: cmdClose},
		{name: "save", needsFile: true, help: "saves the currently open file", run: cmdSave},
		{name: "saveas", args: []string{"<file>"}, atLeast: true, needsFile: true, help: "saves the currently open file in <file>", run: cmdSaveAs},
		{name: "help", help: "prints this information", run: cmdHelp},
		{name: "exit", help: "exits the program"},
		{name: "book", args: []string{"<date>", "<startTime>", "<endTime>", "<name>", "<note>"}, atLeast: true, needsFile: true,
			help: "books an event", run: cmdBook},
		{name: "unbook", args: []string{"<date>", "<startTime>", "<endTime>"}, needsFile: true,
			help: "removes a booked event", run: cmdUnbook},
		{name: "agenda", args: []string{"<date>"}, needsFile: true,
			help: "lists the events of <date> in chronological order", run: cmdAgenda},
		{name: "change", args: []string{"<date>", "<startTime>", "<option>", "<newValue>"}, atLeast: true, needsFile: true,
			help: "changes date, startTime, endTime, name or note of an event", run: cmdChange},
		{name: "find", args: []string{"<string>"}, atLeast: true, needsFile: true,
			help: "lists the events whose name or note contains <string>", run: cmdFind},
		{name: "holiday", args: []string{"<date>"}, needsFile: true,
			help: "marks <date> as a holiday", run: cmdHoliday},
		{name: "busydays", args: []string{"<from>", "<to>"}, needsFile: true,
			help: "lists booked hours per weekday between <from> and <to>", run: cmdBusydays},
		{name: "findslot", args: []string{"<fromDate>", "<hours>"}, needsFile: true,
			help: "finds free slots of <hours> on <fromDate>", run: cmdFindSlot},
		{name: "findslotwith", args: []string{"<fromDate>", "<hours>", "<calendar>"}, atLeast: true, needsFile: true,
			help: "finds free slots shared with each <calendar>", run: cmdFindSlotWith},
		{name: "merge", args: []string{"<calendar>"}, atLeast: true, needsFile: true,
			help: "merges each <calendar> into the open file", run: cmdMerge},
	}
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "The following commands are supported:")
	for _, c := range commands {
		fmt.Fprintf(w, "%-46s%s\n", c.usage(), c.help)
	}
}

const rowFormat = "%-25s%-15s%-15s%-30s%-40s"

// formatEvent renders one event as a table row.
func formatEvent(ev model.Event) string {
	kind := "work day"
	if ev.IsHoliday {
		kind = "holiday"
	}
	return strings.TrimRight(fmt.Sprintf(rowFormat,
		model.FormatDate(ev.Date)+" "+kind, ev.Start().String(), ev.End().String(), ev.Name, ev.Note), " ")
}

func printEvents(w io.Writer, events []model.Event) {
	fmt.Fprintln(w, strings.TrimRight(fmt.Sprintf(rowFormat, "Date", "Start", "End", "Name", "Note"), " "))
	for _, ev := range events {
		fmt.Fprintln(w, formatEvent(ev))
	}
}
