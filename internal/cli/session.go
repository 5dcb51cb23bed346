package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pcal/internal/config"
	appLog "pcal/internal/log"
	"pcal/internal/model"
	"pcal/internal/schedule"
	"pcal/internal/storage"
)

const banner = "~ CALENDAR APPLICATION ~"

// Session is the interactive shell around one Store.
type Session struct {
	store  *storage.Store
	in     schedule.LineReader
	out    io.Writer
	window model.TimeInterval

	exitWarned bool
}

// NewSession builds a shell reading commands from in and writing to out.
// The slot search window comes from cfg.
func NewSession(cfg *config.Config, store *storage.Store, in schedule.LineReader, out io.Writer) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	window, err := model.ParseInterval(cfg.WorkStart, cfg.WorkEnd)
	if err != nil {
		return nil, fmt.Errorf("work window: %w", err)
	}
	return &Session{store: store, in: in, out: out, window: window}, nil
}

// Run reads and executes commands until exit, end of input or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, banner)
	fmt.Fprintln(s.out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "> ")
		line, err := s.in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		if s.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the shell should exit.
// Command errors are printed, never returned.
func (s *Session) Execute(ctx context.Context, line string) bool {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return false
	}
	name, args := strings.ToLower(tokens[0]), tokens[1:]

	cmd, ok := lookupCommand(name)
	if !ok {
		fmt.Fprintf(s.out, "%s is not recognized as internal command.\n", tokens[0])
		return false
	}
	if err := cmd.checkArgs(args); err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}
	if cmd.needsFile && !s.store.Loaded() {
		fmt.Fprintln(s.out, "No file is currently open")
		return false
	}

	if cmd.name == "exit" {
		return s.exit()
	}
	s.exitWarned = false

	appLog.Debug("command", "name", cmd.name, "args", len(args))
	if err := cmd.run(ctx, s, args); err != nil {
		appLog.Debug("command failed", "name", cmd.name, "error", err.Error())
		fmt.Fprintln(s.out, err)
	}
	return false
}

// OpenFile opens name as the "open" command would, without tokenizing it,
// so paths with quotes or backslashes are taken verbatim.
func (s *Session) OpenFile(ctx context.Context, name string) {
	if err := cmdOpen(ctx, s, []string{name}); err != nil {
		fmt.Fprintln(s.out, err)
	}
}

// exit refuses once when the open calendar has unsaved changes.
func (s *Session) exit() bool {
	if s.store.Dirty() && !s.exitWarned {
		s.exitWarned = true
		fmt.Fprintf(s.out, "There are unsaved changes in %s. Type 'save' to keep them or 'exit' again to quit.\n", s.store.Path())
		return false
	}
	fmt.Fprintln(s.out, "Exiting the program...")
	return true
}

// confirm prints question and reads one answer line.
func (s *Session) confirm(question string) (string, error) {
	fmt.Fprintln(s.out, question)
	fmt.Fprint(s.out, "> ")
	return s.in.ReadLine()
}

func (s *Session) calendarName() string {
	return s.store.Path()
}
