package schedule

import (
	"errors"
	"fmt"
	"io"
	"strings"

	appLog "pcal/internal/log"
	"pcal/internal/model"
)

// AbortWord cancels an interactive merge at the replacement prompt.
const AbortWord = "abort"

// LineReader supplies one line of operator input per call.
type LineReader interface {
	ReadLine() (string, error)
}

// Collision is a pair of events, one per calendar, that cannot coexist.
type Collision struct {
	Loaded   model.Event
	External model.Event
}

// MergeReport summarizes one merged source.
type MergeReport struct {
	Source     string
	Collisions []Collision
	Replaced   []model.Event
	Added      []model.Event
	// Skipped holds external events left out because they overlap another
	// event of the same external calendar.
	Skipped []model.Event
}

// Reconciler merges external calendars into the loaded one, asking the
// operator for new times whenever events collide.
type Reconciler struct {
	in  LineReader
	out io.Writer
}

func NewReconciler(in LineReader, out io.Writer) *Reconciler {
	return &Reconciler{in: in, out: out}
}

// FindCollisions pairs every event of cal with every external event it
// overlaps, ordered by the loaded event.
func FindCollisions(cal *model.Calendar, external []model.Event) []Collision {
	var out []Collision
	for _, loaded := range cal.Events() {
		for _, ext := range external {
			if Overlaps(loaded, ext) {
				out = append(out, Collision{Loaded: loaded, External: ext})
			}
		}
	}
	return out
}

// Merge adds the events of source to cal.
//
// Without collisions every external event is added. Otherwise the operator
// confirms first; declining returns ErrMergeAborted and changes nothing.
// After confirming, each colliding external event is replaced by new
// times read from the operator, validated against the current state of
// cal, and added at once. Typing AbortWord stops the loop with
// ErrMergeAborted, keeping the replacements already accepted. The
// remaining external events are added at the end.
func (r *Reconciler) Merge(cal *model.Calendar, source string, external []model.Event) (MergeReport, error) {
	report := MergeReport{Source: source}

	pending := make([]model.Event, len(external))
	copy(pending, external)
	model.SortByDate(pending)

	report.Collisions = FindCollisions(cal, pending)
	if len(report.Collisions) > 0 {
		appLog.Info("merge collisions detected", "source", source, "count", len(report.Collisions))
		ok, err := r.confirm(source, report.Collisions)
		if err != nil {
			return report, err
		}
		if !ok {
			return report, fmt.Errorf("%w: merging with %s was stopped", model.ErrMergeAborted, source)
		}
	}

	for {
		i, conflicts := firstColliding(cal, pending)
		if i < 0 {
			break
		}
		replacement, err := r.resolve(cal, pending[i], conflicts)
		if err != nil {
			appLog.Info("merge stopped by operator", "source", source, "replaced", len(report.Replaced))
			return report, err
		}
		if err := cal.Insert(replacement); err != nil {
			return report, err
		}
		report.Replaced = append(report.Replaced, replacement)
		pending = append(pending[:i], pending[i+1:]...)
	}

	for _, ev := range pending {
		if len(FindConflicts(cal, ev)) > 0 {
			report.Skipped = append(report.Skipped, ev)
			continue
		}
		if err := cal.Insert(ev); err != nil {
			report.Skipped = append(report.Skipped, ev)
			continue
		}
		report.Added = append(report.Added, ev)
	}

	appLog.Info("merge completed", "source", source,
		"added", len(report.Added), "replaced", len(report.Replaced), "skipped", len(report.Skipped))
	return report, nil
}

// firstColliding returns the index of the first pending event that
// overlaps cal, with its conflicts, or -1.
func firstColliding(cal *model.Calendar, pending []model.Event) (int, []model.Event) {
	for i, ev := range pending {
		if conflicts := FindConflicts(cal, ev); len(conflicts) > 0 {
			return i, conflicts
		}
	}
	return -1, nil
}

func (r *Reconciler) confirm(source string, collisions []Collision) (bool, error) {
	fmt.Fprintf(r.out, "Collisions found while merging %s:\n", source)
	for _, c := range collisions {
		fmt.Fprintf(r.out, "  %s  <->  %s\n", c.Loaded, c.External)
	}
	fmt.Fprintln(r.out, "Do you want to proceed ? (Press 'Y' to accept and anything else to abort)")

	line, err := r.readLine()
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

// resolve prompts until the operator types times for orig that fit into
// cal, or aborts. Name and note are carried over from orig.
func (r *Reconciler) resolve(cal *model.Calendar, orig model.Event, conflicts []model.Event) (model.Event, error) {
	fmt.Fprintf(r.out, "%s collides with:\n", orig)
	for _, c := range conflicts {
		fmt.Fprintf(r.out, "  %s\n", c)
	}

	for {
		fmt.Fprintf(r.out, "New values: <date> <startTime> <endTime> (or '%s')\n", AbortWord)
		line, err := r.readLine()
		if err != nil {
			return model.Event{}, err
		}

		fields := strings.Fields(line)
		if len(fields) == 1 && strings.EqualFold(fields[0], AbortWord) {
			return model.Event{}, fmt.Errorf("%w: resolution of %s was cancelled", model.ErrMergeAborted, orig)
		}
		if len(fields) != 3 {
			fmt.Fprintln(r.out, "Expected exactly three values: <date> <startTime> <endTime>")
			continue
		}

		candidate, err := model.NewEvent(fields[0], fields[1], fields[2], orig.Name, orig.Note)
		if err != nil {
			fmt.Fprintln(r.out, err)
			continue
		}
		if cal.HasHoliday(candidate.Date) {
			candidate.IsHoliday = true
		}

		if clash := FindConflicts(cal, candidate); len(clash) > 0 {
			fmt.Fprintln(r.out, "The new values are incompatible with:")
			for _, c := range clash {
				fmt.Fprintf(r.out, "  %s\n", c)
			}
			fmt.Fprintln(r.out, "Please type again")
			continue
		}
		return candidate, nil
	}
}

func (r *Reconciler) readLine() (string, error) {
	line, err := r.in.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: no more input", model.ErrMergeAborted)
		}
		return "", err
	}
	return line, nil
}
