package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcal/internal/config"
	"pcal/internal/model"
	"pcal/internal/storage"
)

type scriptedReader struct {
	lines []string
}

func (r *scriptedReader) ReadLine() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type harness struct {
	session *Session
	store   *storage.Store
	dir     string
	out     *bytes.Buffer
}

func newHarness(t *testing.T, lines ...string) harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.CacheDir = filepath.Join(dir, "cache")

	store := storage.New(cfg)
	out := &bytes.Buffer{}
	s, err := NewSession(cfg, store, &scriptedReader{lines: lines}, out)
	require.NoError(t, err)
	return harness{session: s, store: store, dir: dir, out: out}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"open work.xml", []string{"open", "work.xml"}},
		{"  book  15-05-2023\t09:00 ", []string{"book", "15-05-2023", "09:00"}},
		{`book 15-05-2023 09:00 10:00 "team sync" "room 4"`, []string{"book", "15-05-2023", "09:00", "10:00", "team sync", "room 4"}},
		{`find ""`, []string{"find", ""}},
		{`find "open ended`, []string{"find", "open ended"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.line))
		})
	}
}

func TestCheckArgs(t *testing.T) {
	book, ok := lookupCommand("book")
	require.True(t, ok)
	assert.NoError(t, book.checkArgs([]string{"a", "b", "c", "d", "e"}))
	assert.NoError(t, book.checkArgs([]string{"a", "b", "c", "d", "e", "f"}))
	assert.ErrorIs(t, book.checkArgs([]string{"a"}), model.ErrInput)

	unbook, _ := lookupCommand("unbook")
	assert.Error(t, unbook.checkArgs([]string{"a", "b", "c", "d"}))

	closeCmd, _ := lookupCommand("close")
	err := closeCmd.checkArgs([]string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'close' does not expect arguments")
}

func TestSessionBookingFlow(t *testing.T) {
	h := newHarness(t,
		"help",
		"book 15-05-2023 09:00 10:00 x y",
		"open work",
		`book 15-05-2023 09:00 10:00 "team sync" weekly planning`,
		"book 15-05-2023 09:30 11:00 clash note",
		"book 15-05-2023 09:00",
		"agenda 15-05-2023",
		"find SYNC",
		"findslot 15-05-2023 2",
		"holiday 16-05-2023",
		"frobnicate now",
		"exit",
		"save",
		"exit",
		"help",
	)

	require.NoError(t, h.session.Run(context.Background()))
	out := h.out.String()

	assert.Contains(t, out, "~ CALENDAR APPLICATION ~")
	assert.Contains(t, out, "findslotwith <fromDate> <hours> <calendar>")
	assert.Contains(t, out, "No file is currently open")
	assert.Contains(t, out, "New file was created and loaded: "+filepath.Join(h.dir, "work.xml"))
	assert.Contains(t, out, "Event successfully booked:")
	assert.Contains(t, out, "15-05-2023 work day      09:00          10:00          team sync                     weekly planning")
	assert.Contains(t, out, "incompatible with event: 15-05-2023 09:00-10:00 team sync")
	assert.Contains(t, out, "'book' expects <date> <startTime> <endTime> <name> <note>")
	assert.Contains(t, out, "Here are the events that contain 'SYNC':")
	assert.Contains(t, out, "There are free spaces in")
	assert.Contains(t, out, "10:00-17:00")
	assert.NotContains(t, out, "08:00-09:00")
	assert.Contains(t, out, "16-05-2023 is now a holiday")
	assert.Contains(t, out, "frobnicate is not recognized as internal command.")
	assert.Contains(t, out, "There are unsaved changes in")
	assert.Contains(t, out, "File successfully saved")
	assert.Contains(t, out, "Exiting the program...")

	cal, err := storage.XMLCodec{}.Read(filepath.Join(h.dir, "work.xml"))
	require.NoError(t, err)
	require.Equal(t, 1, cal.Len())
	assert.Equal(t, "team sync", cal.Events()[0].Name)
	holiday, _ := model.ParseDate("16-05-2023")
	assert.True(t, cal.HasHoliday(holiday))
}

func TestSessionSaveAsPrompt(t *testing.T) {
	h := newHarness(t,
		"open home",
		"book 15-05-2023 09:00 10:00 standup notes",
		"saveas backup",
		"saveas backup",
		"N",
		"saveas backup.db",
		"saveas backup",
		"y",
	)
	require.NoError(t, h.session.Run(context.Background()))
	out := h.out.String()

	backup := filepath.Join(h.dir, "backup.xml")
	assert.Contains(t, out, "File saved as "+backup)
	assert.Contains(t, out, "File "+backup+" already exists. Overwrite? (Press 'N' to cancel)")
	assert.Contains(t, out, "Saving was cancelled.")
	assert.Contains(t, out, "File saved as "+filepath.Join(h.dir, "backup.db"))
	assert.FileExists(t, backup)
	assert.Equal(t, filepath.Join(h.dir, "home.xml"), h.store.Path())
}

func writeTeamCalendar(t *testing.T, dir string) {
	t.Helper()
	review, err := model.NewEvent("15-05-2023", "09:30", "10:30", "review", "")
	require.NoError(t, err)
	retro, err := model.NewEvent("16-05-2023", "14:00", "15:00", "retro", "")
	require.NoError(t, err)
	cal := model.NewCalendar([]model.Event{review, retro}, nil)
	require.NoError(t, storage.XMLCodec{}.Write(filepath.Join(dir, "team.xml"), cal))
}

func TestSessionFindSlotWith(t *testing.T) {
	h := newHarness(t,
		"open mine",
		"book 15-05-2023 09:00 10:00 standup notes",
		"findslotwith 15-05-2023 1 team",
		"findslotwith 15-05-2023 1 nobody",
	)
	writeTeamCalendar(t, h.dir)

	require.NoError(t, h.session.Run(context.Background()))
	out := h.out.String()

	assert.Contains(t, out, "team - There are free spaces in team:\n08:00-09:00\n10:30-17:00\n")
	assert.Contains(t, out, "nobody")
}

func TestSessionMerge(t *testing.T) {
	h := newHarness(t,
		"open mine",
		"book 15-05-2023 09:00 10:00 standup notes",
		"merge team",
		"y",
		"15-05-2023 09:30",
		"15-05-2023 09:30 10:30",
		"15-05-2023 10:00 11:00",
	)
	writeTeamCalendar(t, h.dir)

	require.NoError(t, h.session.Run(context.Background()))
	out := h.out.String()

	assert.Contains(t, out, "Do you want to proceed ?")
	assert.Contains(t, out, "Expected exactly three values")
	assert.Contains(t, out, "Please type again")
	assert.Contains(t, out, "team: 1 added, 1 replaced")
	assert.Contains(t, out, "All calendars were successfully merged to")

	cal := h.store.Calendar()
	require.NotNil(t, cal)
	assert.Equal(t, 3, cal.Len())
	d, _ := model.ParseDate("15-05-2023")
	day := cal.EventsOn(d)
	require.Len(t, day, 2)
	assert.Equal(t, "review", day[1].Name)
	assert.Equal(t, model.NewClock(10, 0), day[1].Start())
	assert.True(t, h.store.Dirty())
}

func TestSessionMergeDeclined(t *testing.T) {
	h := newHarness(t,
		"open mine",
		"book 15-05-2023 09:00 10:00 standup notes",
		"merge team",
		"n",
	)
	writeTeamCalendar(t, h.dir)

	require.NoError(t, h.session.Run(context.Background()))
	assert.Contains(t, h.out.String(), "merging with team was stopped")
	assert.Equal(t, 1, h.store.Calendar().Len())
}

func TestOpenFileTakesPathVerbatim(t *testing.T) {
	h := newHarness(t, "book 15-05-2023 09:00 10:00 standup notes", "save")
	name := `team "a"\b.xml`
	h.session.OpenFile(context.Background(), name)
	require.NoError(t, h.session.Run(context.Background()))

	want := filepath.Join(h.dir, name)
	assert.Contains(t, h.out.String(), "New file was created and loaded: "+want)
	assert.Equal(t, want, h.store.Path())
	assert.FileExists(t, want)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	h := newHarness(t, "help")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.session.Run(ctx), context.Canceled)
}
