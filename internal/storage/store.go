package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"pcal/internal/config"
	"pcal/internal/ics"
	appLog "pcal/internal/log"
	"pcal/internal/model"
)

var (
	ErrNoFileOpen   = errors.New("no file is currently open")
	ErrAlreadyOpen  = errors.New("a file is already open")
	ErrOpenFileSelf = errors.New("cannot use the currently open file")
)

// Store is the single open-calendar session of the shell.
type Store struct {
	cfg     *config.Config
	fetcher *ics.Fetcher
	now     func() time.Time

	path  string
	cal   *model.Calendar
	dirty bool
}

// New creates a Store. A nil cfg uses config.DefaultConfig.
func New(cfg *config.Config) *Store {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Store{
		cfg:     cfg,
		fetcher: ics.NewFetcher(cfg.CacheDir),
		now:     time.Now,
	}
}

// Resolve appends the default extension to names typed without one and
// places relative names under the data directory.
func (s *Store) Resolve(name string) string {
	if filepath.Ext(name) == "" {
		name += "." + s.cfg.DefaultFormat
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(s.cfg.DataDir, name)
	}
	return filepath.Clean(name)
}

// Exists reports whether the resolved file is present on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Resolve(name))
	return err == nil
}

func (s *Store) Loaded() bool { return s.cal != nil }

func (s *Store) Path() string { return s.path }

// Calendar returns the open calendar, or nil when none is open.
func (s *Store) Calendar() *model.Calendar { return s.cal }

// MarkDirty records an unsaved change.
func (s *Store) MarkDirty() { s.dirty = true }

func (s *Store) Dirty() bool { return s.cal != nil && s.dirty }

// Open loads name, creating an empty calendar file when it does not exist
// yet. created reports that case.
func (s *Store) Open(name string) (created bool, err error) {
	if s.Loaded() {
		return false, fmt.Errorf("%w: %s", ErrAlreadyOpen, s.path)
	}
	path := s.Resolve(name)
	codec, err := CodecFor(path, s.expandConfig())
	if err != nil {
		return false, err
	}

	var cal *model.Calendar
	switch _, statErr := os.Stat(path); {
	case errors.Is(statErr, fs.ErrNotExist):
		cal = model.NewCalendar(nil, nil)
		if err := codec.Write(path, cal); err != nil {
			return false, fmt.Errorf("new file cannot be created: %w", err)
		}
		created = true
	case statErr != nil:
		return false, fmt.Errorf("cannot open %s: %w", path, statErr)
	default:
		cal, err = codec.Read(path)
		if err != nil {
			return false, err
		}
	}

	s.path, s.cal, s.dirty = path, cal, false
	appLog.Info("calendar opened", "path", path, "events", cal.Len(), "created", created)
	return created, nil
}

// Close forgets the open calendar without saving.
func (s *Store) Close() error {
	if !s.Loaded() {
		return ErrNoFileOpen
	}
	appLog.Info("calendar closed", "path", s.path, "unsaved", s.dirty)
	s.path, s.cal, s.dirty = "", nil, false
	return nil
}

// Save writes the open calendar back to its own file.
func (s *Store) Save() error {
	if !s.Loaded() {
		return ErrNoFileOpen
	}
	if err := s.write(s.path); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// SaveAs writes the open calendar to name in the format of its extension.
// The session keeps working on the original file.
func (s *Store) SaveAs(name string) (string, error) {
	if !s.Loaded() {
		return "", ErrNoFileOpen
	}
	path := s.Resolve(name)
	return path, s.write(path)
}

func (s *Store) write(path string) error {
	codec, err := CodecFor(path, s.expandConfig())
	if err != nil {
		return err
	}
	if err := codec.Write(path, s.cal); err != nil {
		return err
	}
	appLog.Info("calendar saved", "path", path, "events", s.cal.Len())
	return nil
}

// LoadExternal loads another calendar for merge or findslotwith. ref is a
// configured source alias, an http(s) ICS URL or a calendar file name.
func (s *Store) LoadExternal(ctx context.Context, ref string) (*model.Calendar, error) {
	src := ics.Source{Name: ref, Location: ref}
	if sc, ok := s.cfg.Source(ref); ok {
		src.Location = sc.Location
	}

	if ics.IsRemote(src.Location) {
		res, err := s.fetcher.FetchOne(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("cannot load %s: %w", ref, err)
		}
		if res.FromCache {
			appLog.Info("remote calendar served from cache", "source", ref)
		}
		cal, err := ics.DecodeCalendar(src, res.Body, s.expandConfig())
		if err != nil {
			return nil, fmt.Errorf("cannot load %s: %w", ref, err)
		}
		return cal, nil
	}

	path := s.Resolve(src.Location)
	if s.Loaded() && s.samePath(path) {
		return nil, fmt.Errorf("%w: %s", ErrOpenFileSelf, ref)
	}
	codec, err := CodecFor(path, s.expandConfig())
	if err != nil {
		return nil, err
	}
	return codec.Read(path)
}

func (s *Store) samePath(path string) bool {
	a, errA := filepath.Abs(path)
	b, errB := filepath.Abs(s.path)
	if errA != nil || errB != nil {
		return path == s.path
	}
	return a == b
}

// expandConfig centres the recurrence window on today.
func (s *Store) expandConfig() ics.ExpandConfig {
	now := s.now()
	days := s.cfg.RecurrenceHorizonDays
	return ics.ExpandConfig{
		RangeStart: now.AddDate(0, 0, -days),
		RangeEnd:   now.AddDate(0, 0, days),
	}
}
