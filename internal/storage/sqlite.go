package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-sql/civil"

	"pcal/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCodec stores a calendar in a SQLite database with one row per
// event and one row per holiday date.
type SQLiteCodec struct{}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		note TEXT NOT NULL DEFAULT '',
		is_holiday INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_date ON events(date)`,
	`CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY
	)`,
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return db, nil
}

// Read loads every event and holiday. The file must exist.
func (SQLiteCodec) Read(path string) (*model.Calendar, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT date, start_time, end_time, name, note, is_holiday FROM events ORDER BY date, start_time`)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var (
			date, start, end, name, note string
			holiday                      bool
		)
		if err := rows.Scan(&date, &start, &end, &name, &note, &holiday); err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", path, err)
		}
		d, err := civil.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w: %s", path, model.ErrCalendarDate, date)
		}
		iv, err := model.ParseInterval(start, end)
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", path, err)
		}
		ev := model.MakeEvent(d, iv, name, note)
		ev.IsHoliday = holiday
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}

	holidays, err := readHolidays(db)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	return model.NewCalendar(events, holidays), nil
}

func readHolidays(db *sql.DB) ([]civil.Date, error) {
	rows, err := db.Query(`SELECT date FROM holidays ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []civil.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", model.ErrCalendarDate, s)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Write replaces the stored calendar inside one transaction.
func (SQLiteCodec) Write(path string, cal *model.Calendar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("file cannot be saved %s: %w", path, err)
	}
	db, err := openDB(path)
	if err != nil {
		return fmt.Errorf("file cannot be saved %s: %w", path, err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("file cannot be saved %s: %w", path, err)
	}
	if err := writeRows(tx, cal); err != nil {
		tx.Rollback()
		return fmt.Errorf("file cannot be saved %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("file cannot be saved %s: %w", path, err)
	}
	return nil
}

func writeRows(tx *sql.Tx, cal *model.Calendar) error {
	if _, err := tx.Exec(`DELETE FROM events`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM holidays`); err != nil {
		return err
	}

	insertEvent, err := tx.Prepare(`INSERT INTO events (date, start_time, end_time, name, note, is_holiday) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertEvent.Close()
	for _, ev := range cal.Events() {
		if _, err := insertEvent.Exec(ev.Date.String(), ev.Start().String(), ev.End().String(), ev.Name, ev.Note, ev.IsHoliday); err != nil {
			return err
		}
	}

	for _, d := range cal.Holidays() {
		if _, err := tx.Exec(`INSERT INTO holidays (date) VALUES (?)`, d.String()); err != nil {
			return err
		}
	}
	return nil
}
