package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pcal/internal/ics"
	"pcal/internal/model"
)

// ICSCodec stores a calendar as an iCalendar document.
type ICSCodec struct {
	// Expand bounds the flattening of recurring events found in the file.
	Expand ics.ExpandConfig
}

func (c ICSCodec) Read(path string) (*model.Calendar, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return model.NewCalendar(nil, nil), nil
	}
	cal, err := ics.DecodeCalendar(ics.Source{Name: filepath.Base(path), Location: path}, body, c.Expand)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	return cal, nil
}

func (c ICSCodec) Write(path string, cal *model.Calendar) error {
	body := ics.EncodeCalendar(cal, time.Now())
	if err := writeFileAtomic(path, []byte(body)); err != nil {
		return fmt.Errorf("file cannot be saved %s: %w", path, err)
	}
	return nil
}
