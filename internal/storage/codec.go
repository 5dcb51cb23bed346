package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pcal/internal/ics"
	"pcal/internal/model"
)

// Codec reads and writes a whole calendar file.
type Codec interface {
	Read(path string) (*model.Calendar, error)
	Write(path string, cal *model.Calendar) error
}

// Extensions understood by CodecFor.
const (
	ExtXML    = ".xml"
	ExtICS    = ".ics"
	ExtSQLite = ".db"
)

// CodecFor picks the codec matching the extension of path. expand bounds
// the recurrence flattening of .ics files.
func CodecFor(path string, expand ics.ExpandConfig) (Codec, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtXML:
		return XMLCodec{}, nil
	case ExtICS:
		return ICSCodec{Expand: expand}, nil
	case ExtSQLite, ".sqlite":
		return SQLiteCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported calendar format %q", model.ErrInput, ext)
	}
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".pcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
