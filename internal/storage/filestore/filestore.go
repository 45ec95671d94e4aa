// Package filestore keeps the registry as a JSON array in a single file.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"phonereuse/entity"
	"phonereuse/lib/sl"
)

const DefaultPath = "credentials/phone_numbers.json"

var ErrCorrupt = errors.New("stored phone numbers are corrupt")

type Store struct {
	path string
	log  *slog.Logger
}

func New(path string, log *slog.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path: path,
		log:  log.With(sl.Module("filestore"), slog.String("path", path)),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the stored records. A missing file creates its directory and
// reads as empty. An unparseable file is reported as ErrCorrupt and left in
// place; the registry decides whether to start over.
func (s *Store) Load(_ context.Context) ([]entity.PhoneRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err = os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
		s.log.Debug("no phone numbers stored yet")
		return []entity.PhoneRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var records []entity.PhoneRecord
	if err = json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if records == nil {
		records = []entity.PhoneRecord{}
	}
	return records, nil
}

// Save replaces the file through a temp file and rename, so readers never see a partial write.
func (s *Store) Save(_ context.Context, records []entity.PhoneRecord) error {
	if records == nil {
		records = []entity.PhoneRecord{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode phone numbers: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
