// Package filestore persists work-effort records as Markdown files with a
// YAML header block, laid out in status-named directories:
//
//	<root>/<status>/<id>_<slug>/<id>_<slug>.md   (folder form, always written)
//	<root>/<status>/<id>_<slug>.md               (flat form, read for compatibility)
package filestore

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/natefinch/atomic"
	"github.com/rpggio/workefforts/internal/domain/record"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// FileStore implements record.Store on the local filesystem.
type FileStore struct{}

// New creates a filesystem-backed record store.
func New() *FileStore {
	return &FileStore{}
}

// Load reads and parses the record file at path.
func (fs *FileStore) Load(path string) (*record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, record.NewError(record.ErrNotFound, "load", "", path, err)
		}
		return nil, record.NewError(record.ErrRead, "load", "", path, err)
	}
	rec, err := Parse(data)
	if err != nil {
		return nil, record.NewError(record.ErrParse, "load", "", path, err)
	}
	return rec, nil
}

// Save writes rec to path atomically. When any field other than history
// differs from the stored file, last_updated is set to now on rec as well.
func (fs *FileStore) Save(rec *record.Record, path string) error {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return record.NewError(record.ErrWrite, "save", rec.ID, path, err)
	}

	existing, err := fs.Load(path)
	switch {
	case err == nil:
		if !sameContent(existing, rec) {
			rec.LastUpdated = timeNow().UTC()
		}
	case errors.Is(err, record.ErrNotFound):
		if rec.LastUpdated.IsZero() {
			rec.LastUpdated = timeNow().UTC()
		}
	default:
		rec.LastUpdated = timeNow().UTC()
	}

	data, err := Marshal(rec)
	if err != nil {
		return record.NewError(record.ErrWrite, "save", rec.ID, path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return record.NewError(record.ErrWrite, "save", rec.ID, path, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return record.NewError(record.ErrWrite, "save", rec.ID, path, err)
	}
	return nil
}

// Create writes a new folder-form record, refusing to overwrite an existing
// file or record folder.
func (fs *FileStore) Create(rec *record.Record, path string) error {
	for _, p := range []string{path, filepath.Dir(path)} {
		if _, err := os.Lstat(p); err == nil {
			return record.NewError(record.ErrWrite, "create", rec.ID, p, os.ErrExist)
		}
	}
	return fs.Save(rec, path)
}

// Locate finds a record file by id under root.
func (fs *FileStore) Locate(root, id string) (record.Location, error) {
	return Locate(root, id)
}

// FolderPath returns the folder-form path for a record.
func (fs *FileStore) FolderPath(root string, status record.Status, id, title string) string {
	return FolderPath(root, status, id, title)
}

// sameContent compares every field except history and last_updated.
func sameContent(a, b *record.Record) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Status == b.Status &&
		a.Priority == b.Priority &&
		a.Assignee == b.Assignee &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		sameDate(a.DueDate, b.DueDate) &&
		slices.Equal(a.Tags, b.Tags) &&
		slices.Equal(a.RelatedIDs, b.RelatedIDs) &&
		a.Body == b.Body
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
