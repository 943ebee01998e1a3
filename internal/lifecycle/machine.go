// Package lifecycle moves records between status directories.
//
// A record's directory is the source of truth for its status. A transition
// relocates the record folder and rewrites the header in one locked step, and
// leaves the record intact at its original location when any step fails.
package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filelock"
	"github.com/rpggio/workefforts/internal/filestore"
)

// DefaultLockTimeout bounds how long a transition waits for its record lock.
const DefaultLockTimeout = 5 * time.Second

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Options configures a Machine.
type Options struct {
	LockTimeout time.Duration
	Logger      *slog.Logger
	// NewEventID overrides history event id generation.
	NewEventID func() string
}

// Machine implements record.Transitioner on the filesystem layout.
type Machine struct {
	store       record.Store
	lockTimeout time.Duration
	newEventID  func() string
	logger      *slog.Logger
}

// New creates a state machine writing through store.
func New(store record.Store, opts Options) *Machine {
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	newID := opts.NewEventID
	if newID == nil {
		newID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Machine{store: store, lockTimeout: timeout, newEventID: newID, logger: logger}
}

// LockPath is the per-record lock file serializing transitions of id.
func LockPath(root, id string) string {
	return filestore.StatePath(root, "locks", id+".lock")
}

// Transition moves record id under root to status to.
//
// When the record already lives in the target directory the call succeeds
// with Changed unset, unless the header disagrees with the directory. That
// only happens when an earlier transition was interrupted after its move, so
// the header is repaired and the event recorded.
func (m *Machine) Transition(ctx context.Context, root, id string, to record.Status) (*record.TransitionResult, error) {
	if !to.Valid() {
		return nil, record.NewError(record.ErrInvalidInput, "transition", id, "", record.ErrInvalidStatus)
	}

	lock, err := filelock.Acquire(ctx, LockPath(root, id), m.lockTimeout)
	if err != nil {
		return nil, record.NewError(record.ErrLockContention, "transition", id, LockPath(root, id), err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			m.logger.Warn("failed to release record lock", "id", id, "error", err)
		}
	}()

	loc, err := m.store.Locate(root, id)
	if err != nil {
		return nil, err
	}
	rec, err := m.store.Load(loc.Path)
	if err != nil {
		return nil, err
	}
	if rec.ID == "" {
		rec.ID = id
	}

	if loc.Status == to {
		return m.settle(rec, loc, to)
	}
	return m.move(rec, loc, root, to)
}

// settle handles a transition whose target is the current directory.
func (m *Machine) settle(rec *record.Record, loc record.Location, to record.Status) (*record.TransitionResult, error) {
	if rec.Status == to {
		return &record.TransitionResult{Record: rec, From: to, To: to, Path: loc.Path}, nil
	}

	from := rec.Status
	m.logger.Warn("repairing header status", "id", rec.ID, "header", from, "directory", to)
	m.applyTransition(rec, from, to)
	if err := m.store.Save(rec, loc.Path); err != nil {
		return nil, err
	}
	return &record.TransitionResult{Record: rec, From: from, To: to, Path: loc.Path, Changed: true}, nil
}

func (m *Machine) move(rec *record.Record, loc record.Location, root string, to record.Status) (*record.TransitionResult, error) {
	from := loc.Status
	stem := strings.TrimSuffix(filepath.Base(loc.Path), filestore.Ext)
	destDir := filepath.Join(filestore.StatusDir(root, to), stem)
	destPath := filepath.Join(destDir, stem+filestore.Ext)

	if err := m.claimDest(rec.ID, destDir); err != nil {
		return nil, err
	}

	undo, err := relocate(loc, destDir, destPath)
	if err != nil {
		return nil, record.NewError(record.ErrWrite, "transition", rec.ID, destPath, err)
	}

	m.applyTransition(rec, from, to)
	if err := m.store.Save(rec, destPath); err != nil {
		if rbErr := undo(); rbErr != nil {
			m.logger.Error("failed to roll back record move", "id", rec.ID, "path", destPath, "error", rbErr)
			return nil, record.NewError(record.ErrWrite, "transition", rec.ID, destPath, errors.Join(err, rbErr))
		}
		return nil, err
	}

	m.logger.Debug("record moved", "id", rec.ID, "from", loc.Path, "to", destPath)
	return &record.TransitionResult{Record: rec, From: from, To: to, Path: destPath, Changed: true}, nil
}

// claimDest fails when destDir is occupied. An empty directory there is what
// a flat migration interrupted between mkdir and rename leaves behind, so it
// is removed and the destination treated as free.
func (m *Machine) claimDest(id, destDir string) error {
	info, err := os.Lstat(destDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return record.NewError(record.ErrWrite, "transition", id, destDir, err)
	}
	if !info.IsDir() {
		return record.NewError(record.ErrWrite, "transition", id, destDir, os.ErrExist)
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return record.NewError(record.ErrWrite, "transition", id, destDir, err)
	}
	if len(entries) > 0 {
		return record.NewError(record.ErrWrite, "transition", id, destDir, os.ErrExist)
	}
	if err := os.Remove(destDir); err != nil {
		return record.NewError(record.ErrWrite, "transition", id, destDir, err)
	}
	m.logger.Warn("removed empty destination folder", "id", id, "path", destDir)
	return nil
}

// relocate moves the record at loc into destDir and returns the inverse move.
// Flat records are migrated into folder form on the way.
func relocate(loc record.Location, destDir, destPath string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return nil, err
	}

	if !loc.Flat {
		if err := os.Rename(loc.Dir, destDir); err != nil {
			return nil, err
		}
		return func() error { return os.Rename(destDir, loc.Dir) }, nil
	}

	if err := os.Mkdir(destDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.Rename(loc.Path, destPath); err != nil {
		_ = os.Remove(destDir)
		return nil, err
	}
	return func() error {
		if err := os.Rename(destPath, loc.Path); err != nil {
			return err
		}
		return os.Remove(destDir)
	}, nil
}

func (m *Machine) applyTransition(rec *record.Record, from, to record.Status) {
	rec.Status = to
	rec.History = append(rec.History, record.TransitionEvent{
		ID:   m.newEventID(),
		At:   timeNow().UTC(),
		From: from,
		To:   to,
	})
}

