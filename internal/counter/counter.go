// Package counter allocates durable, strictly increasing record identifiers.
//
// The current value lives in a small JSON state file guarded by a checksum.
// Allocation holds an exclusive lock on a sidecar lock file for the whole
// read-increment-write cycle, so independent processes sharing the file never
// receive the same value. A crash may waste one value; it never repeats one.
package counter

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filelock"
	"github.com/rpggio/workefforts/internal/filestore"
)

const (
	// StateFile is the counter state file name inside the root's state directory.
	StateFile = "counter.json"

	// DefaultLockTimeout bounds how long Next waits for the lock.
	DefaultLockTimeout = 5 * time.Second

	checksumSalt = "workefforts-counter:"

	// Plain numeric prefixes this long are timestamp tokens, not sequence numbers.
	timestampDigits = 8
)

// ErrCorruptState indicates the state file failed validation.
var ErrCorruptState = errors.New("counter state corrupt")

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// State is the persisted counter value.
type State struct {
	CurrentValue int64  `json:"current_value"`
	Checksum     string `json:"checksum"`
}

// Checksum computes the integrity guard for a value.
func Checksum(value int64) string {
	sum := sha256.Sum256([]byte(checksumSalt + strconv.FormatInt(value, 10)))
	return hex.EncodeToString(sum[:])
}

// Options configures a Counter.
type Options struct {
	// StatePath overrides the default <root>/.workefforts/counter.json.
	StatePath string
	// LockTimeout bounds lock acquisition; zero means DefaultLockTimeout.
	LockTimeout time.Duration
	// DatePrefix prefixes ids with the current date (YYYYMMDD_).
	DatePrefix bool
	Logger     *slog.Logger
}

// Counter allocates identifiers for records under a root directory.
type Counter struct {
	root        string
	statePath   string
	lockPath    string
	lockTimeout time.Duration
	datePrefix  bool
	logger      *slog.Logger
}

// New creates a counter for root.
func New(root string, opts Options) *Counter {
	statePath := opts.StatePath
	if statePath == "" {
		statePath = filestore.StatePath(root, StateFile)
	}
	timeout := opts.LockTimeout
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Counter{
		root:        root,
		statePath:   statePath,
		lockPath:    statePath + ".lock",
		lockTimeout: timeout,
		datePrefix:  opts.DatePrefix,
		logger:      logger,
	}
}

type releaser interface {
	Release() error
}

func (c *Counter) release(lock releaser) {
	if err := lock.Release(); err != nil {
		c.logger.Warn("failed to release counter lock", "path", c.lockPath, "error", err)
	}
}

// StatePath returns the location of the persisted state.
func (c *Counter) StatePath() string {
	return c.statePath
}

// Next allocates and formats the next identifier.
func (c *Counter) Next(ctx context.Context) (string, error) {
	value, err := c.NextValue(ctx)
	if err != nil {
		return "", err
	}
	id := Format(value)
	if c.datePrefix {
		id = timeNow().Format("20060102") + "_" + id
	}
	return id, nil
}

// NextValue allocates the next sequence number.
func (c *Counter) NextValue(ctx context.Context) (int64, error) {
	lock, err := filelock.Acquire(ctx, c.lockPath, c.lockTimeout)
	if err != nil {
		return 0, record.NewError(record.ErrCounterUnavailable, "next id", "", c.statePath, err)
	}
	defer c.release(lock)

	current, err := c.currentLocked()
	if err != nil {
		return 0, err
	}

	next := current + 1
	if err := c.write(next); err != nil {
		return 0, record.NewError(record.ErrWrite, "next id", "", c.statePath, err)
	}
	return next, nil
}

// Peek returns the last allocated value without allocating.
func (c *Counter) Peek(ctx context.Context) (int64, error) {
	lock, err := filelock.Acquire(ctx, c.lockPath, c.lockTimeout)
	if err != nil {
		return 0, record.NewError(record.ErrCounterUnavailable, "peek id", "", c.statePath, err)
	}
	defer c.release(lock)
	return c.currentLocked()
}

// Repair re-derives the counter from the record files on disk and persists
// it. The value never moves backwards from a valid persisted state.
func (c *Counter) Repair(ctx context.Context) (int64, error) {
	lock, err := filelock.Acquire(ctx, c.lockPath, c.lockTimeout)
	if err != nil {
		return 0, record.NewError(record.ErrCounterUnavailable, "repair counter", "", c.statePath, err)
	}
	defer c.release(lock)

	scanned, err := ScanHighest(c.root)
	if err != nil {
		return 0, fmt.Errorf("scanning records: %w", err)
	}
	if state, err := c.read(); err == nil && state.CurrentValue > scanned {
		scanned = state.CurrentValue
	}
	if err := c.write(scanned); err != nil {
		return 0, record.NewError(record.ErrWrite, "repair counter", "", c.statePath, err)
	}
	return scanned, nil
}

// currentLocked returns the persisted value, recovering from a filesystem
// scan when the state is absent, unreadable or fails its checksum.
func (c *Counter) currentLocked() (int64, error) {
	state, err := c.read()
	if err == nil {
		return state.CurrentValue, nil
	}

	c.logger.Warn("recovering counter from filesystem scan", "path", c.statePath, "reason", err)
	highest, scanErr := ScanHighest(c.root)
	if scanErr != nil {
		return 0, fmt.Errorf("recovering counter: %w", scanErr)
	}
	return highest, nil
}

func (c *Counter) read() (State, error) {
	data, err := os.ReadFile(c.statePath)
	if err != nil {
		return State{}, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}
	if state.CurrentValue < 0 || state.Checksum != Checksum(state.CurrentValue) {
		return State{}, fmt.Errorf("%w: checksum mismatch", ErrCorruptState)
	}
	return state, nil
}

func (c *Counter) write(value int64) error {
	data, err := json.MarshalIndent(State{CurrentValue: value, Checksum: Checksum(value)}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.statePath), 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(c.statePath, bytes.NewReader(append(data, '\n')))
}

// ScanHighest walks root and returns the highest sequence number found in
// record file or folder names, or 0 when there are none.
func ScanHighest(root string) (int64, error) {
	var highest int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() && path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if n, ok := sequenceOf(d.Name()); ok && n > highest {
			highest = n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return highest, nil
}

func sequenceOf(name string) (int64, bool) {
	id, _, ok := filestore.ParseName(name)
	if !ok {
		return 0, false
	}
	seq := id
	if len(id) > timestampDigits && id[timestampDigits] == '_' {
		seq = id[timestampDigits+1:]
	} else if len(id) >= timestampDigits {
		return 0, false
	}
	n, err := strconv.ParseInt(seq, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
