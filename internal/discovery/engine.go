// Package discovery finds work-effort records below one or more roots.
//
// A run first walks the tree to collect candidate files, which ordering
// requires, and then parses headers lazily while yielding descriptors, so a
// consumer that stops early never pays for the rest of the tree.
package discovery

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filestore"
)

// Run is a restartable, finite discovery pass. Each call to All walks the
// filesystem again and resets the error list.
type Run struct {
	opts  record.DiscoverOptions
	store *filestore.FileStore

	mu   sync.Mutex
	errs []record.FileError
}

// Discover prepares a discovery run. Nothing touches the filesystem until the
// sequence is iterated.
func Discover(opts record.DiscoverOptions) *Run {
	if opts.Mode == "" {
		opts.Mode = record.ModeStandard
	}
	if opts.MarkerDir == "" {
		opts.MarkerDir = filestore.DefaultMarkerDir
	}
	return &Run{opts: opts, store: filestore.New()}
}

type candidate struct {
	path       string
	modTime    time.Time
	dirStatus  record.Status
	strategies []string
}

// All yields a descriptor per distinct record file, most recently modified
// first. Files that fail to read or parse are skipped and reported by Errors.
func (r *Run) All(ctx context.Context) iter.Seq[record.Descriptor] {
	return func(yield func(record.Descriptor) bool) {
		r.mu.Lock()
		r.errs = nil
		r.mu.Unlock()

		for _, c := range r.candidates(ctx) {
			if ctx.Err() != nil {
				return
			}
			desc, ok := r.describe(c)
			if !ok {
				continue
			}
			if !yield(desc) {
				return
			}
		}
	}
}

// Errors returns the per-file failures of the most recent iteration.
func (r *Run) Errors() []record.FileError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.errs)
}

// Collect drains the sequence.
func (r *Run) Collect(ctx context.Context) ([]record.Descriptor, []record.FileError) {
	descriptors := slices.Collect(r.All(ctx))
	if descriptors == nil {
		descriptors = []record.Descriptor{}
	}
	return descriptors, r.Errors()
}

func (r *Run) fail(path string, err error) {
	r.mu.Lock()
	r.errs = append(r.errs, record.FileError{Path: path, Err: err})
	r.mu.Unlock()
}

func (r *Run) candidates(ctx context.Context) []*candidate {
	byPath := make(map[string]*candidate)
	add := func(path string, info fs.FileInfo, status record.Status, strategies ...string) {
		key := resolve(path)
		c, ok := byPath[key]
		if !ok {
			c = &candidate{path: key, modTime: info.ModTime()}
			byPath[key] = c
		}
		if c.dirStatus == "" {
			c.dirStatus = status
		}
		for _, s := range strategies {
			if !slices.Contains(c.strategies, s) {
				c.strategies = append(c.strategies, s)
			}
		}
	}

	for _, root := range r.opts.Roots {
		if ctx.Err() != nil {
			break
		}
		switch r.opts.Mode {
		case record.ModeThorough:
			r.walk(ctx, resolve(root), add)
		default:
			r.scanStandard(root, add)
		}
	}

	out := make([]*candidate, 0, len(byPath))
	for _, c := range byPath {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *candidate) int {
		if c := b.modTime.Compare(a.modTime); c != 0 {
			return c
		}
		return cmp.Compare(a.path, b.path)
	})
	return out
}

type addFunc func(path string, info fs.FileInfo, status record.Status, strategies ...string)

// scanStandard checks <root>/<status>/ and <root>/<marker>/<status>/ only.
func (r *Run) scanStandard(root string, add addFunc) {
	bases := []string{root}
	if filepath.Base(root) != r.opts.MarkerDir {
		bases = append(bases, filepath.Join(root, r.opts.MarkerDir))
	}
	for _, base := range bases {
		for _, status := range record.Statuses {
			dir := filestore.StatusDir(base, status)
			entries, err := os.ReadDir(dir)
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					r.fail(dir, err)
				}
				continue
			}
			for _, entry := range entries {
				path := filepath.Join(dir, entry.Name())
				if entry.IsDir() {
					path = filepath.Join(path, entry.Name()+filestore.Ext)
				} else if !strings.HasSuffix(entry.Name(), filestore.Ext) {
					continue
				}
				info, err := os.Stat(path)
				if err != nil {
					if !errors.Is(err, fs.ErrNotExist) {
						r.fail(path, err)
					}
					continue
				}
				if !info.Mode().IsRegular() {
					continue
				}
				var strategies []string
				if _, ok := matchFilename(path); ok {
					strategies = append(strategies, StrategyFilename)
				}
				add(path, info, status, append(strategies, StrategyDirectory)...)
			}
		}
	}
}

// walk recursively visits every non-hidden directory below root.
func (r *Run) walk(ctx context.Context, root string, add addFunc) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				r.fail(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.HasSuffix(d.Name(), filestore.Ext) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				r.fail(path, err)
			}
			return nil
		}

		var strategies []string
		if _, ok := matchFilename(path); ok {
			strategies = append(strategies, StrategyFilename)
		}
		status, ok := matchDirectory(path, r.opts.MarkerDir)
		if ok {
			strategies = append(strategies, StrategyDirectory)
		}
		add(path, info, status, strategies...)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		r.fail(root, err)
	}
}

// describe parses a candidate lazily. A candidate no name or directory
// strategy vouched for is a record only if its header parses, so its parse
// failure is not an error. A file removed since the walk is skipped silently.
func (r *Run) describe(c *candidate) (record.Descriptor, bool) {
	rec, err := r.store.Load(c.path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case errors.Is(err, record.ErrParse) && len(c.strategies) == 0:
		default:
			r.fail(c.path, err)
		}
		return record.Descriptor{}, false
	}

	desc := record.Descriptor{
		Path:         c.path,
		ID:           rec.ID,
		Title:        rec.Title,
		Status:       rec.Status,
		HeaderStatus: rec.Status,
		ModTime:      c.modTime,
		Strategies:   append(slices.Clone(c.strategies), StrategyContent),
	}
	if c.dirStatus != "" {
		desc.Status = c.dirStatus
	}
	if desc.ID == "" {
		desc.ID, _ = matchFilename(c.path)
	}
	if desc.ID == "" {
		desc.ID, _ = matchFilename(filepath.Dir(c.path))
	}
	return desc, true
}

// resolve canonicalizes path so one file reached twice yields one candidate.
func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// Engine adapts discovery runs to record.Discoverer.
type Engine struct{}

// NewEngine creates a discovery engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Discover drains a run for opts.
func (e *Engine) Discover(ctx context.Context, opts record.DiscoverOptions) ([]record.Descriptor, []record.FileError, error) {
	descriptors, errs := Discover(opts).Collect(ctx)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return descriptors, errs, nil
}
