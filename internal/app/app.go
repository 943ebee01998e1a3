// Package app wires the record service to its filesystem and SQLite
// collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/workefforts/internal/config"
	"github.com/rpggio/workefforts/internal/counter"
	"github.com/rpggio/workefforts/internal/discovery"
	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filestore"
	"github.com/rpggio/workefforts/internal/indexer"
	"github.com/rpggio/workefforts/internal/lifecycle"
	"github.com/rpggio/workefforts/internal/repository"
	"github.com/rpggio/workefforts/internal/sqlite"
	"github.com/rpggio/workefforts/internal/tracer"
)

// App holds the services one process needs.
type App struct {
	Config   config.Config
	Records  *record.Service
	Counter  *counter.Counter
	Indexer  *indexer.Indexer
	Index    repository.IndexRepository
	Activity repository.ActivityRepository

	db *sqlite.DB
}

// New opens the index database and builds the services for cfg.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	cfg.Root = root

	indexPath := cfg.IndexPath()
	if err := ensureDBDir(indexPath); err != nil {
		return nil, fmt.Errorf("prepare index path: %w", err)
	}
	db, err := sqlite.New(indexPath)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	store := filestore.New()
	ids := counter.New(root, counter.Options{
		LockTimeout: cfg.LockTimeout,
		DatePrefix:  cfg.Counter.DatePrefix,
		Logger:      logger,
	})
	machine := lifecycle.New(store, lifecycle.Options{LockTimeout: cfg.LockTimeout, Logger: logger})
	engine := discovery.NewEngine()
	trace := tracer.New(engine, store, tracer.Options{
		Roots:     []string{root},
		MarkerDir: cfg.MarkerDir,
		Logger:    logger,
	})
	activity := sqlite.NewActivityRepository(db)
	index := sqlite.NewIndexRepository(db)

	records := record.NewService(root, ids, store, machine, engine, trace, activity, logger).
		WithRenderer(DefaultBody).
		WithMarkerDir(cfg.MarkerDir)

	return &App{
		Config:   cfg,
		Records:  records,
		Counter:  ids,
		Indexer:  indexer.New(engine, store, index, logger),
		Index:    index,
		Activity: activity,
		db:       db,
	}, nil
}

// Reindex rebuilds the search index from every record below the root,
// including those nested under the marker directory.
func (a *App) Reindex(ctx context.Context) (indexer.Stats, error) {
	return a.Indexer.Rebuild(ctx, record.DiscoverOptions{
		Roots:     []string{a.Config.Root},
		Mode:      record.ModeStandard,
		MarkerDir: a.Config.MarkerDir,
	})
}

// Close releases the index database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// DefaultBody is the initial body of a new record.
func DefaultBody(title string) string {
	return "# " + title + "\n\n## Objectives\n\n## Tasks\n\n- [ ] \n\n## Notes\n"
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
