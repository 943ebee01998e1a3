// Package indexer rebuilds the SQLite search index from the record files.
package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/repository"
)

// Stats summarizes a rebuild.
type Stats struct {
	Indexed int                `json:"indexed"`
	Skipped []record.FileError `json:"skipped"`
}

// Indexer projects discovered records into an IndexRepository.
type Indexer struct {
	discovery record.Discoverer
	store     record.Store
	index     repository.IndexRepository
	logger    *slog.Logger
}

// New creates an indexer.
func New(discovery record.Discoverer, store record.Store, index repository.IndexRepository, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Indexer{discovery: discovery, store: store, index: index, logger: logger}
}

// Rebuild discovers every record under opts and replaces the index with them.
// Files that cannot be read are reported in Stats and left out.
func (ix *Indexer) Rebuild(ctx context.Context, opts record.DiscoverOptions) (Stats, error) {
	descs, fileErrs, err := ix.discovery.Discover(ctx, opts)
	if err != nil {
		return Stats{}, fmt.Errorf("discovering records: %w", err)
	}

	stats := Stats{Skipped: append([]record.FileError{}, fileErrs...)}
	rows := make([]repository.IndexedRecord, 0, len(descs))
	for _, d := range descs {
		if d.ID == "" {
			continue
		}
		rec, err := ix.store.Load(d.Path)
		if err != nil {
			stats.Skipped = append(stats.Skipped, record.FileError{Path: d.Path, Err: err})
			continue
		}
		rows = append(rows, repository.IndexedRecord{
			ID:       d.ID,
			Title:    d.Title,
			Status:   d.Status,
			Priority: string(rec.Priority),
			Assignee: rec.Assignee,
			Tags:     rec.Tags,
			Path:     d.Path,
			ModTime:  d.ModTime,
			Body:     rec.Body,
		})
	}

	if err := ix.index.Replace(ctx, rows); err != nil {
		return Stats{}, fmt.Errorf("replacing index: %w", err)
	}
	stats.Indexed = len(rows)
	ix.logger.Info("index rebuilt", "indexed", stats.Indexed, "skipped", len(stats.Skipped))
	return stats, nil
}
