package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/workefforts/internal/repository"
)

// IndexRepository implements repository.IndexRepository for SQLite
type IndexRepository struct {
	db *DB
}

// NewIndexRepository creates a new IndexRepository
func NewIndexRepository(db *DB) *IndexRepository {
	return &IndexRepository{db: db}
}

// Replace swaps the whole index for records in one transaction
func (r *IndexRepository) Replace(ctx context.Context, records []repository.IndexedRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, title, status, priority, assignee, tags, path, mod_time, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare index insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.Title,
			string(rec.Status),
			rec.Priority,
			rec.Assignee,
			joinTags(rec.Tags),
			rec.Path,
			formatTime(rec.ModTime),
			rec.Body,
		); err != nil {
			return fmt.Errorf("failed to index record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index rebuild: %w", err)
	}
	return nil
}

// Get returns one indexed record by id
func (r *IndexRepository) Get(ctx context.Context, id string) (*repository.IndexedRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, status, priority, assignee, tags, path, mod_time, body
		FROM records WHERE id = ?
	`, id)

	rec, err := scanIndexed(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indexed record: %w", err)
	}
	return rec, nil
}

func scanIndexed(scan func(dest ...any) error, extra ...any) (*repository.IndexedRecord, error) {
	var (
		rec     repository.IndexedRecord
		status  string
		tags    string
		modTime string
	)
	dest := append([]any{
		&rec.ID, &rec.Title, &status, &rec.Priority, &rec.Assignee, &tags, &rec.Path, &modTime, &rec.Body,
	}, extra...)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	t, err := parseTime(modTime)
	if err != nil {
		return nil, err
	}
	rec.Status = recordStatus(status)
	rec.Tags = splitTags(tags)
	rec.ModTime = t
	return &rec, nil
}
