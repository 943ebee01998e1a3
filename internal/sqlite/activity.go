package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/repository"
)

// ActivityRepository implements repository.ActivityRepository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log records a transition. Logging the same event twice is a no-op.
func (r *ActivityRepository) Log(ctx context.Context, recordID string, event record.TransitionEvent) error {
	if recordID == "" || event.ID == "" {
		return repository.ErrInvalidInput
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO transitions (event_id, record_id, from_status, to_status, at)
		VALUES (?, ?, ?, ?, ?)
	`,
		event.ID,
		recordID,
		string(event.From),
		string(event.To),
		formatTime(event.At),
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

// List returns logged transitions, newest first
func (r *ActivityRepository) List(ctx context.Context, opts repository.ListActivityOptions) ([]repository.ActivityEntry, error) {
	query := `
		SELECT event_id, record_id, from_status, to_status, at
		FROM transitions
	`
	args := []any{}

	if opts.RecordID != "" {
		query += " WHERE record_id = ?"
		args = append(args, opts.RecordID)
	}

	query += " ORDER BY at DESC, event_id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	entries := []repository.ActivityEntry{}
	for rows.Next() {
		var (
			entry    repository.ActivityEntry
			from, to string
			at       string
		)
		if err := rows.Scan(&entry.EventID, &entry.RecordID, &from, &to, &at); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if entry.At, err = parseTime(at); err != nil {
			return nil, err
		}
		entry.From = recordStatus(from)
		entry.To = recordStatus(to)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return entries, nil
}

func recordStatus(v string) record.Status {
	return record.Status(v)
}
