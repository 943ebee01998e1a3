package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"records",
		"transitions",
		"records_fts",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsRerun verifies a reopened file database keeps its data
func TestMigrationsRerun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	_, err = db.ExecContext(ctx,
		`INSERT INTO transitions (event_id, record_id, from_status, to_status, at) VALUES (?, ?, ?, ?, ?)`,
		"ev-1", "0001", "active", "completed", "2026-01-01T00:00:00.000000000Z")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transitions`).Scan(&count))
	require.Equal(t, 1, count)
}

// TestRecordsTable verifies the status constraint
func TestRecordsTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO records (id, title, status, path, mod_time) VALUES (?, ?, ?, ?, ?)`,
		"0001", "Title", "active", "/x", "2026-01-01T00:00:00.000000000Z")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO records (id, title, status, path, mod_time) VALUES (?, ?, ?, ?, ?)`,
		"0002", "Title", "done", "/y", "2026-01-01T00:00:00.000000000Z")
	require.Error(t, err, "should fail with invalid status")
}

// TestFTSIndex verifies the full-text search index is synchronized
func TestFTSIndex(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO records (id, title, status, path, mod_time, body) VALUES (?, ?, ?, ?, ?, ?)`,
		"0001", "Unique Record Title", "active", "/x", "2026-01-01T00:00:00.000000000Z", "Full body text here")
	require.NoError(t, err)

	// Search the FTS index - verify the trigger populated it
	var count int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records_fts WHERE records_fts MATCH ?`,
		"unique").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "should find 1 record matching 'unique'")

	// Update record and verify FTS is updated
	_, err = db.ExecContext(ctx,
		`UPDATE records SET title = ? WHERE id = ?`,
		"Updated Title", "0001")
	require.NoError(t, err)

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records_fts WHERE records_fts MATCH ?`,
		"updated").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count, "should find 1 record matching 'updated' after update")

	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records_fts WHERE records_fts MATCH ?`,
		"unique").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count, "should find 0 records matching 'unique' after update")

	// Delete and verify the row leaves the index
	_, err = db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, "0001")
	require.NoError(t, err)
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records_fts WHERE records_fts MATCH ?`,
		"body").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}
