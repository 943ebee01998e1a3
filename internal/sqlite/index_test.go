package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/repository"
	"github.com/stretchr/testify/require"
)

func indexed(id, title string, status record.Status, body string) repository.IndexedRecord {
	return repository.IndexedRecord{
		ID:       id,
		Title:    title,
		Status:   status,
		Priority: "medium",
		Assignee: "unassigned",
		Tags:     []string{"auth", "bug"},
		Path:     "/root/" + string(status) + "/" + id + ".md",
		ModTime:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Body:     body,
	}
}

func TestIndexRepository_ReplaceGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIndexRepository(db)

	rec := indexed("0001", "Fix login bug", record.StatusActive, "Session cookie expires early")
	require.NoError(t, repo.Replace(ctx, []repository.IndexedRecord{rec}))

	got, err := repo.Get(ctx, "0001")
	require.NoError(t, err)
	require.Equal(t, rec, *got)

	// A rebuild drops records that are gone from disk.
	require.NoError(t, repo.Replace(ctx, []repository.IndexedRecord{
		indexed("0002", "Write docs", record.StatusPaused, ""),
	}))
	_, err = repo.Get(ctx, "0001")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIndexRepository_ReplaceSkipsDuplicatesAndMissingIDs(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIndexRepository(db)

	require.NoError(t, repo.Replace(ctx, []repository.IndexedRecord{
		indexed("0001", "Newest copy", record.StatusCompleted, ""),
		indexed("0001", "Older copy", record.StatusActive, ""),
		indexed("", "No id", record.StatusActive, ""),
	}))

	got, err := repo.Get(ctx, "0001")
	require.NoError(t, err)
	require.Equal(t, "Newest copy", got.Title)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestIndexRepository_Search(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIndexRepository(db)

	require.NoError(t, repo.Replace(ctx, []repository.IndexedRecord{
		indexed("0001", "Fix login bug", record.StatusActive, "The session cookie expires early."),
		indexed("0002", "Write docs", record.StatusPaused, "Document the login flow."),
		indexed("0003", "Upgrade database", record.StatusArchived, "Nothing relevant."),
	}))

	hits, err := repo.Search(ctx, "login", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	ids := []string{hits[0].Record.ID, hits[1].Record.ID}
	require.ElementsMatch(t, []string{"0001", "0002"}, ids)

	hits, err = repo.Search(ctx, "cookie", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "0001", hits[0].Record.ID)
	require.Contains(t, hits[0].Snippet, "[cookie]")

	hits, err = repo.Search(ctx, "login", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestIndexRepository_SearchQuotesSyntax(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewIndexRepository(db)
	require.NoError(t, repo.Replace(ctx, []repository.IndexedRecord{
		indexed("0001", "Fix login bug", record.StatusActive, "oauth: token refresh"),
	}))

	hits, err := repo.Search(ctx, `oauth: "token`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	_, err = repo.Search(ctx, "   ", 10)
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}
