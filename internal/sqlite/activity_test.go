package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := record.TransitionEvent{ID: "ev-1", At: at, From: record.StatusActive, To: record.StatusPaused}
	second := record.TransitionEvent{ID: "ev-2", At: at.Add(500 * time.Millisecond), From: record.StatusPaused, To: record.StatusCompleted}
	other := record.TransitionEvent{ID: "ev-3", At: at.Add(time.Second), From: record.StatusActive, To: record.StatusArchived}

	require.NoError(t, repo.Log(ctx, "0001", first))
	require.NoError(t, repo.Log(ctx, "0001", second))
	require.NoError(t, repo.Log(ctx, "0002", other))

	entries, err := repo.List(ctx, repository.ListActivityOptions{RecordID: "0001"})
	require.NoError(t, err)
	require.Equal(t, []repository.ActivityEntry{
		{EventID: "ev-2", RecordID: "0001", From: record.StatusPaused, To: record.StatusCompleted, At: second.At},
		{EventID: "ev-1", RecordID: "0001", From: record.StatusActive, To: record.StatusPaused, At: first.At},
	}, entries)

	all, err := repo.List(ctx, repository.ListActivityOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "ev-3", all[0].EventID)
}

func TestActivityRepository_LogIsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	event := record.TransitionEvent{ID: "ev-1", At: time.Now(), From: record.StatusActive, To: record.StatusCompleted}
	require.NoError(t, repo.Log(ctx, "0001", event))
	require.NoError(t, repo.Log(ctx, "0001", event))

	entries, err := repo.List(ctx, repository.ListActivityOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestActivityRepository_LogRequiresIDs(t *testing.T) {
	repo := NewActivityRepository(NewTestDB(t))
	err := repo.Log(context.Background(), "", record.TransitionEvent{ID: "ev"})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
	err = repo.Log(context.Background(), "0001", record.TransitionEvent{})
	require.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestActivityRepository_ListEmpty(t *testing.T) {
	entries, err := NewActivityRepository(NewTestDB(t)).List(context.Background(), repository.ListActivityOptions{RecordID: "0001"})
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}
