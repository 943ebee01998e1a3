package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/repository"
	"github.com/rpggio/workefforts/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIndexer_Rebuild(t *testing.T) {
	ctx := context.Background()
	opts := record.DiscoverOptions{Roots: []string{"/efforts"}}
	mod := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	discovery := &mocks.Discoverer{}
	store := &mocks.Store{}
	index := &mocks.IndexRepository{}

	discovery.On("Discover", ctx, opts).Return([]record.Descriptor{
		{Path: "/efforts/completed/0001_a/0001_a.md", ID: "0001", Title: "A", Status: record.StatusCompleted, ModTime: mod},
		{Path: "/efforts/active/0002_b.md", ID: "0002", Title: "B", Status: record.StatusActive, ModTime: mod},
		{Path: "/efforts/docs/plan.md", Title: "No id"},
	}, []record.FileError{{Path: "/efforts/active/0003_bad.md", Err: record.ErrParse}}, nil)

	store.On("Load", "/efforts/completed/0001_a/0001_a.md").Return(&record.Record{
		ID: "0001", Title: "A", Status: record.StatusActive, Priority: record.PriorityHigh,
		Assignee: "dana", Tags: []string{"auth"}, Body: "body a",
	}, nil)
	store.On("Load", "/efforts/active/0002_b.md").Return(nil, errors.New("vanished"))

	index.On("Replace", ctx, []repository.IndexedRecord{{
		ID:       "0001",
		Title:    "A",
		Status:   record.StatusCompleted,
		Priority: "high",
		Assignee: "dana",
		Tags:     []string{"auth"},
		Path:     "/efforts/completed/0001_a/0001_a.md",
		ModTime:  mod,
		Body:     "body a",
	}}).Return(nil)

	stats, err := New(discovery, store, index, nil).Rebuild(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Indexed)
	require.Len(t, stats.Skipped, 2)
	index.AssertExpectations(t)
}

func TestIndexer_RebuildReplaceFails(t *testing.T) {
	ctx := context.Background()
	discovery := &mocks.Discoverer{}
	index := &mocks.IndexRepository{}
	discovery.On("Discover", ctx, mock.Anything).Return([]record.Descriptor{}, nil, nil)
	index.On("Replace", ctx, mock.Anything).Return(errors.New("disk I/O error"))

	_, err := New(discovery, &mocks.Store{}, index, nil).Rebuild(ctx, record.DiscoverOptions{})
	require.ErrorContains(t, err, "replacing index")
}
