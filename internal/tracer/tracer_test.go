package tracer

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/workefforts/internal/discovery"
	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filestore"
	"github.com/stretchr/testify/require"
)

type seedRecord struct {
	id      string
	title   string
	status  record.Status
	related []string
	body    string
	history []record.TransitionEvent
}

func seed(t *testing.T, records ...seedRecord) (*Tracer, string) {
	t.Helper()
	root := t.TempDir()
	store := filestore.New()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range records {
		status := r.status
		if status == "" {
			status = record.StatusActive
		}
		rec := &record.Record{
			ID:          r.id,
			Title:       r.title,
			Status:      status,
			CreatedAt:   at,
			LastUpdated: at,
			RelatedIDs:  r.related,
			History:     r.history,
			Body:        r.body,
		}
		require.NoError(t, store.Save(rec, filestore.FolderPath(root, status, r.id, r.title)))
	}
	return New(discovery.NewEngine(), store, Options{Roots: []string{root}}), root
}

func TestRelated_UnionsMetadataAndLinks(t *testing.T) {
	tr, _ := seed(t,
		seedRecord{id: "0001", title: "Fix login bug", related: []string{"0002"}, body: "Blocked on [[Session store]] and [[0002]]. See [[0001]]."},
		seedRecord{id: "0002", title: "Audit auth"},
		seedRecord{id: "0003", title: "Session store", status: record.StatusPaused},
		seedRecord{id: "0010", title: "Unrelated"},
	)

	set, err := tr.Related(context.Background(), "0001")
	require.NoError(t, err)
	require.Equal(t, []string{"0002", "0003"}, set.IDs)
	require.Empty(t, set.Dangling)
}

func TestRelated_ResolvesStemsAndReportsDangling(t *testing.T) {
	tr, _ := seed(t,
		seedRecord{id: "0001", title: "Root", related: []string{"0404"}, body: "[[0002_second]] [[0003_renamed-later]] [[no such thing]]"},
		seedRecord{id: "0002", title: "Second"},
		seedRecord{id: "0003", title: "Third"},
	)

	set, err := tr.Related(context.Background(), "0001")
	require.NoError(t, err)
	require.Equal(t, []string{"0002", "0003"}, set.IDs)
	require.Equal(t, []string{"0404", "no such thing"}, set.Dangling)
}

func TestRelated_NotFound(t *testing.T) {
	tr, _ := seed(t, seedRecord{id: "0001", title: "Only"})
	_, err := tr.Related(context.Background(), "0999")
	require.ErrorIs(t, err, record.ErrNotFound)
}

func TestHistory_ReturnsPersistedOrder(t *testing.T) {
	t0 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	events := []record.TransitionEvent{
		{ID: "a", At: t0, From: record.StatusActive, To: record.StatusPaused},
		{ID: "b", At: t0.Add(time.Hour), From: record.StatusPaused, To: record.StatusActive},
		{ID: "c", At: t0.Add(2 * time.Hour), From: record.StatusActive, To: record.StatusCompleted},
	}
	tr, _ := seed(t,
		seedRecord{id: "0001", title: "Moved around", status: record.StatusCompleted, history: events},
		seedRecord{id: "0002", title: "Never moved"},
	)

	history, err := tr.History(context.Background(), "0001")
	require.NoError(t, err)
	require.Equal(t, events, history)

	history, err = tr.History(context.Background(), "Never moved")
	require.NoError(t, err)
	require.NotNil(t, history)
	require.Empty(t, history)
}

func TestChain_BreaksCycles(t *testing.T) {
	tr, _ := seed(t,
		seedRecord{id: "0001", title: "A", body: "next: [[0002]]"},
		seedRecord{id: "0002", title: "B", related: []string{"0003"}},
		seedRecord{id: "0003", title: "C", body: "back to [[A]]"},
	)

	graph, err := tr.Chain(context.Background(), "0001")
	require.NoError(t, err)
	require.Equal(t, "0001", graph.Root)
	require.Equal(t, []string{"0001", "0002", "0003"}, graph.Nodes)
	require.Equal(t, []record.Edge{
		{From: "0001", To: "0002"},
		{From: "0002", To: "0003"},
		{From: "0003", To: "0001"},
	}, graph.Edges)
	require.Empty(t, graph.Dangling)
}

func TestChain_BreadthFirstWithDanglingEdges(t *testing.T) {
	tr, _ := seed(t,
		seedRecord{id: "0001", title: "Root", related: []string{"0002", "0003"}},
		seedRecord{id: "0002", title: "Left", related: []string{"0004", "0099"}},
		seedRecord{id: "0003", title: "Right", related: []string{"0004"}},
		seedRecord{id: "0004", title: "Leaf", related: []string{"0002"}},
		seedRecord{id: "0005", title: "Island"},
	)

	graph, err := tr.Chain(context.Background(), "0001")
	require.NoError(t, err)
	require.Equal(t, []string{"0001", "0002", "0003", "0004"}, graph.Nodes)
	require.Len(t, graph.Edges, 5)
	require.Equal(t, []record.Edge{{From: "0002", To: "0099"}}, graph.Dangling)
}

func TestChain_NotFound(t *testing.T) {
	tr, _ := seed(t)
	_, err := tr.Chain(context.Background(), "0001")
	require.ErrorIs(t, err, record.ErrNotFound)
}
