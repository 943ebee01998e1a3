package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/workefforts/internal/app"
	"github.com/rpggio/workefforts/internal/config"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	a, err := app.New(config.Config{
		Root:        t.TempDir(),
		MarkerDir:   "work_efforts",
		LockTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()

	ss, err := NewServer(cfg).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func connectApp(t *testing.T, a *app.App) *sdkmcp.ClientSession {
	return connect(t, Config{Records: a.Records, Index: a.Index, Reindexer: a})
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "tools/call %s", name)
	return res
}

func resultText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decode[T any](t *testing.T, res *sdkmcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "tool returned error: %s", resultText(t, res))
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

func requireToolError(t *testing.T, res *sdkmcp.CallToolResult, code string) {
	t.Helper()
	require.True(t, res.IsError, "expected %s, got %s", code, resultText(t, res))
	require.Contains(t, resultText(t, res), code)
}

func TestServer_InfoAndTools(t *testing.T) {
	cs := connectApp(t, newTestApp(t))

	info := cs.InitializeResult()
	require.NotNil(t, info)
	require.Equal(t, "workefforts", info.ServerInfo.Name)
	require.Equal(t, Version, info.ServerInfo.Version)

	tools, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"create_work_effort",
		"get_work_effort",
		"transition_work_effort",
		"discover_work_efforts",
		"get_related",
		"get_history",
		"get_chain",
		"search_work_efforts",
		"rebuild_index",
	}, names)
}

func TestServer_SearchToolsNeedIndex(t *testing.T) {
	cs := connect(t, Config{Records: newTestApp(t).Records})

	tools, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	for _, tool := range tools.Tools {
		require.NotEqual(t, "search_work_efforts", tool.Name)
		require.NotEqual(t, "rebuild_index", tool.Name)
	}
}

func TestServer_CreateTransitionHistory(t *testing.T) {
	cs := connectApp(t, newTestApp(t))

	created := decode[WorkEffortResponse](t, callTool(t, cs, "create_work_effort", map[string]any{
		"title":    "Fix login bug",
		"priority": "high",
		"due_date": "2026-04-01",
		"tags":     []string{"bug", "auth"},
	}))
	require.Equal(t, "0001", created.ID)
	require.Equal(t, "active", created.Status)
	require.Equal(t, "high", created.Priority)
	require.Equal(t, "2026-04-01", created.DueDate)
	require.Equal(t, []string{"auth", "bug"}, created.Tags)

	moved := decode[TransitionResponse](t, callTool(t, cs, "transition_work_effort", map[string]any{
		"id": "0001",
		"to": "completed",
	}))
	require.True(t, moved.Changed)
	require.Equal(t, "active", moved.From)
	require.Equal(t, "completed", moved.To)
	require.Contains(t, moved.Path, "completed")

	again := decode[TransitionResponse](t, callTool(t, cs, "transition_work_effort", map[string]any{
		"id": "0001",
		"to": "completed",
	}))
	require.False(t, again.Changed)

	requireToolError(t, callTool(t, cs, "transition_work_effort", map[string]any{
		"id":     "0001",
		"to":     "completed",
		"strict": true,
	}), "ALREADY_IN_STATE")

	history := decode[HistoryResponse](t, callTool(t, cs, "get_history", map[string]any{"id": "0001"}))
	require.Len(t, history.History, 1)
	require.Equal(t, "active", history.History[0].From)
	require.Equal(t, "completed", history.History[0].To)

	got := decode[WorkEffortResponse](t, callTool(t, cs, "get_work_effort", map[string]any{"id": "0001"}))
	require.Equal(t, "completed", got.Status)
	require.Contains(t, got.Body, "# Fix login bug")

	found := decode[DiscoverResponse](t, callTool(t, cs, "discover_work_efforts", map[string]any{}))
	require.Len(t, found.WorkEfforts, 1)
	require.Equal(t, "completed", found.WorkEfforts[0].Status)
	require.Empty(t, found.Errors)
}

func TestServer_RelatedChainAndSearch(t *testing.T) {
	cs := connectApp(t, newTestApp(t))

	decode[WorkEffortResponse](t, callTool(t, cs, "create_work_effort", map[string]any{
		"title": "Session store",
		"body":  "Keeps cookies server side. Depends on [[0002]].\n",
	}))
	decode[WorkEffortResponse](t, callTool(t, cs, "create_work_effort", map[string]any{
		"title":       "Login form",
		"related_ids": []string{"0001", "0404"},
	}))

	related := decode[RelatedResponse](t, callTool(t, cs, "get_related", map[string]any{"id": "0002"}))
	require.Equal(t, []string{"0001"}, related.Related)
	require.Equal(t, []string{"0404"}, related.Dangling)

	chain := decode[ChainResponse](t, callTool(t, cs, "get_chain", map[string]any{"id": "0001"}))
	require.Equal(t, "0001", chain.Root)
	require.Equal(t, []string{"0001", "0002"}, chain.Nodes)
	require.Len(t, chain.Edges, 2)
	require.Len(t, chain.Dangling, 1)

	hits := decode[SearchResponse](t, callTool(t, cs, "search_work_efforts", map[string]any{
		"query":   "cookies",
		"reindex": true,
	}))
	require.Len(t, hits.Hits, 1)
	require.Equal(t, "0001", hits.Hits[0].ID)
	require.Contains(t, hits.Hits[0].Snippet, "[cookies]")

	rebuilt := decode[RebuildIndexResponse](t, callTool(t, cs, "rebuild_index", map[string]any{}))
	require.Equal(t, 2, rebuilt.Indexed)
	require.Empty(t, rebuilt.Skipped)
}

func TestServer_ErrorCodes(t *testing.T) {
	cs := connectApp(t, newTestApp(t))

	requireToolError(t, callTool(t, cs, "get_work_effort", map[string]any{"id": "0042"}), "NOT_FOUND")
	requireToolError(t, callTool(t, cs, "get_history", map[string]any{"id": "0042"}), "NOT_FOUND")
	requireToolError(t, callTool(t, cs, "transition_work_effort", map[string]any{"id": "0042", "to": "done"}), "INVALID_INPUT")
	requireToolError(t, callTool(t, cs, "create_work_effort", map[string]any{"title": "X", "due_date": "soon"}), "INVALID_INPUT")
	requireToolError(t, callTool(t, cs, "create_work_effort", map[string]any{"title": "  "}), "INVALID_INPUT")
	requireToolError(t, callTool(t, cs, "discover_work_efforts", map[string]any{"mode": "deep"}), "INVALID_INPUT")
	requireToolError(t, callTool(t, cs, "search_work_efforts", map[string]any{"query": ""}), "INVALID_INPUT")
}

func TestServer_DocResources(t *testing.T) {
	cs := connectApp(t, newTestApp(t))

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "workefforts://docs/errors"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Equal(t, "text/markdown", res.Contents[0].MIMEType)
	require.Contains(t, res.Contents[0].Text, "LOCK_CONTENTION")
}
