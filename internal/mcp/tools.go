package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/workefforts/internal/domain/record"
)

// registerTools adds every work-effort tool to server.
func registerTools(server *sdkmcp.Server, cfg Config) {
	records := cfg.Records

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_work_effort",
		Description: "Create a new active work effort with the next free id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateWorkEffortParams) (*sdkmcp.CallToolResult, WorkEffortResponse, error) {
		req, err := in.toRequest()
		if err != nil {
			return nil, WorkEffortResponse{}, MapError(err)
		}
		rec, err := records.Create(ctx, req)
		if err != nil {
			return nil, WorkEffortResponse{}, MapError(err)
		}
		return nil, toWorkEffortResponse(rec, false), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_work_effort",
		Description: "Get a work effort with its body; status comes from the directory it lives in",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetWorkEffortParams) (*sdkmcp.CallToolResult, WorkEffortResponse, error) {
		rec, err := records.Get(ctx, in.ID)
		if err != nil {
			return nil, WorkEffortResponse{}, MapError(err)
		}
		return nil, toWorkEffortResponse(rec, true), nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "transition_work_effort",
		Description: "Move a work effort to another status directory and append a history entry",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in TransitionWorkEffortParams) (*sdkmcp.CallToolResult, TransitionResponse, error) {
		to, err := record.ParseStatus(in.To)
		if err != nil {
			return nil, TransitionResponse{}, MapError(err)
		}
		res, err := records.Transition(ctx, record.TransitionRequest{ID: in.ID, To: to, Strict: in.Strict})
		if err != nil {
			return nil, TransitionResponse{}, MapError(err)
		}
		return nil, TransitionResponse{
			ID:         in.ID,
			From:       string(res.From),
			To:         string(res.To),
			Path:       res.Path,
			Changed:    res.Changed,
			WorkEffort: toWorkEffortResponse(res.Record, false),
		}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "discover_work_efforts",
		Description: "List work efforts below the given roots, most recently modified first. Unreadable files are reported in errors",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in DiscoverWorkEffortsParams) (*sdkmcp.CallToolResult, DiscoverResponse, error) {
		mode, err := record.ParseDiscoveryMode(in.Mode)
		if err != nil {
			return nil, DiscoverResponse{}, MapError(fmt.Errorf("mode %q: %w", in.Mode, err))
		}
		descs, fileErrs, err := records.Discover(ctx, record.DiscoverOptions{
			Roots:     in.Roots,
			Mode:      mode,
			MarkerDir: in.MarkerDir,
		})
		if err != nil {
			return nil, DiscoverResponse{}, MapError(err)
		}
		return nil, DiscoverResponse{
			WorkEfforts: toDescriptorResponses(descs),
			Errors:      toFileErrorResponses(fileErrs),
		}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_related",
		Description: "List the work efforts a record references through related_ids and [[wiki]] links",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecordIDParams) (*sdkmcp.CallToolResult, RelatedResponse, error) {
		set, err := records.Related(ctx, in.ID)
		if err != nil {
			return nil, RelatedResponse{}, MapError(err)
		}
		return nil, RelatedResponse{ID: in.ID, Related: nonNil(set.IDs), Dangling: nonNil(set.Dangling)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_history",
		Description: "List a work effort's status transitions, oldest first",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecordIDParams) (*sdkmcp.CallToolResult, HistoryResponse, error) {
		events, err := records.History(ctx, in.ID)
		if err != nil {
			return nil, HistoryResponse{}, MapError(err)
		}
		return nil, HistoryResponse{ID: in.ID, History: toEventResponses(events)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_chain",
		Description: "Follow references transitively from a work effort and return the reachable graph",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecordIDParams) (*sdkmcp.CallToolResult, ChainResponse, error) {
		graph, err := records.Chain(ctx, in.ID)
		if err != nil {
			return nil, ChainResponse{}, MapError(err)
		}
		return nil, ChainResponse{
			Root:     graph.Root,
			Nodes:    nonNil(graph.Nodes),
			Edges:    nonNil(graph.Edges),
			Dangling: nonNil(graph.Dangling),
		}, nil
	})

	if cfg.Index == nil || cfg.Reindexer == nil {
		return
	}
	index, reindexer := cfg.Index, cfg.Reindexer

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "search_work_efforts",
		Description: "Full-text search over work effort titles and bodies",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in SearchWorkEffortsParams) (*sdkmcp.CallToolResult, SearchResponse, error) {
		if in.Reindex {
			if _, err := reindexer.Reindex(ctx); err != nil {
				return nil, SearchResponse{}, MapError(err)
			}
		}
		hits, err := index.Search(ctx, in.Query, in.Limit)
		if err != nil {
			return nil, SearchResponse{}, MapError(err)
		}
		return nil, SearchResponse{Query: in.Query, Hits: toSearchHitResponses(hits)}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "rebuild_index",
		Description: "Rebuild the search index from the work effort files on disk",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ RebuildIndexParams) (*sdkmcp.CallToolResult, RebuildIndexResponse, error) {
		stats, err := reindexer.Reindex(ctx)
		if err != nil {
			return nil, RebuildIndexResponse{}, MapError(err)
		}
		return nil, toRebuildIndexResponse(stats), nil
	})
}

func (p CreateWorkEffortParams) toRequest() (record.CreateRequest, error) {
	priority, err := record.ParsePriority(p.Priority)
	if err != nil {
		return record.CreateRequest{}, err
	}
	req := record.CreateRequest{
		Title:      p.Title,
		Priority:   priority,
		Assignee:   p.Assignee,
		Tags:       p.Tags,
		RelatedIDs: p.RelatedIDs,
		Body:       p.Body,
	}
	if due := strings.TrimSpace(p.DueDate); due != "" {
		t, err := time.Parse(dateLayout, due)
		if err != nil {
			return record.CreateRequest{}, fmt.Errorf("%w: due_date must be YYYY-MM-DD", record.ErrInvalidInput)
		}
		req.DueDate = &t
	}
	return req, nil
}
