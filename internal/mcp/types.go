package mcp

import (
	"time"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/indexer"
	"github.com/rpggio/workefforts/internal/repository"
)

// dateLayout is the wire format of due dates.
const dateLayout = "2006-01-02"

type CreateWorkEffortParams struct {
	Title      string   `json:"title" jsonschema:"Short human-readable title"`
	Priority   string   `json:"priority,omitempty" jsonschema:"low, medium, high or critical (default medium)"`
	Assignee   string   `json:"assignee,omitempty" jsonschema:"Owner of the work effort (default unassigned)"`
	DueDate    string   `json:"due_date,omitempty" jsonschema:"Due date as YYYY-MM-DD"`
	Tags       []string `json:"tags,omitempty" jsonschema:"Free-form tags"`
	RelatedIDs []string `json:"related_ids,omitempty" jsonschema:"Ids of related work efforts"`
	Body       string   `json:"body,omitempty" jsonschema:"Markdown body (default: a generated outline)"`
}

type GetWorkEffortParams struct {
	ID string `json:"id" jsonschema:"Work effort id, e.g. 0001"`
}

type TransitionWorkEffortParams struct {
	ID     string `json:"id" jsonschema:"Work effort id"`
	To     string `json:"to" jsonschema:"Target status: active, paused, completed or archived"`
	Strict bool   `json:"strict,omitempty" jsonschema:"Fail with ALREADY_IN_STATE instead of succeeding as a no-op"`
}

type DiscoverWorkEffortsParams struct {
	Roots     []string `json:"roots,omitempty" jsonschema:"Directories to search (default: the configured root)"`
	Mode      string   `json:"mode,omitempty" jsonschema:"standard (status directories only) or thorough (walk everything)"`
	MarkerDir string   `json:"marker_dir,omitempty" jsonschema:"Marker directory name (default: configured)"`
}

type RecordIDParams struct {
	ID string `json:"id" jsonschema:"Work effort id, file stem or title"`
}

type SearchWorkEffortsParams struct {
	Query   string `json:"query" jsonschema:"Full-text query over titles and bodies"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of hits (default 20)"`
	Reindex bool   `json:"reindex,omitempty" jsonschema:"Rebuild the index from disk before searching"`
}

type RebuildIndexParams struct{}

type WorkEffortResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Status      string          `json:"status"`
	Priority    string          `json:"priority"`
	Assignee    string          `json:"assignee"`
	CreatedAt   string          `json:"created_at"`
	LastUpdated string          `json:"last_updated"`
	DueDate     string          `json:"due_date,omitempty"`
	Tags        []string        `json:"tags"`
	RelatedIDs  []string        `json:"related_ids"`
	History     []EventResponse `json:"history"`
	Body        string          `json:"body,omitempty"`
}

type EventResponse struct {
	ID   string `json:"id"`
	At   string `json:"at"`
	From string `json:"from"`
	To   string `json:"to"`
}

type TransitionResponse struct {
	ID         string             `json:"id"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Path       string             `json:"path"`
	Changed    bool               `json:"changed"`
	WorkEffort WorkEffortResponse `json:"work_effort"`
}

type DescriptorResponse struct {
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title"`
	Status       string   `json:"status,omitempty"`
	HeaderStatus string   `json:"header_status,omitempty"`
	Path         string   `json:"path"`
	ModTime      string   `json:"mod_time"`
	Strategies   []string `json:"strategies"`
}

type FileErrorResponse struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type DiscoverResponse struct {
	WorkEfforts []DescriptorResponse `json:"work_efforts"`
	Errors      []FileErrorResponse  `json:"errors"`
}

type RelatedResponse struct {
	ID       string   `json:"id"`
	Related  []string `json:"related"`
	Dangling []string `json:"dangling"`
}

type HistoryResponse struct {
	ID      string          `json:"id"`
	History []EventResponse `json:"history"`
}

type ChainResponse struct {
	Root     string        `json:"root"`
	Nodes    []string      `json:"nodes"`
	Edges    []record.Edge `json:"edges"`
	Dangling []record.Edge `json:"dangling"`
}

type SearchHitResponse struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Status  string   `json:"status"`
	Path    string   `json:"path"`
	Tags    []string `json:"tags"`
	Rank    float64  `json:"rank"`
	Snippet string   `json:"snippet"`
}

type SearchResponse struct {
	Query string              `json:"query"`
	Hits  []SearchHitResponse `json:"hits"`
}

type RebuildIndexResponse struct {
	Indexed int                 `json:"indexed"`
	Skipped []FileErrorResponse `json:"skipped"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toWorkEffortResponse(rec *record.Record, withBody bool) WorkEffortResponse {
	resp := WorkEffortResponse{
		ID:          rec.ID,
		Title:       rec.Title,
		Status:      string(rec.Status),
		Priority:    string(rec.Priority),
		Assignee:    rec.Assignee,
		CreatedAt:   formatTime(rec.CreatedAt),
		LastUpdated: formatTime(rec.LastUpdated),
		Tags:        nonNil(rec.Tags),
		RelatedIDs:  nonNil(rec.RelatedIDs),
		History:     toEventResponses(rec.History),
	}
	if rec.DueDate != nil {
		resp.DueDate = rec.DueDate.Format(dateLayout)
	}
	if withBody {
		resp.Body = rec.Body
	}
	return resp
}

func toEventResponses(events []record.TransitionEvent) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, EventResponse{
			ID:   ev.ID,
			At:   formatTime(ev.At),
			From: string(ev.From),
			To:   string(ev.To),
		})
	}
	return out
}

func toDescriptorResponses(descs []record.Descriptor) []DescriptorResponse {
	out := make([]DescriptorResponse, 0, len(descs))
	for _, d := range descs {
		out = append(out, DescriptorResponse{
			ID:           d.ID,
			Title:        d.Title,
			Status:       string(d.Status),
			HeaderStatus: string(d.HeaderStatus),
			Path:         d.Path,
			ModTime:      formatTime(d.ModTime),
			Strategies:   nonNil(d.Strategies),
		})
	}
	return out
}

func toFileErrorResponses(errs []record.FileError) []FileErrorResponse {
	out := make([]FileErrorResponse, 0, len(errs))
	for _, fe := range errs {
		msg := ""
		if fe.Err != nil {
			msg = fe.Err.Error()
		}
		out = append(out, FileErrorResponse{Path: fe.Path, Error: msg})
	}
	return out
}

func toSearchHitResponses(hits []repository.SearchHit) []SearchHitResponse {
	out := make([]SearchHitResponse, 0, len(hits))
	for _, h := range hits {
		out = append(out, SearchHitResponse{
			ID:      h.Record.ID,
			Title:   h.Record.Title,
			Status:  string(h.Record.Status),
			Path:    h.Record.Path,
			Tags:    nonNil(h.Record.Tags),
			Rank:    h.Rank,
			Snippet: h.Snippet,
		})
	}
	return out
}

func toRebuildIndexResponse(stats indexer.Stats) RebuildIndexResponse {
	return RebuildIndexResponse{Indexed: stats.Indexed, Skipped: toFileErrorResponses(stats.Skipped)}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
