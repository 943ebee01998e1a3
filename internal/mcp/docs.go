package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `workefforts tracks units of work as Markdown files on disk.

Core concepts:
- Work effort: one Markdown file with a YAML header (id, title, status, priority, assignee, dates, tags, related_ids, history) and a free-form body.
- Status: active, paused, completed or archived. The directory a work effort lives in is the source of truth; the header is kept in step.
- Id: allocated from a shared counter, "0001" upwards. Ids are never reused.
- References: related_ids in the header plus [[wiki]] links in the body. A reference to something that does not exist is reported as dangling, never as an error.

Workflow:
1) Orient: discover_work_efforts (standard mode) lists what exists, newest first.
2) Read: get_work_effort for the body; get_related / get_chain to follow references; get_history for status changes.
3) Write: create_work_effort, then transition_work_effort as work moves along. Transitions to the current status are no-ops unless strict is set.
4) Search: search_work_efforts (set reindex after bulk edits).

Docs:
- workefforts://docs/layout (directory layout and header fields)
- workefforts://docs/errors (error codes and what to do about them)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "workefforts://docs/layout",
		Name:        "docs_layout",
		Title:       "Work effort layout",
		Description: "Where work effort files live and what their header contains.",
		Content: `# Layout

Work efforts live below a root directory, one directory per status:

    <root>/active/0001_fix-login-bug/0001_fix-login-bug.md
    <root>/completed/0002_write-docs/0002_write-docs.md

The folder may hold other files (notes, screenshots); they move with the work effort.
A flat file directly in a status directory (<root>/paused/0003_old.md) is also read,
and is migrated into folder form on its next transition.

Inside larger projects the status directories may sit below a marker directory
(default work_efforts): <project>/work_efforts/active/...

## Header

    ---
    id: "0001"
    title: Fix login bug
    status: active
    priority: high
    assignee: dana
    created_at: 2026-03-17T09:30:00Z
    last_updated: 2026-03-17T10:30:00Z
    due_date: 2026-04-01
    tags: [auth, bug]
    related_ids: ["0002"]
    history:
      - {id: ..., at: ..., from: paused, to: active}
    ---

title and status are required. Everything else has a default.
`,
	},
	{
		URI:         "workefforts://docs/errors",
		Name:        "docs_errors",
		Title:       "Error codes",
		Description: "Stable error codes returned by the tools.",
		Content: `# Error codes

- NOT_FOUND: no work effort with that id, stem or title. Run discover_work_efforts.
- PARSE_ERROR: the file exists but its header is malformed. Fix the file by hand.
- ALREADY_IN_STATE: a strict transition targeted the current status.
- LOCK_CONTENTION: another process is transitioning the same work effort. Retry.
- COUNTER_UNAVAILABLE: another process holds the id counter. Retry.
- READ_ERROR: the file or directory exists but could not be read, usually permissions.
- WRITE_ERROR: the filesystem refused a write or move. The work effort is left as it was.
- INVALID_INPUT: an argument is missing or out of range.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
