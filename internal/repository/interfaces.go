package repository

import (
	"context"
	"time"

	"github.com/rpggio/workefforts/internal/domain/record"
)

// IndexedRecord is the searchable projection of a record file
type IndexedRecord struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Status   record.Status `json:"status"`
	Priority string        `json:"priority,omitempty"`
	Assignee string        `json:"assignee,omitempty"`
	Tags     []string      `json:"tags"`
	Path     string        `json:"path"`
	ModTime  time.Time     `json:"mod_time"`
	Body     string        `json:"-"`
}

// SearchHit is a ranked full-text match
type SearchHit struct {
	Record  IndexedRecord `json:"record"`
	Rank    float64       `json:"rank"`
	Snippet string        `json:"snippet"`
}

// ActivityEntry is a logged status transition
type ActivityEntry struct {
	EventID  string        `json:"event_id"`
	RecordID string        `json:"record_id"`
	From     record.Status `json:"from"`
	To       record.Status `json:"to"`
	At       time.Time     `json:"at"`
}

// ListActivityOptions provides filtering options for listing activity
type ListActivityOptions struct {
	RecordID string
	Limit    int
}

// IndexRepository manages the search index over record files
type IndexRepository interface {
	Replace(ctx context.Context, records []IndexedRecord) error
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Get(ctx context.Context, id string) (*IndexedRecord, error)
}

// ActivityRepository manages the transition log
type ActivityRepository interface {
	Log(ctx context.Context, recordID string, event record.TransitionEvent) error
	List(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error)
}
