package record

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle bucket of a record. It is both a header field and
// the name of the directory the record lives in.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Statuses lists every status in directory lookup order.
var Statuses = []Status{StatusActive, StatusPaused, StatusCompleted, StatusArchived}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// ParseStatus normalizes and validates a status string.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// Priority ranks how urgent a record is.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return slices.Contains(priorities, p)
}

// ParsePriority normalizes a priority string. Empty input yields the default.
func ParsePriority(v string) (Priority, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return DefaultPriority, nil
	}
	p := Priority(v)
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

const (
	DefaultPriority = PriorityMedium
	DefaultAssignee = "unassigned"
)

// TransitionEvent is one entry of a record's status history.
type TransitionEvent struct {
	ID   string    `json:"id" yaml:"id"`
	At   time.Time `json:"at" yaml:"at"`
	From Status    `json:"from" yaml:"from"`
	To   Status    `json:"to" yaml:"to"`
}

// Record is a single work effort: structured metadata plus a free-form body.
type Record struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Status      Status            `json:"status"`
	Priority    Priority          `json:"priority"`
	Assignee    string            `json:"assignee"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUpdated time.Time         `json:"last_updated"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Tags        []string          `json:"tags"`
	RelatedIDs  []string          `json:"related_ids"`
	History     []TransitionEvent `json:"history"`
	Body        string            `json:"body"`
}

// Normalize fills defaults and canonicalizes set-like fields in place.
// Timestamps are stored in UTC; the due date keeps its calendar day.
func (r *Record) Normalize() {
	r.CreatedAt = r.CreatedAt.UTC()
	r.LastUpdated = r.LastUpdated.UTC()
	if r.DueDate != nil {
		y, m, d := r.DueDate.Date()
		due := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		r.DueDate = &due
	}
	for i := range r.History {
		r.History[i].At = r.History[i].At.UTC()
	}
	if r.Priority == "" {
		r.Priority = DefaultPriority
	}
	if strings.TrimSpace(r.Assignee) == "" {
		r.Assignee = DefaultAssignee
	}
	r.Tags = normalizeTags(r.Tags)
	if r.RelatedIDs == nil {
		r.RelatedIDs = []string{}
	}
	if r.History == nil {
		r.History = []TransitionEvent{}
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// Descriptor is the normalized summary discovery produces for one record file.
type Descriptor struct {
	Path         string    `json:"path"`
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title"`
	Status       Status    `json:"status,omitempty"`
	HeaderStatus Status    `json:"header_status,omitempty"`
	ModTime      time.Time `json:"mod_time"`
	Strategies   []string  `json:"strategies"`
}

// CompareIDs orders identifiers numerically where possible so "10000" sorts
// after "9999". Date-prefixed ids compare by date, then sequence.
func CompareIDs(a, b string) int {
	pa, pb := idParts(a), idParts(b)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, errA := strconv.ParseInt(pa[i], 10, 64)
		nb, errB := strconv.ParseInt(pb[i], 10, 64)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		default:
			if c := strings.Compare(pa[i], pb[i]); c != 0 {
				return c
			}
		}
	}
	return len(pa) - len(pb)
}

func idParts(id string) []string {
	return strings.Split(id, "_")
}
