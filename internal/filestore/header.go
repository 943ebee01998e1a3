package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/workefforts/internal/domain/record"
	"gopkg.in/yaml.v3"
)

const (
	headerFence = "---"
	dateLayout  = "2006-01-02"
)

// ErrNoHeader indicates the file does not start with a header block.
var ErrNoHeader = errors.New("missing header block")

// header is the on-disk shape of the header block.
type header struct {
	ID          string         `yaml:"id"`
	Title       string         `yaml:"title"`
	Status      string         `yaml:"status"`
	Priority    string         `yaml:"priority"`
	Assignee    string         `yaml:"assignee"`
	CreatedAt   string         `yaml:"created_at"`
	LastUpdated string         `yaml:"last_updated"`
	DueDate     string         `yaml:"due_date,omitempty"`
	Tags        stringList     `yaml:"tags"`
	RelatedIDs  stringList     `yaml:"related_ids"`
	History     []historyEntry `yaml:"history"`
}

type historyEntry struct {
	ID   string `yaml:"id"`
	At   string `yaml:"at"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// stringList accepts either a YAML sequence or a comma separated scalar, so
// hand-edited headers like `tags: api, auth` still load.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || strings.TrimSpace(node.Value) == "" {
			*l = stringList{}
			return nil
		}
		parts := strings.Split(node.Value, ",")
		out := make(stringList, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		out := make(stringList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a string item", item.Line)
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a list", node.Line)
	}
}

// SplitHeader separates the header block from the body. The body starts after
// the closing fence, minus the single blank line Marshal writes there.
func SplitHeader(data []byte) (head []byte, body string, err error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	first, rest, ok := strings.Cut(text, "\n")
	if !ok || strings.TrimRight(first, "\r") != headerFence {
		return nil, "", ErrNoHeader
	}

	offset := 0
	for {
		line, next, found := strings.Cut(rest[offset:], "\n")
		trimmed := strings.TrimRight(line, "\r")
		if trimmed == headerFence || trimmed == "..." {
			head = []byte(rest[:offset])
			if found {
				body = next
			}
			body = strings.TrimPrefix(body, "\r\n")
			body = strings.TrimPrefix(body, "\n")
			return head, body, nil
		}
		if !found {
			return nil, "", fmt.Errorf("%w: unterminated header", ErrNoHeader)
		}
		offset += len(line) + 1
	}
}

// Parse decodes a record file. A missing title or an unparsable status is an
// error rather than a default so records are never misfiled.
func Parse(data []byte) (*record.Record, error) {
	head, body, err := SplitHeader(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", record.ErrParse, err)
	}

	var h header
	if err := yaml.Unmarshal(head, &h); err != nil {
		return nil, fmt.Errorf("%w: %w", record.ErrParse, err)
	}

	rec, err := h.toRecord()
	if err != nil {
		return nil, err
	}
	rec.Body = body
	return rec, nil
}

func (h header) toRecord() (*record.Record, error) {
	if strings.TrimSpace(h.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", record.ErrParse)
	}
	status, err := record.ParseStatus(h.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid status %q", record.ErrParse, h.Status)
	}
	priority, err := record.ParsePriority(h.Priority)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid priority %q", record.ErrParse, h.Priority)
	}

	rec := &record.Record{
		ID:         strings.TrimSpace(h.ID),
		Title:      h.Title,
		Status:     status,
		Priority:   priority,
		Assignee:   h.Assignee,
		Tags:       []string(h.Tags),
		RelatedIDs: []string(h.RelatedIDs),
	}

	if rec.CreatedAt, err = parseTime(h.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: created_at: %w", record.ErrParse, err)
	}
	if rec.LastUpdated, err = parseTime(h.LastUpdated); err != nil {
		return nil, fmt.Errorf("%w: last_updated: %w", record.ErrParse, err)
	}
	if strings.TrimSpace(h.DueDate) != "" {
		due, err := time.Parse(dateLayout, strings.TrimSpace(h.DueDate))
		if err != nil {
			return nil, fmt.Errorf("%w: due_date: %w", record.ErrParse, err)
		}
		rec.DueDate = &due
	}

	rec.History = make([]record.TransitionEvent, 0, len(h.History))
	for i, entry := range h.History {
		at, err := parseTime(entry.At)
		if err != nil {
			return nil, fmt.Errorf("%w: history[%d]: %w", record.ErrParse, i, err)
		}
		from, errFrom := record.ParseStatus(entry.From)
		to, errTo := record.ParseStatus(entry.To)
		if errFrom != nil || errTo != nil {
			return nil, fmt.Errorf("%w: history[%d]: invalid status", record.ErrParse, i)
		}
		rec.History = append(rec.History, record.TransitionEvent{ID: entry.ID, At: at, From: from, To: to})
	}

	rec.Normalize()
	return rec, nil
}

// Marshal encodes a record as a header block followed by its body.
func Marshal(rec *record.Record) ([]byte, error) {
	h := header{
		ID:          rec.ID,
		Title:       rec.Title,
		Status:      string(rec.Status),
		Priority:    string(rec.Priority),
		Assignee:    rec.Assignee,
		CreatedAt:   formatTime(rec.CreatedAt),
		LastUpdated: formatTime(rec.LastUpdated),
		Tags:        stringList(nonNil(rec.Tags)),
		RelatedIDs:  stringList(nonNil(rec.RelatedIDs)),
		History:     make([]historyEntry, 0, len(rec.History)),
	}
	if rec.DueDate != nil {
		h.DueDate = rec.DueDate.Format(dateLayout)
	}
	for _, ev := range rec.History {
		h.History = append(h.History, historyEntry{
			ID:   ev.ID,
			At:   formatTime(ev.At),
			From: string(ev.From),
			To:   string(ev.To),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(headerFence + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}
	buf.WriteString(headerFence + "\n\n")
	buf.WriteString(rec.Body)
	return buf.Bytes(), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

func parseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
