// Package tracer answers relationship and history queries over records.
//
// Relations come from a record's related_ids and from wiki-style links in its
// body. A reference that resolves to no known record is dangling: it is kept
// on the result and never fails the query.
package tracer

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/filestore"
)

// Options configures the record set a Tracer resolves references against.
type Options struct {
	Roots     []string
	Mode      record.DiscoveryMode
	MarkerDir string
	Logger    *slog.Logger
}

// Tracer implements record.Tracer on top of discovery output and the store.
type Tracer struct {
	discovery record.Discoverer
	store     record.Store
	opts      record.DiscoverOptions
	logger    *slog.Logger
}

// New creates a tracer. Each query re-indexes the roots, so results always
// reflect the filesystem at call time.
func New(discovery record.Discoverer, store record.Store, opts Options) *Tracer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tracer{
		discovery: discovery,
		store:     store,
		opts:      record.DiscoverOptions{Roots: opts.Roots, Mode: opts.Mode, MarkerDir: opts.MarkerDir},
		logger:    logger,
	}
}

type entry struct {
	key  string
	desc record.Descriptor
	rec  *record.Record
}

// index resolves references to entries and loads records on first use.
type index struct {
	store   record.Store
	logger  *slog.Logger
	byID    map[string]*entry
	byStem  map[string]*entry
	byTitle map[string]*entry
}

func (t *Tracer) index(ctx context.Context) (*index, error) {
	descs, fileErrs, err := t.discovery.Discover(ctx, t.opts)
	if err != nil {
		return nil, err
	}
	for _, fe := range fileErrs {
		t.logger.Debug("tracer skipped file", "path", fe.Path, "error", fe.Err)
	}

	idx := &index{
		store:   t.store,
		logger:  t.logger,
		byID:    make(map[string]*entry),
		byStem:  make(map[string]*entry),
		byTitle: make(map[string]*entry),
	}
	for _, d := range descs {
		stem := strings.TrimSuffix(filepath.Base(d.Path), filestore.Ext)
		e := &entry{key: d.ID, desc: d}
		if e.key == "" {
			e.key = stem
		}
		// Descriptors arrive most recent first; the first claim wins.
		if _, ok := idx.byID[e.key]; !ok {
			idx.byID[e.key] = e
		}
		if _, ok := idx.byStem[strings.ToLower(stem)]; !ok {
			idx.byStem[strings.ToLower(stem)] = e
		}
		if title := strings.ToLower(strings.TrimSpace(d.Title)); title != "" {
			if _, ok := idx.byTitle[title]; !ok {
				idx.byTitle[title] = e
			}
		}
	}
	return idx, nil
}

// resolve maps a reference to a record by id, then folder or file stem, then
// case-insensitive title.
func (idx *index) resolve(ref string) (*entry, bool) {
	ref = strings.TrimSpace(ref)
	if e, ok := idx.byID[ref]; ok {
		return e, true
	}
	lower := strings.ToLower(ref)
	if e, ok := idx.byStem[strings.TrimSuffix(lower, filestore.Ext)]; ok {
		return e, true
	}
	if id, _, ok := filestore.ParseName(ref); ok {
		if e, ok := idx.byID[id]; ok {
			return e, true
		}
	}
	e, ok := idx.byTitle[lower]
	return e, ok
}

func (idx *index) load(e *entry) (*record.Record, error) {
	if e.rec != nil {
		return e.rec, nil
	}
	rec, err := idx.store.Load(e.desc.Path)
	if err != nil {
		return nil, err
	}
	e.rec = rec
	return rec, nil
}

// neighbours returns the resolved relations of e and the references that
// resolved to nothing. Self references are ignored.
func (idx *index) neighbours(e *entry) ([]*entry, []string, error) {
	rec, err := idx.load(e)
	if err != nil {
		return nil, nil, err
	}

	refs := append(slices.Clone(rec.RelatedIDs), Links(rec.Body)...)
	var (
		found    []*entry
		dangling []string
		seen     = make(map[string]bool)
	)
	for _, ref := range refs {
		target, ok := idx.resolve(ref)
		if !ok {
			if !slices.Contains(dangling, ref) {
				dangling = append(dangling, ref)
			}
			continue
		}
		if target == e || seen[target.key] {
			continue
		}
		seen[target.key] = true
		found = append(found, target)
	}
	return found, dangling, nil
}

func (t *Tracer) root(ctx context.Context, op, id string) (*index, *entry, error) {
	idx, err := t.index(ctx)
	if err != nil {
		return nil, nil, err
	}
	e, ok := idx.resolve(id)
	if !ok {
		return nil, nil, record.NewError(record.ErrNotFound, op, id, "", nil)
	}
	return idx, e, nil
}

// Related returns the direct relations of id.
func (t *Tracer) Related(ctx context.Context, id string) (record.RelatedSet, error) {
	idx, e, err := t.root(ctx, "related", id)
	if err != nil {
		return record.RelatedSet{}, err
	}
	found, dangling, err := idx.neighbours(e)
	if err != nil {
		return record.RelatedSet{}, err
	}

	set := record.RelatedSet{IDs: make([]string, 0, len(found)), Dangling: []string{}}
	for _, n := range found {
		set.IDs = append(set.IDs, n.key)
	}
	slices.SortFunc(set.IDs, record.CompareIDs)
	set.Dangling = append(set.Dangling, dangling...)
	return set, nil
}

// History returns the persisted transitions of id, oldest first.
func (t *Tracer) History(ctx context.Context, id string) ([]record.TransitionEvent, error) {
	idx, e, err := t.root(ctx, "history", id)
	if err != nil {
		return nil, err
	}
	rec, err := idx.load(e)
	if err != nil {
		return nil, err
	}
	if rec.History == nil {
		return []record.TransitionEvent{}, nil
	}
	return rec.History, nil
}

// Chain walks relations breadth first from id. Every reachable record is
// visited exactly once, so cycles terminate the walk instead of looping.
func (t *Tracer) Chain(ctx context.Context, id string) (*record.Graph, error) {
	idx, start, err := t.root(ctx, "chain", id)
	if err != nil {
		return nil, err
	}

	graph := &record.Graph{
		Root:     start.key,
		Nodes:    []string{start.key},
		Edges:    []record.Edge{},
		Dangling: []record.Edge{},
	}
	visited := map[string]bool{start.key: true}
	queue := []*entry{start}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		found, dangling, err := idx.neighbours(current)
		if err != nil {
			if current == start {
				return nil, err
			}
			// A record that vanished or broke mid-walk is a dead end, not a failure.
			t.logger.Debug("chain skipped record", "id", current.key, "error", err)
			continue
		}
		for _, ref := range dangling {
			graph.Dangling = append(graph.Dangling, record.Edge{From: current.key, To: ref})
		}
		for _, n := range found {
			graph.Edges = append(graph.Edges, record.Edge{From: current.key, To: n.key})
			if visited[n.key] {
				continue
			}
			visited[n.key] = true
			graph.Nodes = append(graph.Nodes, n.key)
			queue = append(queue, n)
		}
	}
	return graph, nil
}
