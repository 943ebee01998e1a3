package record

import "context"

// IDAllocator hands out unique record identifiers.
type IDAllocator interface {
	Next(ctx context.Context) (string, error)
}

// Store reads and writes record files and resolves where a record lives.
type Store interface {
	Load(path string) (*Record, error)
	Save(rec *Record, path string) error
	Create(rec *Record, path string) error
	Locate(root, id string) (Location, error)
	FolderPath(root string, status Status, id, title string) string
}

// Transitioner moves records between status directories.
type Transitioner interface {
	Transition(ctx context.Context, root, id string, to Status) (*TransitionResult, error)
}

// Discoverer finds record files below a set of roots.
type Discoverer interface {
	Discover(ctx context.Context, opts DiscoverOptions) ([]Descriptor, []FileError, error)
}

// Tracer answers relationship and history queries.
type Tracer interface {
	Related(ctx context.Context, id string) (RelatedSet, error)
	History(ctx context.Context, id string) ([]TransitionEvent, error)
	Chain(ctx context.Context, id string) (*Graph, error)
}

// ActivityRepository mirrors transitions into a queryable log.
type ActivityRepository interface {
	Log(ctx context.Context, recordID string, event TransitionEvent) error
}

// BodyRenderer produces the initial body for a new record.
type BodyRenderer func(title string) string
