package mocks

import (
	"context"

	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/repository"
	"github.com/stretchr/testify/mock"
)

// IDAllocator is a mock for record.IDAllocator.
type IDAllocator struct {
	mock.Mock
}

func (m *IDAllocator) Next(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Store is a mock for record.Store.
type Store struct {
	mock.Mock
}

func (m *Store) Load(path string) (*record.Record, error) {
	args := m.Called(path)
	if rec, ok := args.Get(0).(*record.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Save(rec *record.Record, path string) error {
	args := m.Called(rec, path)
	return args.Error(0)
}

func (m *Store) Create(rec *record.Record, path string) error {
	args := m.Called(rec, path)
	return args.Error(0)
}

func (m *Store) Locate(root, id string) (record.Location, error) {
	args := m.Called(root, id)
	return args.Get(0).(record.Location), args.Error(1)
}

func (m *Store) FolderPath(root string, status record.Status, id, title string) string {
	args := m.Called(root, status, id, title)
	return args.String(0)
}

// Transitioner is a mock for record.Transitioner.
type Transitioner struct {
	mock.Mock
}

func (m *Transitioner) Transition(ctx context.Context, root, id string, to record.Status) (*record.TransitionResult, error) {
	args := m.Called(ctx, root, id, to)
	if res, ok := args.Get(0).(*record.TransitionResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// Discoverer is a mock for record.Discoverer.
type Discoverer struct {
	mock.Mock
}

func (m *Discoverer) Discover(ctx context.Context, opts record.DiscoverOptions) ([]record.Descriptor, []record.FileError, error) {
	args := m.Called(ctx, opts)
	descs, _ := args.Get(0).([]record.Descriptor)
	fileErrs, _ := args.Get(1).([]record.FileError)
	return descs, fileErrs, args.Error(2)
}

// Tracer is a mock for record.Tracer.
type Tracer struct {
	mock.Mock
}

func (m *Tracer) Related(ctx context.Context, id string) (record.RelatedSet, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(record.RelatedSet), args.Error(1)
}

func (m *Tracer) History(ctx context.Context, id string) ([]record.TransitionEvent, error) {
	args := m.Called(ctx, id)
	if events, ok := args.Get(0).([]record.TransitionEvent); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Tracer) Chain(ctx context.Context, id string) (*record.Graph, error) {
	args := m.Called(ctx, id)
	if graph, ok := args.Get(0).(*record.Graph); ok {
		return graph, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, recordID string, event record.TransitionEvent) error {
	args := m.Called(ctx, recordID, event)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts repository.ListActivityOptions) ([]repository.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]repository.ActivityEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// IndexRepository is a mock for repository.IndexRepository.
type IndexRepository struct {
	mock.Mock
}

func (m *IndexRepository) Replace(ctx context.Context, records []repository.IndexedRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *IndexRepository) Search(ctx context.Context, query string, limit int) ([]repository.SearchHit, error) {
	args := m.Called(ctx, query, limit)
	if hits, ok := args.Get(0).([]repository.SearchHit); ok {
		return hits, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *IndexRepository) Get(ctx context.Context, id string) (*repository.IndexedRecord, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*repository.IndexedRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}
