package record

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// timeNow is replaced in tests to freeze time.
var timeNow = time.Now

// Service handles record business logic on top of the filesystem components.
type Service struct {
	root        string
	markerDir   string
	ids         IDAllocator
	store       Store
	transitions Transitioner
	discovery   Discoverer
	tracer      Tracer
	activities  ActivityRepository
	render      BodyRenderer
	logger      *slog.Logger
}

// NewService creates a new record service rooted at root.
func NewService(
	root string,
	ids IDAllocator,
	store Store,
	transitions Transitioner,
	discovery Discoverer,
	tracer Tracer,
	activities ActivityRepository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		root:        root,
		ids:         ids,
		store:       store,
		transitions: transitions,
		discovery:   discovery,
		tracer:      tracer,
		activities:  activities,
		logger:      logger,
	}
}

// WithRenderer sets the template renderer used for new record bodies.
func (s *Service) WithRenderer(render BodyRenderer) *Service {
	s.render = render
	return s
}

// WithMarkerDir sets the marker directory name passed to discovery.
func (s *Service) WithMarkerDir(name string) *Service {
	s.markerDir = name
	return s
}

// Root returns the directory records are created under.
func (s *Service) Root() string {
	return s.root
}

// Create allocates an id and writes a new active record in folder form.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Record, error) {
	if err := ValidateCreateInput(req); err != nil {
		return nil, err
	}

	id, err := s.ids.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocating id: %w", err)
	}

	body := req.Body
	if body == "" && s.render != nil {
		body = s.render(strings.TrimSpace(req.Title))
	}

	now := timeNow().UTC()
	rec := &Record{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Status:      StatusActive,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		CreatedAt:   now,
		LastUpdated: now,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		RelatedIDs:  req.RelatedIDs,
		Body:        body,
	}
	rec.Normalize()

	path := s.store.FolderPath(s.root, rec.Status, rec.ID, rec.Title)
	if err := s.store.Create(rec, path); err != nil {
		return nil, fmt.Errorf("creating record: %w", err)
	}

	s.logger.Info("record created", "id", rec.ID, "path", path)
	return rec, nil
}

// Get loads a record by id. The status reported is the one encoded by the
// directory the record lives in.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	loc, err := s.store.Locate(s.root, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.store.Load(loc.Path)
	if err != nil {
		return nil, err
	}
	if rec.Status != loc.Status {
		s.logger.Warn("header status disagrees with directory", "id", id, "header", rec.Status, "directory", loc.Status)
		rec.Status = loc.Status
	}
	return rec, nil
}

// Transition moves a record to a new status.
func (s *Service) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if err := ValidateTransition(req); err != nil {
		return nil, err
	}

	result, err := s.transitions.Transition(ctx, s.root, req.ID, req.To)
	if err != nil {
		return nil, err
	}

	if !result.Changed {
		if req.Strict {
			return result, NewError(ErrAlreadyInState, "transition", req.ID, result.Path, nil)
		}
		return result, nil
	}

	s.logger.Info("record transitioned", "id", req.ID, "from", result.From, "to", result.To, "path", result.Path)

	if s.activities != nil && result.Record != nil && len(result.Record.History) > 0 {
		event := result.Record.History[len(result.Record.History)-1]
		if err := s.activities.Log(ctx, req.ID, event); err != nil {
			s.logger.Warn("failed to log transition activity", "id", req.ID, "error", err)
		}
	}

	return result, nil
}

// Discover lists every record below the configured roots.
func (s *Service) Discover(ctx context.Context, opts DiscoverOptions) ([]Descriptor, []FileError, error) {
	if len(opts.Roots) == 0 {
		opts.Roots = []string{s.root}
	}
	if opts.Mode == "" {
		opts.Mode = ModeStandard
	}
	if opts.MarkerDir == "" {
		opts.MarkerDir = s.markerDir
	}
	descriptors, fileErrs, err := s.discovery.Discover(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("discovering records: %w", err)
	}
	for _, fe := range fileErrs {
		s.logger.Debug("discovery skipped file", "path", fe.Path, "error", fe.Err)
	}
	return descriptors, fileErrs, nil
}

// Related returns the ids a record links to.
func (s *Service) Related(ctx context.Context, id string) (RelatedSet, error) {
	if s.tracer == nil {
		return RelatedSet{}, errors.New("tracer not configured")
	}
	return s.tracer.Related(ctx, id)
}

// History returns a record's status transitions, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]TransitionEvent, error) {
	if s.tracer == nil {
		return nil, errors.New("tracer not configured")
	}
	return s.tracer.History(ctx, id)
}

// Chain returns the relation graph reachable from a record.
func (s *Service) Chain(ctx context.Context, id string) (*Graph, error) {
	if s.tracer == nil {
		return nil, errors.New("tracer not configured")
	}
	return s.tracer.Chain(ctx, id)
}
