package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/workefforts/internal/domain/record"
	"github.com/rpggio/workefforts/internal/indexer"
	"github.com/rpggio/workefforts/internal/repository"
)

// Version is reported to clients during initialization.
const Version = "0.1.0"

// RecordService defines record operations needed by MCP.
type RecordService interface {
	Create(ctx context.Context, req record.CreateRequest) (*record.Record, error)
	Get(ctx context.Context, id string) (*record.Record, error)
	Transition(ctx context.Context, req record.TransitionRequest) (*record.TransitionResult, error)
	Discover(ctx context.Context, opts record.DiscoverOptions) ([]record.Descriptor, []record.FileError, error)
	Related(ctx context.Context, id string) (record.RelatedSet, error)
	History(ctx context.Context, id string) ([]record.TransitionEvent, error)
	Chain(ctx context.Context, id string) (*record.Graph, error)
}

// SearchIndex defines the full-text queries needed by MCP.
type SearchIndex interface {
	Search(ctx context.Context, query string, limit int) ([]repository.SearchHit, error)
}

// Reindexer rebuilds the search index from the record files.
type Reindexer interface {
	Reindex(ctx context.Context) (indexer.Stats, error)
}

// Config contains server configuration.
type Config struct {
	Records RecordService
	// Index and Reindexer are optional; the search tools are only
	// registered when both are set.
	Index     SearchIndex
	Reindexer Reindexer
	Logger    *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "workefforts",
		Version: Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg)

	return server
}
