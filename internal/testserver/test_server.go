// Package testserver runs a workefforts MCP server over HTTP for tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/workefforts/internal/app"
	"github.com/rpggio/workefforts/internal/config"
	"github.com/rpggio/workefforts/internal/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	Root   string
}

// New starts a server rooted at a fresh temporary directory.
func New(t *testing.T) *TestServer {
	t.Helper()

	root := t.TempDir()
	a, err := app.New(config.Config{
		Root:        root,
		MarkerDir:   "work_efforts",
		LockTimeout: time.Second,
	}, nil)
	require.NoError(t, err)

	server := mcp.NewServer(mcp.Config{
		Records:   a.Records,
		Index:     a.Index,
		Reindexer: a,
	})
	httpServer := httptest.NewServer(mcp.NewHTTPHandler(server))

	t.Cleanup(func() {
		httpServer.Close()
		_ = a.Close()
	})

	return &TestServer{Server: httpServer, App: a, Root: a.Config.Root}
}

// Connect opens an MCP client session against the server's /mcp endpoint.
func (ts *TestServer) Connect(t *testing.T) *sdkmcp.ClientSession {
	t.Helper()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint: ts.Server.URL + "/mcp",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}
