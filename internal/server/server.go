package server

import (
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jacentio/trellis-memory/graph"
	"github.com/jacentio/trellis-memory/internal/tools"
)

// Version is reported to MCP clients during initialization.
var Version = "0.1.0"

// New creates a fully configured MCP server with all tools registered.
func New(svc *graph.Service, logger *slog.Logger) *mcp.Server {
	if logger == nil {
		logger = slog.Default()
	}

	gt := &tools.GraphTools{Service: svc}
	wt := &tools.WorkspaceTools{Workspaces: svc.Workspaces}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "trellis-memory",
		Version: Version,
	}, nil)

	// Knowledge graph tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "read_graph",
		Description: "Reads the entire knowledge graph (entities and relations) for a workspace.",
	}, gt.ReadGraph)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upsert_entity",
		Description: "Creates or updates an entity in the knowledge graph.",
	}, gt.UpsertEntity)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upsert_relation",
		Description: "Creates or updates a relation between two entities in the knowledge graph.",
	}, gt.UpsertRelation)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_entity_relations",
		Description: "Gets all relations originating from a specific entity.",
	}, gt.GetEntityRelations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_relation",
		Description: "Deletes a relation by identifier. Deleting a missing relation succeeds.",
	}, gt.DeleteRelation)

	// Workspace registry tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upsert_workspace",
		Description: "Creates or updates a workspace, keeping its identifier and creation time.",
	}, wt.UpsertWorkspace)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_workspaces",
		Description: "Lists every registered workspace.",
	}, wt.ListWorkspaces)

	logger.Debug("mcp server configured", "name", "trellis-memory", "version", Version)
	return srv
}

// Handler serves the MCP streamable HTTP transport on /mcp and the probe
// endpoints /health and /ready.
func Handler(srv *mcp.Server, svc *graph.Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if err := svc.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("NOT READY"))
			return
		}
		_, _ = w.Write([]byte("READY"))
	})
	return mux
}
