package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jacentio/trellis-memory/graph"
)

// WorkspaceTools holds references needed by workspace registry tool handlers.
type WorkspaceTools struct {
	Workspaces *graph.WorkspaceStore
}

type UpsertWorkspaceInput struct {
	Name        string `json:"name,omitempty" jsonschema:"The workspace name (case-insensitive)"`
	Description string `json:"description,omitempty" jsonschema:"Optional description of the workspace"`
}

type ListWorkspacesInput struct{}

type upsertWorkspaceResult struct {
	Success   bool            `json:"success"`
	Workspace graph.Workspace `json:"workspace"`
}

type listWorkspacesResult struct {
	Success    bool              `json:"success"`
	Workspaces []graph.Workspace `json:"workspaces"`
}

func (t *WorkspaceTools) UpsertWorkspace(ctx context.Context, _ *mcp.CallToolRequest, input UpsertWorkspaceInput) (*mcp.CallToolResult, any, error) {
	if blank(input.Name) {
		return toolFailure("Invalid workspace payload. Require name.")
	}
	ws, err := t.Workspaces.UpsertWorkspace(ctx, input.Name, input.Description)
	if err != nil {
		return toolError("Failed to upsert workspace: %v", err), nil, nil
	}
	return toolJSON(upsertWorkspaceResult{Success: true, Workspace: ws})
}

func (t *WorkspaceTools) ListWorkspaces(ctx context.Context, _ *mcp.CallToolRequest, _ ListWorkspacesInput) (*mcp.CallToolResult, any, error) {
	list, err := t.Workspaces.ListWorkspaces(ctx)
	if err != nil {
		return toolError("Failed to list workspaces: %v", err), nil, nil
	}
	return toolJSON(listWorkspacesResult{Success: true, Workspaces: list})
}
