package tools

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jacentio/trellis-memory/graph"
)

// GraphTools holds references needed by knowledge graph tool handlers.
type GraphTools struct {
	Service *graph.Service
}

// --- Input types ---

type ReadGraphInput struct {
	WorkspaceName string `json:"workspaceName,omitempty" jsonschema:"The unique identifier of the workspace"`
}

type UpsertEntityInput struct {
	WorkspaceName string   `json:"workspaceName,omitempty" jsonschema:"The workspace name for the entity"`
	Name          string   `json:"name,omitempty" jsonschema:"The name of the entity"`
	EntityType    string   `json:"entityType,omitempty" jsonschema:"The type/category of the entity"`
	Observations  []string `json:"observations,omitempty" jsonschema:"List of observations about the entity"`
	Metadata      string   `json:"metadata,omitempty" jsonschema:"Optional metadata as JSON string"`
}

type UpsertRelationInput struct {
	WorkspaceName string `json:"workspaceName,omitempty" jsonschema:"The workspace name for the relation"`
	FromEntityID  string `json:"fromEntityId,omitempty" jsonschema:"The GUID of the source entity"`
	ToEntityID    string `json:"toEntityId,omitempty" jsonschema:"The GUID of the target entity"`
	From          string `json:"from,omitempty" jsonschema:"Legacy source entity name (used if fromEntityId not provided)"`
	To            string `json:"to,omitempty" jsonschema:"Legacy target entity name (used if toEntityId not provided)"`
	RelationType  string `json:"relationType,omitempty" jsonschema:"The type of relationship (e.g., knows, works_with, owns)"`
	Metadata      string `json:"metadata,omitempty" jsonschema:"Optional metadata as JSON string"`
}

type GetEntityRelationsInput struct {
	WorkspaceName string `json:"workspaceName,omitempty" jsonschema:"The workspace identifier"`
	EntityID      string `json:"entityId,omitempty" jsonschema:"The GUID of the entity (preferred)"`
	EntityName    string `json:"entityName,omitempty" jsonschema:"Legacy entity name (used if entityId not provided)"`
}

type DeleteRelationInput struct {
	WorkspaceName string `json:"workspaceName,omitempty" jsonschema:"The workspace identifier"`
	RelationID    string `json:"relationId,omitempty" jsonschema:"The GUID of the relation to delete"`
}

// --- Results ---

type upsertEntityResult struct {
	Success   bool   `json:"success"`
	ID        string `json:"id"`
	Workspace string `json:"workspace"`
	Name      string `json:"name"`
}

type upsertRelationResult struct {
	Success      bool   `json:"success"`
	RelationID   string `json:"relationId"`
	Workspace    string `json:"workspace"`
	FromEntityID string `json:"fromEntityId"`
	ToEntityID   string `json:"toEntityId"`
	RelationType string `json:"relationType"`
}

type entityRelationsResult struct {
	Success       bool             `json:"success"`
	WorkspaceName string           `json:"workspaceName"`
	EntityID      string           `json:"entityId"`
	Relations     []graph.Relation `json:"relations"`
}

type deleteRelationResult struct {
	Success       bool   `json:"success"`
	WorkspaceName string `json:"workspaceName"`
	RelationID    string `json:"relationId"`
}

// --- Handlers ---

func (t *GraphTools) ReadGraph(ctx context.Context, _ *mcp.CallToolRequest, input ReadGraphInput) (*mcp.CallToolResult, any, error) {
	if blank(input.WorkspaceName) {
		return toolFailure("Require workspaceName.")
	}
	g, err := t.Service.ReadGraph(ctx, input.WorkspaceName)
	if err != nil {
		return toolError("Failed to read graph: %v", err), nil, nil
	}
	return toolJSON(g)
}

func (t *GraphTools) UpsertEntity(ctx context.Context, _ *mcp.CallToolRequest, input UpsertEntityInput) (*mcp.CallToolResult, any, error) {
	if blank(input.WorkspaceName) || blank(input.Name) || blank(input.EntityType) {
		return toolFailure("Invalid entity payload. Require workspaceName, name and entityType.")
	}

	entity, err := t.Service.Entities.UpsertEntity(ctx, graph.EntityCandidate{
		WorkspaceName: input.WorkspaceName,
		Name:          input.Name,
		EntityType:    input.EntityType,
		Observations:  input.Observations,
		Metadata:      input.Metadata,
	})
	if err != nil {
		return toolError("Failed to upsert entity: %v", err), nil, nil
	}
	return toolJSON(upsertEntityResult{
		Success:   true,
		ID:        entity.ID,
		Workspace: entity.WorkspaceName,
		Name:      entity.Name,
	})
}

func (t *GraphTools) UpsertRelation(ctx context.Context, _ *mcp.CallToolRequest, input UpsertRelationInput) (*mcp.CallToolResult, any, error) {
	if blank(input.WorkspaceName) || blank(input.RelationType) {
		return toolFailure("Invalid relation payload. Require workspaceName and relationType.")
	}

	from, err := t.Service.Resolver.Resolve(ctx, input.WorkspaceName, graph.EntityRef{ID: input.FromEntityID, Name: input.From})
	if err != nil {
		return toolError("Failed to resolve source entity: %v", err), nil, nil
	}
	switch from.Status {
	case graph.NotFound:
		return toolFailure("Source entity '%s' not found.", input.From)
	case graph.InvalidID:
		return toolFailure("Invalid fromEntityId '%s'. Expected a GUID.", input.FromEntityID)
	}

	to, err := t.Service.Resolver.Resolve(ctx, input.WorkspaceName, graph.EntityRef{ID: input.ToEntityID, Name: input.To})
	if err != nil {
		return toolError("Failed to resolve target entity: %v", err), nil, nil
	}
	switch to.Status {
	case graph.NotFound:
		return toolFailure("Target entity '%s' not found.", input.To)
	case graph.InvalidID:
		return toolFailure("Invalid toEntityId '%s'. Expected a GUID.", input.ToEntityID)
	}

	if from.Status != graph.Resolved || to.Status != graph.Resolved {
		return toolFailure("Invalid relation payload. Provide fromEntityId/toEntityId or from/to names that exist.")
	}

	rel, err := t.Service.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: input.WorkspaceName,
		FromEntityID:  from.ID,
		ToEntityID:    to.ID,
		RelationType:  input.RelationType,
		Metadata:      input.Metadata,
	})
	if err != nil {
		return toolError("Failed to upsert relation: %v", err), nil, nil
	}
	return toolJSON(upsertRelationResult{
		Success:      true,
		RelationID:   rel.ID,
		Workspace:    rel.WorkspaceName,
		FromEntityID: rel.FromEntityID,
		ToEntityID:   rel.ToEntityID,
		RelationType: rel.RelationType,
	})
}

func (t *GraphTools) GetEntityRelations(ctx context.Context, _ *mcp.CallToolRequest, input GetEntityRelationsInput) (*mcp.CallToolResult, any, error) {
	if blank(input.WorkspaceName) {
		return toolFailure("Require workspaceName.")
	}

	ref := graph.EntityRef{ID: input.EntityID, Name: input.EntityName}
	res, relations, err := t.Service.GetEntityRelations(ctx, input.WorkspaceName, ref)
	if err != nil {
		return toolError("Failed to get entity relations: %v", err), nil, nil
	}
	switch res.Status {
	case graph.NotFound:
		return toolFailure("Entity '%s' not found in workspace '%s'.", input.EntityName, input.WorkspaceName)
	case graph.InvalidID:
		return toolFailure("Invalid entityId '%s'. Expected a GUID.", input.EntityID)
	case graph.MissingInput:
		return toolFailure("Provide either entityId (GUID) or entityName.")
	}

	return toolJSON(entityRelationsResult{
		Success:       true,
		WorkspaceName: input.WorkspaceName,
		EntityID:      res.ID,
		Relations:     relations,
	})
}

func (t *GraphTools) DeleteRelation(ctx context.Context, _ *mcp.CallToolRequest, input DeleteRelationInput) (*mcp.CallToolResult, any, error) {
	if blank(input.WorkspaceName) || blank(input.RelationID) {
		return toolFailure("Invalid delete payload. Require workspaceName and relationId.")
	}

	err := t.Service.Relations.DeleteRelation(ctx, input.WorkspaceName, input.RelationID)
	if errors.Is(err, graph.ErrInvalidID) {
		return toolFailure("Invalid relationId '%s'. Expected a GUID.", input.RelationID)
	}
	if err != nil {
		return toolError("Failed to delete relation: %v", err), nil, nil
	}
	return toolJSON(deleteRelationResult{
		Success:       true,
		WorkspaceName: input.WorkspaceName,
		RelationID:    input.RelationID,
	})
}
