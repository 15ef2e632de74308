package graph

import "time"

// Entity is a named, typed node.
type Entity struct {
	ID            string   `json:"id"`
	WorkspaceName string   `json:"workspaceName"`
	Name          string   `json:"name"`
	EntityType    string   `json:"entityType"`
	Observations  []string `json:"observations"`
	Metadata      string   `json:"metadata,omitempty"`
}

// EntityCandidate is an entity whose identifier has not been resolved yet.
type EntityCandidate struct {
	WorkspaceName string
	Name          string
	EntityType    string
	Observations  []string
	Metadata      string
}

func (c EntityCandidate) valid() bool {
	return c.WorkspaceName != "" && c.Name != "" && c.EntityType != ""
}

// withID produces the stored entity. The observation slice is copied so the
// caller's slice cannot alias the result.
func (c EntityCandidate) withID(id string) Entity {
	obs := make([]string, len(c.Observations))
	copy(obs, c.Observations)
	return Entity{
		ID:            id,
		WorkspaceName: c.WorkspaceName,
		Name:          c.Name,
		EntityType:    c.EntityType,
		Observations:  obs,
		Metadata:      c.Metadata,
	}
}

// Relation is a directed, typed edge between two entity identifiers.
type Relation struct {
	ID            string `json:"id"`
	WorkspaceName string `json:"workspaceName"`
	FromEntityID  string `json:"fromEntityId"`
	ToEntityID    string `json:"toEntityId"`
	RelationType  string `json:"relationType"`
	Metadata      string `json:"metadata,omitempty"`
}

// RelationCandidate is a relation whose identifier has not been resolved yet.
// Endpoint identifiers may be dashed or compact UUIDs.
type RelationCandidate struct {
	WorkspaceName string
	FromEntityID  string
	ToEntityID    string
	RelationType  string
	Metadata      string
}

func (c RelationCandidate) withID(id string) Relation {
	return Relation{
		ID:            id,
		WorkspaceName: c.WorkspaceName,
		FromEntityID:  c.FromEntityID,
		ToEntityID:    c.ToEntityID,
		RelationType:  c.RelationType,
		Metadata:      c.Metadata,
	}
}

// Workspace is a tenant namespace.
type Workspace struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// Graph is the composite view of one workspace.
type Graph struct {
	WorkspaceName string     `json:"workspaceName"`
	Entities      []Entity   `json:"entities"`
	Relations     []Relation `json:"relations"`
}
