package graph

import (
	"context"

	"github.com/jacentio/trellis-memory/internal/keys"
)

// EntityRef addresses an entity either by identifier or by name.
// A non-empty, non-nil ID takes precedence over Name.
type EntityRef struct {
	ID   string
	Name string
}

// ResolutionStatus tags the outcome of resolving an EntityRef.
type ResolutionStatus int

const (
	// Resolved means ID holds a usable entity identifier.
	Resolved ResolutionStatus = iota

	// NotFound means a name was given but no entity in the workspace has it.
	NotFound

	// MissingInput means neither an identifier nor a name was given.
	MissingInput

	// InvalidID means the identifier was present but not a UUID.
	InvalidID
)

func (s ResolutionStatus) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case NotFound:
		return "not_found"
	case MissingInput:
		return "missing_input"
	case InvalidID:
		return "invalid_id"
	}
	return "unknown"
}

// Resolution is the result of resolving an EntityRef.
type Resolution struct {
	Status ResolutionStatus
	ID     string
	Ref    EntityRef
}

// Resolver turns entity references into identifiers.
type Resolver struct {
	entities *EntityStore
}

// NewResolver creates a Resolver backed by the entity store.
func NewResolver(entities *EntityStore) *Resolver {
	return &Resolver{entities: entities}
}

// Resolve resolves ref within the workspace. A supplied identifier is returned
// as-is without checking that the entity exists; a name is looked up with
// GetEntity. Storage faults are returned as errors; every other outcome is a
// Resolution status.
func (r *Resolver) Resolve(ctx context.Context, workspace string, ref EntityRef) (Resolution, error) {
	res := Resolution{Ref: ref}

	id, ok, err := keys.ParseID(ref.ID)
	if err != nil {
		res.Status = InvalidID
		return res, nil
	}
	if ok {
		res.Status = Resolved
		res.ID = id
		return res, nil
	}

	if ref.Name == "" {
		res.Status = MissingInput
		return res, nil
	}

	entity, found, err := r.entities.GetEntity(ctx, workspace, ref.Name)
	if err != nil {
		return res, err
	}
	if !found {
		res.Status = NotFound
		return res, nil
	}
	res.Status = Resolved
	res.ID = entity.ID
	return res, nil
}
