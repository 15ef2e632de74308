package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacentio/trellis-memory/internal/keys"
	"github.com/jacentio/trellis-memory/table"
)

// RelationStore resolves relation identity and persists relations.
type RelationStore struct {
	relations table.Table
	claims    *claims
	logger    *slog.Logger
}

// NewRelationStore creates a RelationStore on the given backend.
func NewRelationStore(backend table.Backend, config Config, logger *slog.Logger) *RelationStore {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationStore{
		relations: backend.Table(config.RelationsTable),
		claims: &claims{
			table:   backend.Table(config.NaturalKeysTable),
			enabled: config.ClaimNaturalKeys,
			logger:  logger,
		},
		logger: logger,
	}
}

// UpsertRelation writes the candidate, reusing the identifier of the relation
// already stored under the same (workspace, from, to, type). Endpoints are not
// checked against the entity table.
func (s *RelationStore) UpsertRelation(ctx context.Context, c RelationCandidate) (Relation, error) {
	c, err := normaliseRelation(c)
	if err != nil {
		return Relation{}, err
	}

	id, err := s.claims.resolve(ctx, c.WorkspaceName, "relation",
		keys.RelationKey(c.FromEntityID, c.ToEntityID, c.RelationType),
		func(ctx context.Context) (string, bool, error) {
			existing, found, err := s.findRelation(ctx, c)
			return existing.ID, found, err
		})
	if err != nil {
		return Relation{}, fmt.Errorf("resolve relation: %w", err)
	}

	rel := c.withID(id)
	if err := s.relations.Upsert(ctx, relationToRow(rel)); err != nil {
		return Relation{}, fmt.Errorf("upsert relation: %w", err)
	}

	s.logger.Debug("relation upserted",
		"workspace", rel.WorkspaceName,
		"id", rel.ID,
		"from", rel.FromEntityID,
		"to", rel.ToEntityID,
		"type", rel.RelationType,
	)
	return rel, nil
}

// GetRelation returns the relation with the given identifier. found is false
// when it does not exist.
func (s *RelationStore) GetRelation(ctx context.Context, workspace, relationID string) (rel Relation, found bool, err error) {
	id, ok, err := keys.ParseID(relationID)
	if err != nil {
		return Relation{}, false, ErrInvalidID
	}
	if !ok {
		return Relation{}, false, nil
	}
	row, err := s.relations.Get(ctx, workspace, id)
	if errors.Is(err, table.ErrNotFound) {
		return Relation{}, false, nil
	}
	if err != nil {
		return Relation{}, false, fmt.Errorf("get relation %s: %w", id, err)
	}
	return relationFromRow(row), true, nil
}

// GetRelationsFromEntity returns every relation in the workspace whose source
// is fromID.
func (s *RelationStore) GetRelationsFromEntity(ctx context.Context, workspace, fromID string) ([]Relation, error) {
	id, ok, err := keys.ParseID(fromID)
	if err != nil {
		return nil, ErrInvalidID
	}
	if !ok {
		return []Relation{}, nil
	}
	return s.query(ctx, table.QueryInput{
		Filter: table.Partition(workspace).And(fieldFromEntityID, id),
	})
}

// GetRelationsForWorkspace returns every relation in the workspace.
func (s *RelationStore) GetRelationsForWorkspace(ctx context.Context, workspace string) ([]Relation, error) {
	return s.query(ctx, table.QueryInput{Filter: table.Partition(workspace)})
}

// DeleteRelation removes the relation and its natural-key claim. Deleting a
// relation that does not exist succeeds.
func (s *RelationStore) DeleteRelation(ctx context.Context, workspace, relationID string) error {
	rel, found, err := s.GetRelation(ctx, workspace, relationID)
	if err != nil || !found {
		return err
	}
	if err := s.relations.Delete(ctx, workspace, rel.ID); err != nil {
		return fmt.Errorf("delete relation %s: %w", rel.ID, err)
	}
	claimKey := keys.RelationKey(rel.FromEntityID, rel.ToEntityID, rel.RelationType)
	if err := s.claims.release(ctx, workspace, claimKey, rel.ID); err != nil {
		return fmt.Errorf("release relation claim: %w", err)
	}
	s.logger.Debug("relation deleted", "workspace", workspace, "id", rel.ID)
	return nil
}

// findRelation looks up a relation by its natural key.
func (s *RelationStore) findRelation(ctx context.Context, c RelationCandidate) (Relation, bool, error) {
	rels, err := s.query(ctx, table.QueryInput{
		Filter: table.Partition(c.WorkspaceName).
			And(fieldFromEntityID, c.FromEntityID).
			And(fieldToEntityID, c.ToEntityID).
			And(fieldRelationType, c.RelationType),
		Limit: 1,
	})
	if err != nil || len(rels) == 0 {
		return Relation{}, false, err
	}
	return rels[0], true, nil
}

func (s *RelationStore) query(ctx context.Context, input table.QueryInput) ([]Relation, error) {
	rows, err := s.relations.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	rels := make([]Relation, 0, len(rows))
	for _, row := range rows {
		rels = append(rels, relationFromRow(row))
	}
	return rels, nil
}

// normaliseRelation checks required fields and rewrites endpoint identifiers
// in compact form so that natural-key lookups compare equal.
func normaliseRelation(c RelationCandidate) (RelationCandidate, error) {
	if c.WorkspaceName == "" || c.RelationType == "" {
		return c, ErrInvalidRelation
	}
	from, ok, err := keys.ParseID(c.FromEntityID)
	if err != nil {
		return c, ErrInvalidID
	}
	if !ok {
		return c, ErrInvalidRelation
	}
	to, ok, err := keys.ParseID(c.ToEntityID)
	if err != nil {
		return c, ErrInvalidID
	}
	if !ok {
		return c, ErrInvalidRelation
	}
	c.FromEntityID = from
	c.ToEntityID = to
	return c, nil
}
