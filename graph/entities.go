package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jacentio/trellis-memory/internal/keys"
	"github.com/jacentio/trellis-memory/table"
)

// EntityStore resolves entity identity and persists entities.
type EntityStore struct {
	entities table.Table
	claims   *claims
	logger   *slog.Logger
}

// NewEntityStore creates an EntityStore on the given backend.
func NewEntityStore(backend table.Backend, config Config, logger *slog.Logger) *EntityStore {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &EntityStore{
		entities: backend.Table(config.EntitiesTable),
		claims: &claims{
			table:   backend.Table(config.NaturalKeysTable),
			enabled: config.ClaimNaturalKeys,
			logger:  logger,
		},
		logger: logger,
	}
}

// UpsertEntity writes the candidate, reusing the identifier of the entity
// already stored under the same (workspace, name). Every non-key field is
// replaced by the candidate's values.
func (s *EntityStore) UpsertEntity(ctx context.Context, c EntityCandidate) (Entity, error) {
	if !c.valid() {
		return Entity{}, ErrInvalidEntity
	}

	id, err := s.claims.resolve(ctx, c.WorkspaceName, "entity", keys.EntityKey(c.Name),
		func(ctx context.Context) (string, bool, error) {
			existing, found, err := s.GetEntity(ctx, c.WorkspaceName, c.Name)
			return existing.ID, found, err
		})
	if err != nil {
		return Entity{}, fmt.Errorf("resolve entity %q: %w", c.Name, err)
	}

	entity := c.withID(id)
	if err := s.entities.Upsert(ctx, entityToRow(entity)); err != nil {
		return Entity{}, fmt.Errorf("upsert entity %q: %w", c.Name, err)
	}

	s.logger.Debug("entity upserted",
		"workspace", entity.WorkspaceName,
		"name", entity.Name,
		"id", entity.ID,
	)
	return entity, nil
}

// GetEntity returns the entity named name in the workspace. found is false
// when no such entity exists.
func (s *EntityStore) GetEntity(ctx context.Context, workspace, name string) (entity Entity, found bool, err error) {
	rows, err := s.entities.Query(ctx, table.QueryInput{
		Filter: table.Partition(workspace).And(fieldName, name),
		Limit:  1,
	})
	if err != nil {
		return Entity{}, false, fmt.Errorf("get entity %q: %w", name, err)
	}
	if len(rows) == 0 {
		return Entity{}, false, nil
	}
	return entityFromRow(rows[0]), true, nil
}

// ReadGraph returns every entity in the workspace in store order.
func (s *EntityStore) ReadGraph(ctx context.Context, workspace string) ([]Entity, error) {
	rows, err := s.entities.Query(ctx, table.QueryInput{
		Filter: table.Partition(workspace),
	})
	if err != nil {
		return nil, fmt.Errorf("read entities: %w", err)
	}
	entities := make([]Entity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, entityFromRow(row))
	}
	return entities, nil
}
