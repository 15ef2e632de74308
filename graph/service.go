package graph

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jacentio/trellis-memory/table"
)

// Service composes the entity, relation and workspace stores.
type Service struct {
	Entities   *EntityStore
	Relations  *RelationStore
	Workspaces *WorkspaceStore
	Resolver   *Resolver

	backend table.Backend
	config  Config
}

// New creates a Service with stores on the given backend.
func New(backend table.Backend, config Config, logger *slog.Logger) *Service {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	entities := NewEntityStore(backend, config, logger)
	return &Service{
		Entities:   entities,
		Relations:  NewRelationStore(backend, config, logger),
		Workspaces: NewWorkspaceStore(backend, config, logger),
		Resolver:   NewResolver(entities),
		backend:    backend,
		config:     config,
	}
}

// EnsureTables creates every table the stores use.
func (s *Service) EnsureTables(ctx context.Context) error {
	return s.backend.EnsureTables(ctx, s.config.Tables()...)
}

// Ping checks that the backend can reach the entities table.
func (s *Service) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx, s.config.EntitiesTable)
}

// ReadGraph returns every entity and relation of the workspace. The two scans
// run concurrently and are not a consistent snapshot.
func (s *Service) ReadGraph(ctx context.Context, workspace string) (Graph, error) {
	g := Graph{WorkspaceName: workspace}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		entities, err := s.Entities.ReadGraph(ctx, workspace)
		g.Entities = entities
		return err
	})
	eg.Go(func() error {
		relations, err := s.Relations.GetRelationsForWorkspace(ctx, workspace)
		g.Relations = relations
		return err
	})
	if err := eg.Wait(); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// GetEntityRelations resolves ref and returns the relations originating from
// it. Relations are only returned when the resolution status is Resolved.
func (s *Service) GetEntityRelations(ctx context.Context, workspace string, ref EntityRef) (Resolution, []Relation, error) {
	res, err := s.Resolver.Resolve(ctx, workspace, ref)
	if err != nil || res.Status != Resolved {
		return res, nil, err
	}
	relations, err := s.Relations.GetRelationsFromEntity(ctx, workspace, res.ID)
	if err != nil {
		return res, nil, err
	}
	return res, relations, nil
}
