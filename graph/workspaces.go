package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jacentio/trellis-memory/internal/keys"
	"github.com/jacentio/trellis-memory/table"
)

// WorkspaceStore maintains the workspace registry. Workspace rows share one
// partition and are keyed by lower-cased name, so lookups are
// case-insensitive. Graph data does not depend on a workspace row existing.
type WorkspaceStore struct {
	workspaces table.Table
	logger     *slog.Logger
	now        func() time.Time
}

// NewWorkspaceStore creates a WorkspaceStore on the given backend.
func NewWorkspaceStore(backend table.Backend, config Config, logger *slog.Logger) *WorkspaceStore {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkspaceStore{
		workspaces: backend.Table(config.WorkspacesTable),
		logger:     logger,
		now:        time.Now,
	}
}

// UpsertWorkspace creates or updates a workspace. The identifier and creation
// time of an existing workspace are kept.
func (s *WorkspaceStore) UpsertWorkspace(ctx context.Context, name, description string) (Workspace, error) {
	if name == "" {
		return Workspace{}, ErrInvalidWorkspace
	}
	existing, found, err := s.GetWorkspace(ctx, name)
	if err != nil {
		return Workspace{}, err
	}

	ws := Workspace{Name: name, Description: description}
	if found {
		ws.ID = existing.ID
		ws.CreatedAt = existing.CreatedAt
	}
	if ws.ID == "" {
		ws.ID = keys.NewID()
	}
	if ws.CreatedAt == nil {
		now := s.now().UTC().Truncate(time.Second)
		ws.CreatedAt = &now
	}

	if err := s.workspaces.Upsert(ctx, workspaceToRow(ws)); err != nil {
		return Workspace{}, fmt.Errorf("upsert workspace %q: %w", name, err)
	}
	return ws, nil
}

// EnsureWorkspace registers the workspace if no row exists for it yet.
// created reports whether this call wrote the row.
func (s *WorkspaceStore) EnsureWorkspace(ctx context.Context, name string) (ws Workspace, created bool, err error) {
	if name == "" {
		return Workspace{}, false, ErrInvalidWorkspace
	}
	now := s.now().UTC().Truncate(time.Second)
	ws = Workspace{ID: keys.NewID(), Name: name, CreatedAt: &now}

	err = s.workspaces.Insert(ctx, workspaceToRow(ws))
	if errors.Is(err, table.ErrAlreadyExists) {
		existing, _, err := s.GetWorkspace(ctx, name)
		return existing, false, err
	}
	if err != nil {
		return Workspace{}, false, fmt.Errorf("register workspace %q: %w", name, err)
	}
	s.logger.Info("workspace registered", "workspace", name, "id", ws.ID)
	return ws, true, nil
}

// GetWorkspace returns the workspace with the given name, ignoring case.
func (s *WorkspaceStore) GetWorkspace(ctx context.Context, name string) (ws Workspace, found bool, err error) {
	row, err := s.workspaces.Get(ctx, keys.WorkspacesPartition, keys.WorkspaceRowKey(name))
	if errors.Is(err, table.ErrNotFound) {
		return Workspace{}, false, nil
	}
	if err != nil {
		return Workspace{}, false, fmt.Errorf("get workspace %q: %w", name, err)
	}
	return workspaceFromRow(row), true, nil
}

// ListWorkspaces returns every registered workspace.
func (s *WorkspaceStore) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	rows, err := s.workspaces.Query(ctx, table.QueryInput{
		Filter: table.Partition(keys.WorkspacesPartition),
	})
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	out := make([]Workspace, 0, len(rows))
	for _, row := range rows {
		out = append(out, workspaceFromRow(row))
	}
	return out, nil
}
