package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacentio/trellis-memory/internal/keys"
	"github.com/jacentio/trellis-memory/table"
)

// lookupFunc finds the identifier of an existing row by its natural key.
type lookupFunc func(ctx context.Context) (id string, found bool, err error)

// claims assigns identifiers to natural keys. Each claim row lives in the
// workspace partition of the natural-key table, keyed by the natural-key hash,
// and records the identifier that owns the key.
type claims struct {
	table   table.Table
	enabled bool
	logger  *slog.Logger
}

// resolve returns the identifier owning the natural key claimKey, minting and
// claiming a fresh one when none exists. lookup finds rows written without a
// claim so that their identifiers are adopted rather than duplicated.
func (c *claims) resolve(ctx context.Context, workspace, kind, claimKey string, lookup lookupFunc) (string, error) {
	if !c.enabled {
		id, found, err := lookup(ctx)
		if err != nil {
			return "", err
		}
		if found {
			return id, nil
		}
		return keys.NewID(), nil
	}

	if id, found, err := c.owner(ctx, workspace, claimKey); err != nil || found {
		return id, err
	}

	id, found, err := lookup(ctx)
	if err != nil {
		return "", err
	}
	if !found {
		id = keys.NewID()
	}

	claim := table.NewRow(workspace, claimKey).
		Set(fieldID, id).
		Set(fieldKind, kind)
	err = c.table.Insert(ctx, claim)
	if errors.Is(err, table.ErrAlreadyExists) {
		winner, found, err := c.owner(ctx, workspace, claimKey)
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("claim %s vanished after conflict", claimKey)
		}
		c.logger.Info("natural key claimed concurrently",
			"workspace", workspace,
			"kind", kind,
			"id", winner,
		)
		return winner, nil
	}
	if err != nil {
		return "", fmt.Errorf("claim natural key: %w", err)
	}
	c.logger.Debug("natural key claimed",
		"workspace", workspace,
		"kind", kind,
		"id", id,
		"existing", found,
	)
	return id, nil
}

// owner returns the identifier recorded in a claim row.
func (c *claims) owner(ctx context.Context, workspace, claimKey string) (string, bool, error) {
	row, err := c.table.Get(ctx, workspace, claimKey)
	if errors.Is(err, table.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read claim: %w", err)
	}
	return row.Get(fieldID), true, nil
}

// release deletes the claim row if it is still owned by id.
func (c *claims) release(ctx context.Context, workspace, claimKey, id string) error {
	if !c.enabled {
		return nil
	}
	owner, found, err := c.owner(ctx, workspace, claimKey)
	if err != nil || !found || owner != id {
		return err
	}
	return c.table.Delete(ctx, workspace, claimKey)
}
