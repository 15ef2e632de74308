package table

import "context"

// Table is one logical table of partitioned rows.
type Table interface {
	// Name returns the logical table name.
	Name() string

	// Get returns the row at (partitionKey, rowKey) or ErrNotFound.
	Get(ctx context.Context, partitionKey, rowKey string) (Row, error)

	// Query returns the rows of one partition matching the filter.
	Query(ctx context.Context, input QueryInput) ([]Row, error)

	// Upsert writes the row, replacing every field of an existing row.
	Upsert(ctx context.Context, row Row) error

	// Insert writes the row only if no row exists at its key.
	// Returns ErrAlreadyExists otherwise.
	Insert(ctx context.Context, row Row) error

	// Delete removes the row. Deleting a missing row is not an error.
	Delete(ctx context.Context, partitionKey, rowKey string) error
}

// Backend hands out tables and manages their lifecycle.
type Backend interface {
	// Table returns a handle to the named table. It does not create it.
	Table(name string) Table

	// EnsureTables creates any of the named tables that do not exist yet.
	EnsureTables(ctx context.Context, names ...string) error

	// Ping checks that the named table is reachable.
	Ping(ctx context.Context, name string) error
}

// QueryInput defines parameters for a filtered partition scan.
type QueryInput struct {
	// Filter selects the partition and the equality conditions.
	Filter Filter

	// PageSize is the maximum number of rows evaluated per backend request (0 = backend default).
	// The DynamoDB backend ignores it when the filter has non-key conditions.
	PageSize int32

	// Limit is the maximum number of matching rows returned (0 = no limit).
	Limit int
}
