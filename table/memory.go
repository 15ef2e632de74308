package table

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Backend. Rows are returned in row-key order within a
// partition. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]Row // table -> partition -> row key -> row
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]map[string]map[string]Row)}
}

// Table returns a handle to the named table. Tables are created on first write.
func (m *Memory) Table(name string) Table {
	return &memoryTable{backend: m, name: name}
}

// EnsureTables creates the named tables if absent.
func (m *Memory) EnsureTables(ctx context.Context, names ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		if _, ok := m.tables[name]; !ok {
			m.tables[name] = make(map[string]map[string]Row)
		}
	}
	return nil
}

// Ping always succeeds unless the context is done.
func (m *Memory) Ping(ctx context.Context, _ string) error {
	return ctx.Err()
}

// Len returns the number of rows stored in a table partition.
func (m *Memory) Len(name, partitionKey string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[name][partitionKey])
}

type memoryTable struct {
	backend *Memory
	name    string
}

func (t *memoryTable) Name() string { return t.name }

func (t *memoryTable) Get(ctx context.Context, partitionKey, rowKey string) (Row, error) {
	if err := ctx.Err(); err != nil {
		return Row{}, err
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	row, ok := t.backend.tables[t.name][partitionKey][rowKey]
	if !ok {
		return Row{}, ErrNotFound
	}
	return row.Clone(), nil
}

func (t *memoryTable) Query(ctx context.Context, input QueryInput) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.backend.mu.RLock()
	partition := t.backend.tables[t.name][input.Filter.PartitionKey()]
	keys := make([]string, 0, len(partition))
	for k := range partition {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []Row
	for _, k := range keys {
		row := partition[k]
		if !input.Filter.Matches(row) {
			continue
		}
		rows = append(rows, row.Clone())
		if input.Limit > 0 && len(rows) >= input.Limit {
			break
		}
	}
	t.backend.mu.RUnlock()
	return rows, nil
}

func (t *memoryTable) Upsert(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	t.partition(row.PartitionKey)[row.RowKey] = row.Clone()
	return nil
}

func (t *memoryTable) Insert(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	partition := t.partition(row.PartitionKey)
	if _, exists := partition[row.RowKey]; exists {
		return ErrAlreadyExists
	}
	partition[row.RowKey] = row.Clone()
	return nil
}

func (t *memoryTable) Delete(ctx context.Context, partitionKey, rowKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	delete(t.backend.tables[t.name][partitionKey], rowKey)
	return nil
}

// partition returns the partition map, creating the table and partition as
// needed. Callers must hold the write lock.
func (t *memoryTable) partition(partitionKey string) map[string]Row {
	tbl, ok := t.backend.tables[t.name]
	if !ok {
		tbl = make(map[string]map[string]Row)
		t.backend.tables[t.name] = tbl
	}
	p, ok := tbl[partitionKey]
	if !ok {
		p = make(map[string]Row)
		tbl[partitionKey] = p
	}
	return p
}
