package graph_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/trellis-memory/graph"
	"github.com/jacentio/trellis-memory/table"
)

func newService(t *testing.T) (*graph.Service, *table.Memory) {
	t.Helper()
	mem := table.NewMemory()
	svc := graph.New(mem, graph.DefaultConfig(), nil)
	require.NoError(t, svc.EnsureTables(context.Background()))
	return svc, mem
}

func upsertEntity(t *testing.T, svc *graph.Service, ws, name, typ string, obs ...string) graph.Entity {
	t.Helper()
	e, err := svc.Entities.UpsertEntity(context.Background(), graph.EntityCandidate{
		WorkspaceName: ws,
		Name:          name,
		EntityType:    typ,
		Observations:  obs,
	})
	require.NoError(t, err)
	return e
}

func TestUpsertEntity_ReusesIdentifier(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t)

	first := upsertEntity(t, svc, "proj1", "Alice", "person", "likes tea")
	second := upsertEntity(t, svc, "proj1", "Alice", "human", "likes coffee", "reads")

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, first.ID, 32)
	assert.Equal(t, 1, mem.Len("entities", "proj1"))

	got, found, err := svc.Entities.GetEntity(ctx, "proj1", "Alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "human", got.EntityType)
	assert.Equal(t, []string{"likes coffee", "reads"}, got.Observations)
}

func TestUpsertEntity_NameUniqueness(t *testing.T) {
	svc, mem := newService(t)

	var ids []string
	for i := 0; i < 5; i++ {
		e := upsertEntity(t, svc, "proj1", "Alice", "person", fmt.Sprintf("obs %d", i))
		ids = append(ids, e.ID)
	}
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, mem.Len("entities", "proj1"))
}

func TestUpsertEntity_WorkspacesAreIsolated(t *testing.T) {
	svc, _ := newService(t)

	a := upsertEntity(t, svc, "proj1", "Alice", "person")
	b := upsertEntity(t, svc, "proj2", "Alice", "person")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestUpsertEntity_FullReplace(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Entities.UpsertEntity(ctx, graph.EntityCandidate{
		WorkspaceName: "proj1", Name: "Alice", EntityType: "person",
		Observations: []string{"a"}, Metadata: `{"v":1}`,
	})
	require.NoError(t, err)
	_, err = svc.Entities.UpsertEntity(ctx, graph.EntityCandidate{
		WorkspaceName: "proj1", Name: "Alice", EntityType: "person",
	})
	require.NoError(t, err)

	got, _, err := svc.Entities.GetEntity(ctx, "proj1", "Alice")
	require.NoError(t, err)
	assert.Empty(t, got.Metadata)
	assert.Empty(t, got.Observations)
	assert.NotNil(t, got.Observations)
}

func TestUpsertEntity_RequiredFields(t *testing.T) {
	svc, _ := newService(t)

	tests := []graph.EntityCandidate{
		{Name: "Alice", EntityType: "person"},
		{WorkspaceName: "proj1", EntityType: "person"},
		{WorkspaceName: "proj1", Name: "Alice"},
	}
	for _, c := range tests {
		_, err := svc.Entities.UpsertEntity(context.Background(), c)
		assert.ErrorIs(t, err, graph.ErrInvalidEntity)
	}
}

func TestUpsertEntity_CandidateNotAliased(t *testing.T) {
	svc, _ := newService(t)
	obs := []string{"a", "b"}

	e, err := svc.Entities.UpsertEntity(context.Background(), graph.EntityCandidate{
		WorkspaceName: "proj1", Name: "Alice", EntityType: "person", Observations: obs,
	})
	require.NoError(t, err)
	obs[0] = "mutated"
	assert.Equal(t, "a", e.Observations[0])
}

func TestObservationsRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	upsertEntity(t, svc, "proj1", "Alice", "person", "a", "b", "c")

	got, found, err := svc.Entities.GetEntity(ctx, "proj1", "Alice")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"a", "b", "c"}, got.Observations)

	all, err := svc.Entities.ReadGraph(ctx, "proj1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"a", "b", "c"}, all[0].Observations)
}

func TestGetEntity_NotFound(t *testing.T) {
	svc, _ := newService(t)

	_, found, err := svc.Entities.GetEntity(context.Background(), "proj1", "Nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetEntity_QuotedName(t *testing.T) {
	svc, _ := newService(t)
	e := upsertEntity(t, svc, "proj1", "O'Brien", "person")

	got, found, err := svc.Entities.GetEntity(context.Background(), "proj1", "O'Brien")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, e.ID, got.ID)
}

func TestUpsertEntity_ConcurrentClaimsProduceOneRow(t *testing.T) {
	svc, mem := newService(t)

	const writers = 16
	ids := make([]string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := svc.Entities.UpsertEntity(context.Background(), graph.EntityCandidate{
				WorkspaceName: "proj1", Name: "Alice", EntityType: "person",
				Observations: []string{fmt.Sprintf("writer %d", i)},
			})
			assert.NoError(t, err)
			ids[i] = e.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, mem.Len("entities", "proj1"))
	assert.Equal(t, 1, mem.Len("natural_keys", "proj1"))
}

func TestUpsertEntity_AdoptsUnclaimedRow(t *testing.T) {
	ctx := context.Background()
	mem := table.NewMemory()

	legacyCfg := graph.DefaultConfig()
	legacyCfg.ClaimNaturalKeys = false
	legacy := graph.New(mem, legacyCfg, nil)
	old, err := legacy.Entities.UpsertEntity(ctx, graph.EntityCandidate{
		WorkspaceName: "proj1", Name: "Alice", EntityType: "person",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, mem.Len("natural_keys", "proj1"))

	claimed := graph.New(mem, graph.DefaultConfig(), nil)
	e, err := claimed.Entities.UpsertEntity(ctx, graph.EntityCandidate{
		WorkspaceName: "proj1", Name: "Alice", EntityType: "person",
	})
	require.NoError(t, err)
	assert.Equal(t, old.ID, e.ID)
	assert.Equal(t, 1, mem.Len("entities", "proj1"))
	assert.Equal(t, 1, mem.Len("natural_keys", "proj1"))
}

func TestUpsertEntity_LookupThenWriteMode(t *testing.T) {
	mem := table.NewMemory()
	cfg := graph.DefaultConfig()
	cfg.ClaimNaturalKeys = false
	svc := graph.New(mem, cfg, nil)

	first := upsertEntity(t, svc, "proj1", "Alice", "person")
	second := upsertEntity(t, svc, "proj1", "Alice", "person")
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, mem.Len("entities", "proj1"))
}

func TestUpsertRelation_CompositeKeyUniqueness(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t)
	alice := upsertEntity(t, svc, "proj1", "Alice", "person")
	bob := upsertEntity(t, svc, "proj1", "Bob", "person")

	first, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: alice.ID, ToEntityID: bob.ID,
		RelationType: "knows", Metadata: `{"since":2020}`,
	})
	require.NoError(t, err)

	second, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: alice.ID, ToEntityID: bob.ID,
		RelationType: "knows", Metadata: `{"since":2021}`,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, mem.Len("relations", "proj1"))

	got, found, err := svc.Relations.GetRelation(ctx, "proj1", first.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"since":2021}`, got.Metadata)
}

func TestUpsertRelation_DistinctTypesAndDirections(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t)
	a := upsertEntity(t, svc, "proj1", "A", "node")
	b := upsertEntity(t, svc, "proj1", "B", "node")

	cands := []graph.RelationCandidate{
		{WorkspaceName: "proj1", FromEntityID: a.ID, ToEntityID: b.ID, RelationType: "knows"},
		{WorkspaceName: "proj1", FromEntityID: a.ID, ToEntityID: b.ID, RelationType: "likes"},
		{WorkspaceName: "proj1", FromEntityID: b.ID, ToEntityID: a.ID, RelationType: "knows"},
	}
	seen := map[string]bool{}
	for _, c := range cands {
		rel, err := svc.Relations.UpsertRelation(ctx, c)
		require.NoError(t, err)
		seen[rel.ID] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 3, mem.Len("relations", "proj1"))
}

func TestUpsertRelation_DashedIDsNormalised(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t)

	first, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1",
		FromEntityID:  "11111111-1111-1111-1111-111111111111",
		ToEntityID:    "22222222-2222-2222-2222-222222222222",
		RelationType:  "knows",
	})
	require.NoError(t, err)
	assert.Equal(t, "11111111111111111111111111111111", first.FromEntityID)

	second, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1",
		FromEntityID:  "11111111111111111111111111111111",
		ToEntityID:    "22222222222222222222222222222222",
		RelationType:  "knows",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, mem.Len("relations", "proj1"))
}

func TestUpsertRelation_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := "11111111111111111111111111111111"

	_, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: id, ToEntityID: id,
	})
	assert.ErrorIs(t, err, graph.ErrInvalidRelation)

	_, err = svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: "", ToEntityID: id, RelationType: "knows",
	})
	assert.ErrorIs(t, err, graph.ErrInvalidRelation)

	_, err = svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: "zzz", ToEntityID: id, RelationType: "knows",
	})
	assert.ErrorIs(t, err, graph.ErrInvalidID)
}

func TestDanglingRelationsAreReturned(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	ghostFrom := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	ghostTo := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

	rel, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: ghostFrom, ToEntityID: ghostTo, RelationType: "haunts",
	})
	require.NoError(t, err)

	g, err := svc.ReadGraph(ctx, "proj1")
	require.NoError(t, err)
	assert.Empty(t, g.Entities)
	require.Len(t, g.Relations, 1)
	assert.Equal(t, rel.ID, g.Relations[0].ID)

	from, err := svc.Relations.GetRelationsFromEntity(ctx, "proj1", ghostFrom)
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, rel.ID, from[0].ID)
}

func TestGetRelationsFromEntity_Direction(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	a := upsertEntity(t, svc, "proj1", "A", "node")
	b := upsertEntity(t, svc, "proj1", "B", "node")

	_, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: a.ID, ToEntityID: b.ID, RelationType: "knows",
	})
	require.NoError(t, err)

	fromA, err := svc.Relations.GetRelationsFromEntity(ctx, "proj1", a.ID)
	require.NoError(t, err)
	assert.Len(t, fromA, 1)

	fromB, err := svc.Relations.GetRelationsFromEntity(ctx, "proj1", b.ID)
	require.NoError(t, err)
	assert.Empty(t, fromB)
}

func TestDeleteRelation_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t)
	a := upsertEntity(t, svc, "proj1", "A", "node")
	b := upsertEntity(t, svc, "proj1", "B", "node")

	rel, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: a.ID, ToEntityID: b.ID, RelationType: "knows",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Relations.DeleteRelation(ctx, "proj1", rel.ID))
	require.NoError(t, svc.Relations.DeleteRelation(ctx, "proj1", rel.ID))

	_, found, err := svc.Relations.GetRelation(ctx, "proj1", rel.ID)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, mem.Len("relations", "proj1"))
	// Only the two entity claims remain.
	assert.Equal(t, 2, mem.Len("natural_keys", "proj1"))

	again, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: a.ID, ToEntityID: b.ID, RelationType: "knows",
	})
	require.NoError(t, err)
	assert.NotEqual(t, rel.ID, again.ID)
}

func TestDeleteRelation_NeverExisted(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Relations.DeleteRelation(context.Background(), "proj1", "cccccccccccccccccccccccccccccccc")
	assert.NoError(t, err)
}

func TestGetRelation_InvalidID(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.Relations.GetRelation(context.Background(), "proj1", "nope")
	assert.ErrorIs(t, err, graph.ErrInvalidID)
}

func TestReadGraph_ComposesBothScans(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	a := upsertEntity(t, svc, "proj1", "A", "node")
	b := upsertEntity(t, svc, "proj1", "B", "node")
	upsertEntity(t, svc, "proj2", "C", "node")
	_, err := svc.Relations.UpsertRelation(ctx, graph.RelationCandidate{
		WorkspaceName: "proj1", FromEntityID: a.ID, ToEntityID: b.ID, RelationType: "knows",
	})
	require.NoError(t, err)

	g, err := svc.ReadGraph(ctx, "proj1")
	require.NoError(t, err)
	assert.Equal(t, "proj1", g.WorkspaceName)
	assert.Len(t, g.Entities, 2)
	assert.Len(t, g.Relations, 1)
}

func TestReadGraph_EmptyWorkspace(t *testing.T) {
	svc, _ := newService(t)
	g, err := svc.ReadGraph(context.Background(), "empty")
	require.NoError(t, err)
	assert.NotNil(t, g.Entities)
	assert.NotNil(t, g.Relations)
}

// faultyBackend fails every operation on one table.
type faultyBackend struct {
	*table.Memory
	failTable string
	err       error
}

func (f *faultyBackend) Table(name string) table.Table {
	if name == f.failTable {
		return faultyTable{Table: f.Memory.Table(name), err: f.err}
	}
	return f.Memory.Table(name)
}

type faultyTable struct {
	table.Table
	err error
}

func (f faultyTable) Get(context.Context, string, string) (table.Row, error) { return table.Row{}, f.err }
func (f faultyTable) Query(context.Context, table.QueryInput) ([]table.Row, error) {
	return nil, f.err
}
func (f faultyTable) Upsert(context.Context, table.Row) error       { return f.err }
func (f faultyTable) Insert(context.Context, table.Row) error       { return f.err }
func (f faultyTable) Delete(context.Context, string, string) error { return f.err }

func TestStorageFaultsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("service unavailable")

	relFault := graph.New(&faultyBackend{Memory: table.NewMemory(), failTable: "relations", err: boom}, graph.DefaultConfig(), nil)
	_, err := relFault.ReadGraph(ctx, "proj1")
	assert.ErrorIs(t, err, boom)

	_, _, err = relFault.Relations.GetRelation(ctx, "proj1", "cccccccccccccccccccccccccccccccc")
	assert.ErrorIs(t, err, boom)

	err = relFault.Relations.DeleteRelation(ctx, "proj1", "cccccccccccccccccccccccccccccccc")
	assert.ErrorIs(t, err, boom)

	claimFault := graph.New(&faultyBackend{Memory: table.NewMemory(), failTable: "natural_keys", err: boom}, graph.DefaultConfig(), nil)
	_, err = claimFault.Entities.UpsertEntity(ctx, graph.EntityCandidate{
		WorkspaceName: "proj1", Name: "Alice", EntityType: "person",
	})
	assert.ErrorIs(t, err, boom)
}

func TestCanceledContext(t *testing.T) {
	svc, mem := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Entities.UpsertEntity(ctx, graph.EntityCandidate{
		WorkspaceName: "proj1", Name: "Alice", EntityType: "person",
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mem.Len("entities", "proj1"))
}
