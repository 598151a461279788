package store

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/infoase/internal/core/model"
	"github.com/agenthands/infoase/internal/driver"
	"github.com/agenthands/infoase/internal/driver/drivertest"
)

func aliceAndBob() model.Graph {
	alice := model.NewNode("Alice", "Person", model.Properties{"location": "Delft"})
	bob := model.NewNode("Bob", "Person", model.Properties{"birthday": "13-1-1986"})
	return model.Graph{
		Nodes: []model.Node{alice, bob},
		Relationships: []model.Relationship{
			{Source: alice, Target: bob, Type: "KNOWS", Properties: model.Properties{}},
		},
	}
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	first, err := s.ImportGraph(ctx, aliceAndBob())
	require.NoError(t, err)
	assert.Equal(t, 2, first.NodesCreated)
	assert.Equal(t, 1, first.RelationshipsCreated)
	assert.Empty(t, first.Diagnostics)

	exported, err := s.Export(ctx)
	require.NoError(t, err)

	second, err := s.ImportGraph(ctx, aliceAndBob())
	require.NoError(t, err)
	assert.Equal(t, 0, second.NodesCreated)
	assert.Equal(t, 2, second.NodesMerged)
	assert.Equal(t, 0, second.RelationshipsCreated)
	assert.Equal(t, 1, second.RelationshipsMerged)

	again, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, exported, again)
	assert.Len(t, d.Nodes, 2)
	assert.Len(t, d.Rels, 1)
}

func TestUpsertNodeMergesProperties(t *testing.T) {
	ctx := context.Background()
	s := New(drivertest.New(), nil)

	created, diags, err := s.UpsertNode(ctx, model.NewNode("Alice", "Person", model.Properties{"age": 25}))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, diags)

	created, _, err = s.UpsertNode(ctx, model.NewNode("Alice", "Person", model.Properties{"city": "Delft"}))
	require.NoError(t, err)
	assert.False(t, created)

	g, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, model.Properties{"name": "Alice", "age": int64(25), "city": "Delft"}, g.Nodes[0].Properties)
}

func TestTypeChangeRelabelsInsteadOfDuplicating(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	_, err := s.Import(ctx, []model.Item{
		model.NewNode("Walter", "Person", model.Properties{"name": "Walter"}),
		model.NewNode("Walter", "Employee", model.Properties{"name": "Walter"}),
	})
	require.NoError(t, err)

	g, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "walter", g.Nodes[0].ID)
	assert.Equal(t, "Employee", g.Nodes[0].Type)
	assert.Equal(t, []string{driver.EntityLabel, "Employee"}, d.Nodes[0].Labels)
}

func TestDanglingRelationshipIsRejected(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	alice := model.NewNode("Alice", "Person", nil)
	carol := model.NewNode("Carol", "Person", nil)

	res, err := s.Import(ctx, []model.Item{
		alice,
		model.Relationship{Source: alice, Target: carol, Type: "KNOWS", Properties: model.Properties{}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.NodesCreated)
	assert.Equal(t, 0, res.RelationshipsCreated)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, model.DiagMissingEndpoint, res.Diagnostics[0].Code)
	assert.Equal(t, "carol", res.Diagnostics[0].Subject)
	assert.Empty(t, d.Rels)
	assert.Equal(t, driver.EndpointProbeQuery, d.Queries[len(d.Queries)-1])
}

func TestImportKeepsCallOrder(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	g := aliceAndBob()
	items := []model.Item{g.Relationships[0], g.Nodes[0], g.Nodes[1]}

	res, err := s.Import(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NodesCreated)
	assert.Equal(t, 0, res.RelationshipsCreated)
	assert.Equal(t, 1, res.Diagnostics.Count(model.DiagMissingEndpoint))
	assert.Equal(t, "alice, bob", res.Diagnostics[0].Subject)
	assert.Contains(t, d.Queries[0], "MERGE (a)-[r:`KNOWS`]->(b)")
}

func TestRelationshipTypeIsQuotedVerbatim(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	a := model.NewNode("a", "Thing", nil)
	b := model.NewNode("b", "Thing", nil)
	res, err := s.Import(ctx, []model.Item{a, b,
		model.Relationship{Source: a, Target: b, Type: "woont samen`met", Properties: model.Properties{"start": "2021"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RelationshipsCreated)
	assert.Contains(t, d.Queries[2], "[r:`woont samen``met`]")

	g, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, g.Relationships, 1)
	assert.Equal(t, "woont samen`met", g.Relationships[0].Type)
	assert.Equal(t, model.Properties{"start": "2021"}, g.Relationships[0].Properties)
}

func TestInvalidItemsBecomeDiagnostics(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	res, err := s.Import(ctx, []model.Item{
		model.Node{ID: "x", Properties: model.Properties{"name": "x"}},
		model.Relationship{Source: model.Node{ID: "x"}, Target: model.Node{ID: "y"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, model.DiagInvalidNode, res.Diagnostics[0].Code)
	assert.Equal(t, model.DiagInvalidRelationship, res.Diagnostics[1].Code)
	assert.Empty(t, d.Queries)
}

func TestExportStripsBookkeepingAndSkipsUnresolved(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	_, err := s.ImportGraph(ctx, aliceAndBob())
	require.NoError(t, err)

	orphan := &drivertest.Node{Labels: []string{"Legacy"}, Props: map[string]interface{}{"name": "no id"}}
	d.Nodes = append(d.Nodes, orphan)
	d.Rels = append(d.Rels, &drivertest.Rel{Start: d.Nodes[0], End: orphan, Type: "OWNS", Props: map[string]interface{}{}})

	g, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Relationships, 1)

	for _, n := range g.Nodes {
		assert.NotContains(t, n.Properties, model.CreatedKey)
		assert.NotContains(t, n.Properties, "id")
		assert.Equal(t, "Person", n.Type)
	}
	assert.Equal(t, []string{"alice", "bob"}, g.NodeIDs())
	assert.Equal(t, "KNOWS", g.Relationships[0].Type)
	assert.Equal(t, model.Properties{}, g.Relationships[0].Properties)
	assert.Equal(t, "alice", g.Relationships[0].Source.ID)
}

func TestExportOrderIgnoresWriteOrder(t *testing.T) {
	ctx := context.Background()
	alice := model.NewNode("Alice", "Person", nil)
	bob := model.NewNode("Bob", "Person", nil)
	carol := model.NewNode("Carol", "Person", nil)
	rels := []model.Relationship{
		{Source: carol, Target: alice, Type: "KNOWS", Properties: model.Properties{}},
		{Source: alice, Target: carol, Type: "LIKES", Properties: model.Properties{}},
		{Source: alice, Target: bob, Type: "LIKES", Properties: model.Properties{}},
		{Source: alice, Target: bob, Type: "KNOWS", Properties: model.Properties{}},
	}

	forward := New(drivertest.New(), nil)
	_, err := forward.ImportGraph(ctx, model.Graph{Nodes: []model.Node{alice, bob, carol}, Relationships: rels})
	require.NoError(t, err)

	reversed := make([]model.Relationship, len(rels))
	for i, r := range rels {
		reversed[len(rels)-1-i] = r
	}
	backward := New(drivertest.New(), nil)
	_, err = backward.ImportGraph(ctx, model.Graph{Nodes: []model.Node{carol, bob, alice}, Relationships: reversed})
	require.NoError(t, err)

	a, err := forward.Export(ctx)
	require.NoError(t, err)
	b, err := backward.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var order []string
	for _, r := range a.Relationships {
		order = append(order, r.Source.ID+" "+r.Type+" "+r.Target.ID)
	}
	assert.Equal(t, []string{
		"alice KNOWS bob",
		"alice LIKES bob",
		"alice LIKES carol",
		"carol KNOWS alice",
	}, order)
}

func TestCleanupEmptiesDatabase(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	_, err := s.ImportGraph(ctx, aliceAndBob())
	require.NoError(t, err)
	require.NoError(t, s.Cleanup(ctx))
	assert.Equal(t, driver.CleanupQueries, d.Runs)

	g, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Relationships)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := New(drivertest.New(), nil)
	_, err := s.ImportGraph(ctx, aliceAndBob())
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Nodes: 2, Relationships: 1}, stats)
}

func TestErrorsAreClassified(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	d.Err = &neo4j.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized", Msg: "bad credentials"}
	err := s.Status(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.NotEmpty(t, Remediation(err))

	d.Err = &neo4j.Neo4jError{Code: "Neo.TransientError.General.DatabaseUnavailable", Msg: "starting"}
	_, err = s.Export(ctx)
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	d.Err = errors.New("syntax error")
	_, _, err = s.UpsertNode(ctx, model.NewNode("Alice", "Person", nil))
	assert.ErrorIs(t, err, ErrStore)
	assert.NotErrorIs(t, err, ErrAuthentication)

	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "upsert node alice", storeErr.Op)

	d.Err = context.Canceled
	err = s.Cleanup(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStore)

	d.Err = nil
	assert.NoError(t, s.Status(ctx))
}

func TestImportStopsOnError(t *testing.T) {
	ctx := context.Background()
	d := drivertest.New()
	s := New(d, nil)

	g := aliceAndBob()
	_, err := s.Import(ctx, []model.Item{g.Nodes[0]})
	require.NoError(t, err)

	d.Err = errors.New("boom")
	res, err := s.Import(ctx, g.Items())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 0")
	assert.Equal(t, ImportResult{}, res)
}

func TestStorableProperties(t *testing.T) {
	got := storable(model.Properties{
		"name":     "Alice",
		"age":      25,
		"score":    float32(1.5),
		"tags":     []interface{}{"a", "b"},
		"mixed":    []interface{}{"a", int64(1)},
		"nested":   map[string]interface{}{"k": "v"},
		"_created": true,
		"id":       "ignored",
	}, idKey)

	assert.Equal(t, map[string]interface{}{
		"name":   "Alice",
		"age":    int64(25),
		"score":  float64(1.5),
		"tags":   []interface{}{"a", "b"},
		"mixed":  `["a",1]`,
		"nested": `{"k":"v"}`,
	}, got)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, "`KNOWS`", quoteIdentifier("KNOWS"))
	assert.Equal(t, "`a``b`", quoteIdentifier("a`b"))
}

func TestClose(t *testing.T) {
	d := drivertest.New()
	require.NoError(t, New(d, nil).Close(context.Background()))
	assert.True(t, d.Closed)
}
