// Package store reconciles extracted graph items with a Neo4j database.
//
// Every node is written as (:Entity:<Type> {id}) with one MERGE per node in
// its own transaction. Re-importing the same items is idempotent: existing
// properties are merged, never duplicated.
package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/infoase/internal/core/model"
	"github.com/agenthands/infoase/internal/driver"
	"github.com/agenthands/infoase/internal/logger"
	"github.com/agenthands/infoase/internal/metrics"
)

type Store struct {
	driver driver.GraphDriver
	log    *logger.Logger
}

func New(d driver.GraphDriver, log *logger.Logger) *Store {
	return &Store{driver: d, log: logger.OrNop(log)}
}

// ImportResult counts what an import changed. Diagnostics list the items
// that were skipped.
type ImportResult struct {
	NodesCreated         int               `json:"nodes_created"`
	NodesMerged          int               `json:"nodes_merged"`
	RelationshipsCreated int               `json:"relationships_created"`
	RelationshipsMerged  int               `json:"relationships_merged"`
	Diagnostics          model.Diagnostics `json:"diagnostics,omitempty"`
}

// Stats is a database size snapshot.
type Stats struct {
	Nodes         int64 `json:"nodes"`
	Relationships int64 `json:"relationships"`
}

// UpsertNode creates the node or merges its properties into the existing
// one and resets its labels to Entity plus the node type. It reports
// whether the node was created by this call.
func (s *Store) UpsertNode(ctx context.Context, node model.Node) (bool, model.Diagnostics, error) {
	var diags model.Diagnostics
	if node.ID == "" || node.Type == "" {
		diags.Add(model.DiagInvalidNode, node.ID, "node needs an id and a type, got id %q type %q", node.ID, node.Type)
		metrics.StoreUpserts.WithLabelValues("node", metrics.OutcomeSkipped).Inc()
		return false, diags, nil
	}

	res, err := s.driver.ExecuteQuery(ctx, driver.UpsertNodeQuery, map[string]interface{}{
		"id":         node.ID,
		"type":       node.Type,
		"properties": storable(node.Properties, idKey),
	})
	if err != nil {
		metrics.StoreUpserts.WithLabelValues("node", metrics.OutcomeFailure).Inc()
		return false, nil, classify("upsert node "+node.ID, err)
	}
	if len(res.Records) == 0 {
		diags.Add(model.DiagNodeNotWritten, node.ID, "failed to create or match node with id %q", node.ID)
		metrics.StoreUpserts.WithLabelValues("node", metrics.OutcomeSkipped).Inc()
		return false, diags, nil
	}

	created := boolValue(res.Records[0], "created")
	metrics.StoreUpserts.WithLabelValues("node", outcome(created)).Inc()
	return created, nil, nil
}

// UpsertRelationship merges a typed relationship between two existing
// nodes. When either endpoint is missing nothing is written and a
// missing_endpoint diagnostic is returned.
func (s *Store) UpsertRelationship(ctx context.Context, rel model.Relationship) (bool, model.Diagnostics, error) {
	var diags model.Diagnostics
	subject := rel.Source.ID + " -" + rel.Type + "-> " + rel.Target.ID
	if rel.Type == "" || rel.Source.ID == "" || rel.Target.ID == "" {
		diags.Add(model.DiagInvalidRelationship, subject, "relationship needs a type and both endpoint ids")
		metrics.StoreUpserts.WithLabelValues("relationship", metrics.OutcomeSkipped).Inc()
		return false, diags, nil
	}

	params := map[string]interface{}{
		"start_id":   rel.Source.ID,
		"end_id":     rel.Target.ID,
		"type":       rel.Type,
		"properties": storable(rel.Properties),
	}
	query := fmt.Sprintf(driver.UpsertRelationshipQueryTemplate, quoteIdentifier(rel.Type))

	res, err := s.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		metrics.StoreUpserts.WithLabelValues("relationship", metrics.OutcomeFailure).Inc()
		return false, nil, classify("upsert relationship "+subject, err)
	}
	if len(res.Records) > 0 {
		created := boolValue(res.Records[0], "created")
		metrics.StoreUpserts.WithLabelValues("relationship", outcome(created)).Inc()
		return created, nil, nil
	}

	metrics.StoreUpserts.WithLabelValues("relationship", metrics.OutcomeSkipped).Inc()
	missing, err := s.missingEndpoints(ctx, rel.Source.ID, rel.Target.ID)
	if err != nil {
		return false, nil, err
	}
	diags.Add(model.DiagMissingEndpoint, missing,
		"cannot create relationship %s because node %s does not exist", rel.Type, missing)
	return false, diags, nil
}

func (s *Store) missingEndpoints(ctx context.Context, startID, endID string) (string, error) {
	res, err := s.driver.ExecuteQuery(ctx, driver.EndpointProbeQuery, map[string]interface{}{
		"start_id": startID,
		"end_id":   endID,
	})
	if err != nil {
		return "", classify("probe endpoints", err)
	}
	if len(res.Records) == 0 {
		return startID + ", " + endID, nil
	}
	rec := res.Records[0]
	hasStart, hasEnd := boolValue(rec, "has_start"), boolValue(rec, "has_end")
	switch {
	case !hasStart && !hasEnd:
		return startID + ", " + endID, nil
	case !hasStart:
		return startID, nil
	case !hasEnd:
		return endID, nil
	default:
		// Both present again: an endpoint was re-created after the upsert.
		return startID + ", " + endID, nil
	}
}

// Import upserts items strictly in the given order. Relationships should
// therefore follow the nodes they connect. On error the counts so far are
// returned with it.
func (s *Store) Import(ctx context.Context, items []model.Item) (ImportResult, error) {
	var res ImportResult
	for i, item := range items {
		switch it := item.(type) {
		case model.Node:
			created, diags, err := s.UpsertNode(ctx, it)
			if err != nil {
				return res, fmt.Errorf("item %d: %w", i, err)
			}
			res.Diagnostics = append(res.Diagnostics, diags...)
			if len(diags) == 0 {
				if created {
					res.NodesCreated++
				} else {
					res.NodesMerged++
				}
			}
		case model.Relationship:
			created, diags, err := s.UpsertRelationship(ctx, it)
			if err != nil {
				return res, fmt.Errorf("item %d: %w", i, err)
			}
			res.Diagnostics = append(res.Diagnostics, diags...)
			if len(diags) == 0 {
				if created {
					res.RelationshipsCreated++
				} else {
					res.RelationshipsMerged++
				}
			}
		}
	}

	s.log.Info("import finished",
		"items", len(items),
		"nodes_created", res.NodesCreated,
		"nodes_merged", res.NodesMerged,
		"relationships_created", res.RelationshipsCreated,
		"relationships_merged", res.RelationshipsMerged,
		"skipped", len(res.Diagnostics),
	)
	return res, nil
}

func (s *Store) ImportGraph(ctx context.Context, g model.Graph) (ImportResult, error) {
	return s.Import(ctx, g.Items())
}

// ImportFragments imports each fragment's nodes ahead of its relationships.
func (s *Store) ImportFragments(ctx context.Context, fragments []model.Fragment) (ImportResult, error) {
	var items []model.Item
	for _, f := range fragments {
		items = append(items, f.Items()...)
	}
	return s.Import(ctx, items)
}

// Cleanup empties the database in three batched phases.
func (s *Store) Cleanup(ctx context.Context) error {
	for _, q := range driver.CleanupQueries {
		if err := s.driver.Run(ctx, q, nil); err != nil {
			return classify("cleanup", err)
		}
	}
	s.log.Info("database emptied")
	return nil
}

// Export reads the whole database back as a graph ordered by id. The node
// type is its first label other than Entity; the id and _created keys are
// not repeated in the properties. Relationships whose endpoints
// have no id are skipped.
func (s *Store) Export(ctx context.Context) (model.Graph, error) {
	nodeRes, err := s.driver.ExecuteQuery(ctx, driver.ExportNodesQuery, nil)
	if err != nil {
		return model.Graph{}, classify("export nodes", err)
	}

	g := model.Graph{
		Nodes:         make([]model.Node, 0, len(nodeRes.Records)),
		Relationships: []model.Relationship{},
	}
	byID := make(map[string]model.Node, len(nodeRes.Records))
	for _, rec := range nodeRes.Records {
		id := stringValue(rec, "id")
		if id == "" {
			continue
		}
		n := model.Node{
			ID:         id,
			Type:       typeLabel(rec),
			Properties: exportedProperties(rec, idKey),
		}
		byID[id] = n
		g.Nodes = append(g.Nodes, n)
	}

	relRes, err := s.driver.ExecuteQuery(ctx, driver.ExportRelationshipsQuery, nil)
	if err != nil {
		return model.Graph{}, classify("export relationships", err)
	}
	for _, rec := range relRes.Records {
		source, ok := byID[stringValue(rec, "start_id")]
		if !ok {
			continue
		}
		target, ok := byID[stringValue(rec, "end_id")]
		if !ok {
			continue
		}
		g.Relationships = append(g.Relationships, model.Relationship{
			Source:     source,
			Target:     target,
			Type:       stringValue(rec, "type"),
			Properties: exportedProperties(rec),
		})
	}
	return g, nil
}

// Status checks that the database is reachable with the configured
// credentials.
func (s *Store) Status(ctx context.Context) error {
	return classify("verify connectivity", s.driver.VerifyConnectivity(ctx))
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	res, err := s.driver.ExecuteQuery(ctx, driver.CountQuery, nil)
	if err != nil {
		return Stats{}, classify("count", err)
	}
	if len(res.Records) == 0 {
		return Stats{}, nil
	}
	return Stats{
		Nodes:         intValue(res.Records[0], "nodes"),
		Relationships: intValue(res.Records[0], "relationships"),
	}, nil
}

// BuildIndices installs the schema. It is best-effort.
func (s *Store) BuildIndices(ctx context.Context) error {
	return s.driver.BuildIndices(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func outcome(created bool) string {
	if created {
		return metrics.OutcomeCreated
	}
	return metrics.OutcomeMerged
}

func typeLabel(rec *neo4j.Record) string {
	v, _ := rec.Get("labels")
	labels, _ := v.([]interface{})
	for _, l := range labels {
		if s, ok := l.(string); ok && s != driver.EntityLabel {
			return s
		}
	}
	return ""
}

func exportedProperties(rec *neo4j.Record, dropKeys ...string) model.Properties {
	v, _ := rec.Get("properties")
	raw, _ := v.(map[string]interface{})
	props := make(model.Properties, len(raw))
	for k, val := range raw {
		if k == model.CreatedKey || contains(dropKeys, k) {
			continue
		}
		props[k] = val
	}
	return props
}

func stringValue(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func boolValue(rec *neo4j.Record, key string) bool {
	v, _ := rec.Get(key)
	b, _ := v.(bool)
	return b
}

func intValue(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	i, _ := v.(int64)
	return i
}
