package driver

// EntityLabel is carried by every stored node next to its type label.
const EntityLabel = "Entity"

var SchemaQueries = []string{
	`CREATE CONSTRAINT entity_id_unique IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE`,
}

const (
	UpsertNodeQuery = `
		MERGE (n:Entity {id: $id})
		ON CREATE SET n = $properties, n.id = $id, n._created = true
		ON MATCH SET n += $properties, n._created = false
		WITH n
		CALL apoc.create.setLabels(n, ['Entity', $type]) YIELD node
		RETURN node._created AS created
	`

	// UpsertRelationshipQueryTemplate takes the quoted relationship type.
	// Endpoints are matched on id alone, whatever their labels.
	UpsertRelationshipQueryTemplate = `
		MATCH (a {id: $start_id})
		MATCH (b {id: $end_id})
		MERGE (a)-[r:%s]->(b)
		ON CREATE SET r = $properties, r._created = true
		ON MATCH SET r += $properties, r._created = false
		RETURN r._created AS created
	`

	EndpointProbeQuery = `
		OPTIONAL MATCH (a {id: $start_id})
		WITH count(a) > 0 AS has_start
		OPTIONAL MATCH (b {id: $end_id})
		RETURN has_start, count(b) > 0 AS has_end
	`

	ExportNodesQuery = `
		MATCH (n)
		WHERE n.id IS NOT NULL
		RETURN n.id AS id, labels(n) AS labels, properties(n) AS properties
		ORDER BY n.id
	`

	ExportRelationshipsQuery = `
		MATCH (a)-[r]->(b)
		RETURN a.id AS start_id, b.id AS end_id, type(r) AS type, properties(r) AS properties
		ORDER BY a.id, type(r), b.id
	`

	CountQuery = `
		OPTIONAL MATCH (n)
		WITH count(n) AS nodes
		OPTIONAL MATCH ()-[r]->()
		RETURN nodes, count(r) AS relationships
	`
)

// CleanupQueries empty the database in batches of 50000 rows, relationships
// before nodes.
var CleanupQueries = []string{
	`MATCH ()-[r]->() CALL { WITH r DELETE r } IN TRANSACTIONS OF 50000 ROWS`,
	`MATCH (n) CALL { WITH n SET n = {} } IN TRANSACTIONS OF 50000 ROWS`,
	`MATCH (n) CALL { WITH n DETACH DELETE n } IN TRANSACTIONS OF 50000 ROWS`,
}
