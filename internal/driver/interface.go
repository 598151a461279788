package driver

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type GraphDriver interface {
	// ExecuteQuery runs query in one managed transaction and returns the
	// fully buffered result.
	ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error)
	// Run executes query as an auto-commit statement, as CALL { } IN
	// TRANSACTIONS requires.
	Run(ctx context.Context, query string, params map[string]interface{}) error
	VerifyConnectivity(ctx context.Context) error
	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
