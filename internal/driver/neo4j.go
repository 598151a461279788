package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/infoase/internal/logger"
)

// DefaultMaxConnectionLifetime keeps pooled connections below the idle
// timeout of hosted AuraDB instances.
const DefaultMaxConnectionLifetime = 200 * time.Second

type Config struct {
	URI                   string
	Username              string
	Password              string
	Database              string
	MaxConnectionLifetime time.Duration
}

type Neo4jDriver struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger
}

// NewNeo4jDriver creates the connection pool. It does not dial; use
// VerifyConnectivity to check the instance is reachable.
func NewNeo4jDriver(cfg Config, log *logger.Logger) (*Neo4jDriver, error) {
	lifetime := cfg.MaxConnectionLifetime
	if lifetime <= 0 {
		lifetime = DefaultMaxConnectionLifetime
	}

	d, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionLifetime = lifetime
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver for %s: %w", cfg.URI, err)
	}

	return &Neo4jDriver{
		Driver:   d,
		Database: cfg.Database,
		log:      logger.OrNop(log).With("component", "neo4j", "uri", cfg.URI),
	}, nil
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) VerifyConnectivity(ctx context.Context) error {
	return d.Driver.VerifyConnectivity(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.Database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.Database))
	}
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *Neo4jDriver) Run(ctx context.Context, query string, params map[string]interface{}) error {
	session := d.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.Database,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("failed to run statement: %w", err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("failed to run statement: %w", err)
	}
	return nil
}

// BuildIndices creates the schema the store relies on. Failures are logged
// and skipped since restricted users may not manage schema.
func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	for _, q := range SchemaQueries {
		if err := d.Run(ctx, q, nil); err != nil {
			d.log.Warn("schema statement failed (continuing)", "query", q, "error", err)
		}
	}
	return nil
}
