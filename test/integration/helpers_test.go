//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/infoase/internal/core/store"
	"github.com/agenthands/infoase/internal/driver"
	"github.com/agenthands/infoase/internal/logger"
)

// newStore connects to the database named by NEO4J_CONNECTION_URI and empties
// it. Point it at a throwaway instance.
func newStore(t *testing.T) *store.Store {
	t.Helper()
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("NEO4J_CONNECTION_URI")
	if uri == "" {
		t.Skip("Skipping integration test: NEO4J_CONNECTION_URI not set")
	}

	d, err := driver.NewNeo4jDriver(driver.Config{
		URI:      uri,
		Username: os.Getenv("NEO4J_USER"),
		Password: os.Getenv("NEO4J_PASSWORD"),
		Database: os.Getenv("NEO4J_DATABASE"),
	}, logger.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	s := store.New(d, logger.Nop())
	require.NoError(t, s.Status(ctx))
	require.NoError(t, s.BuildIndices(ctx))
	require.NoError(t, s.Cleanup(ctx))

	t.Cleanup(func() {
		_ = s.Cleanup(ctx)
		_ = s.Close(ctx)
	})
	return s
}
