package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/santurist/santurist/internal/db"
)

// testPool connects to the database named by ST_TEST_DB_DSN and runs
// migrations. Tests are skipped when the variable is unset so the unit suite
// stays hermetic.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("ST_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("ST_TEST_DB_DSN not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.RunMigrations(ctx, pool))
	return pool
}
