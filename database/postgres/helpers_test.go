package postgres_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/postgres"
)

var (
	sharedPool    *pgxpool.Pool
	sharedPoolErr error
	sharedOnce    sync.Once
)

// getSharedTestDatabase starts one PostgreSQL container per test binary and
// returns a pool to it. Tests isolate themselves by table name.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	sharedOnce.Do(func() {
		ctx := context.Background()

		container, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("catalog"),
			pgcontainer.WithUsername("stowgate"),
			pgcontainer.WithPassword("stowgate"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			sharedPoolErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = testcontainers.TerminateContainer(container)
			sharedPoolErr = fmt.Errorf("connection string: %w", err)
			return
		}

		sharedPool, sharedPoolErr = pgxpool.New(ctx, dsn)
		if sharedPoolErr != nil {
			_ = testcontainers.TerminateContainer(container)
		}
	})

	require.NoError(t, sharedPoolErr)
	return sharedPool
}

// uniqueTable returns a valid table name no other test uses.
func uniqueTable(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func dropTable(ctx context.Context, pool *pgxpool.Pool, table string) error {
	_, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize()+" CASCADE")
	return err
}

func getDSN(pool *pgxpool.Pool) string {
	return pool.Config().ConnString()
}

// setupTestRepo migrates a fresh catalog table and drops it on cleanup.
func setupTestRepo(t *testing.T) stowgate.CatalogRepo {
	t.Helper()

	pool := getSharedTestDatabase(t)
	ctx := context.Background()
	tables := stowgate.Tables{MetaData: uniqueTable("metadata")}

	db, err := postgres.Connect(ctx, getDSN(pool), tables)
	require.NoError(t, err, "connect")
	require.NoError(t, db.Migrate(ctx), "migrate")

	t.Cleanup(func() {
		_ = db.Close()
		_ = dropTable(ctx, pool, tables.MetaData)
	})

	return db.GetRepo()
}
