package e2e_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgDSN  string
	pgErr  error
	pgOnce sync.Once
)

// getSharedPostgresDatabase starts one PostgreSQL container for all e2e
// tests and returns its DSN. Each server run migrates its own catalog table,
// so tests sharing the DSN see each other's rows only through init.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()

		container, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("stowgate"),
			pgcontainer.WithUsername("stowgate"),
			pgcontainer.WithPassword("stowgate"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			pgErr = fmt.Errorf("start postgres container: %w", err)
			return
		}

		pgDSN, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = testcontainers.TerminateContainer(container)
			pgErr = fmt.Errorf("connection string: %w", err)
		}
	})

	require.NoError(t, pgErr)
	return pgDSN
}
