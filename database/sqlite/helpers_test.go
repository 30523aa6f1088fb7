package sqlite_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/sqlite"
)

func uniqueTable(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// setupTestRepo returns a repo over a migrated in-memory catalog.
func setupTestRepo(t *testing.T) stowgate.CatalogRepo {
	t.Helper()

	ctx := context.Background()
	tables := stowgate.Tables{MetaData: uniqueTable("metadata")}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "migrate")

	return db.GetRepo()
}
