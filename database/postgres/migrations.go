package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/stowgate"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

func getTableMigrations(tables stowgate.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.MetaData,
			Up:        createMetaTable(tables.MetaData),
			Down:      dropTable(tables.MetaData),
		},
	}
}

// createMetaTable creates the catalog table. The text_pattern_ops index
// serves prefix LIKE queries regardless of the database collation.
func createMetaTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		indexKeyPattern := pgx.Identifier{fmt.Sprintf("idx_%s_key_pattern", tableName)}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				object_key TEXT NOT NULL UNIQUE,
				size_bytes BIGINT NOT NULL,
				etag TEXT NOT NULL,
				uploaded_at TIMESTAMPTZ NOT NULL,
				content_type TEXT NOT NULL DEFAULT '',
				cache_control TEXT NOT NULL DEFAULT '',
				content_encoding TEXT NOT NULL DEFAULT '',
				content_language TEXT NOT NULL DEFAULT '',
				content_disposition TEXT NOT NULL DEFAULT '',
				cache_expiry TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (object_key text_pattern_ops);
		`,
			quotedTable,
			indexKeyPattern, quotedTable,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create meta table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}
