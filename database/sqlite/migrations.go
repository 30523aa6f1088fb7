package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/stowgate"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the app
func getTableMigrations(tables stowgate.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.MetaData,
			Up:        createMetaTable(tables.MetaData),
			Down:      dropTable(tables.MetaData),
		},
	}
}

func createMetaTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexUploaded := quoteIdentifier(fmt.Sprintf("idx_%s_uploaded_at", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				object_key TEXT NOT NULL UNIQUE,
				size_bytes INTEGER NOT NULL,
				etag TEXT NOT NULL,
				uploaded_at TEXT NOT NULL,
				content_type TEXT NOT NULL DEFAULT '',
				cache_control TEXT NOT NULL DEFAULT '',
				content_encoding TEXT NOT NULL DEFAULT '',
				content_language TEXT NOT NULL DEFAULT '',
				content_disposition TEXT NOT NULL DEFAULT '',
				cache_expiry TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (uploaded_at)
		`, indexUploaded, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index uploaded_at: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
