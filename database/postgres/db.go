package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/internal"
)

var catalogColumns = map[string]internal.Column{
	"id":                  {Type: "uuid"},
	"object_key":          {Type: "text"},
	"size_bytes":          {Type: "bigint"},
	"etag":                {Type: "text"},
	"uploaded_at":         {Type: "timestamp with time zone"},
	"content_type":        {Type: "text"},
	"cache_control":       {Type: "text"},
	"content_encoding":    {Type: "text"},
	"content_language":    {Type: "text"},
	"content_disposition": {Type: "text"},
	"cache_expiry":        {Type: "timestamp with time zone", Nullable: true},
	"created_at":          {Type: "timestamp with time zone"},
	"updated_at":          {Type: "timestamp with time zone"},
}

// readColumns returns the columns of table in the current schema.
func readColumns(ctx context.Context, pool *pgxpool.Pool, table string) (map[string]internal.Column, error) {
	if !stowgate.IsValidTableName(table) {
		return nil, fmt.Errorf("read columns: invalid table name: %s", table)
	}

	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]internal.Column)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("read columns: scan: %w", err)
		}
		columns[name] = internal.Column{Type: dataType, Nullable: nullable == "YES"}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}

func validateCatalogTable(ctx context.Context, pool *pgxpool.Pool, table string) error {
	got, err := readColumns(ctx, pool, table)
	if err != nil {
		return err
	}
	return internal.CompareColumns(table, catalogColumns, got)
}
