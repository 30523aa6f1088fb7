package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/internal"
)

// catalogColumns is the schema created by the catalog migration. SQLite
// stores timestamps as RFC 3339 text.
var catalogColumns = map[string]internal.Column{
	"id":                  {Type: "text"},
	"object_key":          {Type: "text"},
	"size_bytes":          {Type: "integer"},
	"etag":                {Type: "text"},
	"uploaded_at":         {Type: "text"},
	"content_type":        {Type: "text"},
	"cache_control":       {Type: "text"},
	"content_encoding":    {Type: "text"},
	"content_language":    {Type: "text"},
	"content_disposition": {Type: "text"},
	"cache_expiry":        {Type: "text", Nullable: true},
	"created_at":          {Type: "text"},
	"updated_at":          {Type: "text"},
}

// readColumns returns the columns of table from PRAGMA table_info, which
// yields no rows for a missing table.
func readColumns(ctx context.Context, db *sql.DB, table string) (map[string]internal.Column, error) {
	if !stowgate.IsValidTableName(table) {
		return nil, fmt.Errorf("read columns: invalid table name: %s", table)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns := make(map[string]internal.Column)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("read columns: scan: %w", err)
		}
		columns[name] = internal.Column{Type: dataType, Nullable: notNull == 0}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	return columns, nil
}

func validateCatalogTable(ctx context.Context, db *sql.DB, table string) error {
	got, err := readColumns(ctx, db, table)
	if err != nil {
		return err
	}
	return internal.CompareColumns(table, catalogColumns, got)
}
