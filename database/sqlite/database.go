package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/stowgate"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables stowgate.Tables
}

// Connect establishes a connection to SQLite.
// Tables should be validated before calling Connect.
//
// The pool is limited to one connection: SQLite serializes writers anyway,
// and an in-memory DSN is private to the connection that opened it.
func Connect(ctx context.Context, dsn string, tables stowgate.Tables) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	for _, migration := range getTableMigrations(d.tables) {
		if err := migration.Up(ctx, d.db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

// Drop removes every table created by Migrate, in reverse order.
func (d *database) Drop(ctx context.Context) error {
	migrations := getTableMigrations(d.tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, d.db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	if err := validateCatalogTable(ctx, d.db, d.tables.MetaData); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// GetRepo returns the CatalogRepo for database operations.
func (d *database) GetRepo() stowgate.CatalogRepo {
	return &repo{db: d.db, tableName: d.tables.MetaData}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
