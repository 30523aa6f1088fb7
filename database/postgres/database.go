package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/stowgate"
)

type database struct {
	pool   *pgxpool.Pool
	tables stowgate.Tables
}

// Connect establishes a connection to PostgreSQL.
// Tables should be validated before calling Connect.
func Connect(ctx context.Context, dsn string, tables stowgate.Tables) (*database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{
		pool:   pool,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	for _, migration := range getTableMigrations(d.tables) {
		if err := migration.Up(ctx, d.pool); err != nil {
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
		if err := migration.Down(ctx, d.pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	if err := validateCatalogTable(ctx, d.pool, d.tables.MetaData); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// GetRepo returns the CatalogRepo for database operations.
func (d *database) GetRepo() stowgate.CatalogRepo {
	return &repo{pool: d.pool, tableName: d.tables.MetaData}
}

// Close closes the database connection pool.
func (d *database) Close() error {
	d.pool.Close()
	return nil
}
