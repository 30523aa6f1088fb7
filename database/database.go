package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/database/postgres"
	"github.com/sagarc03/stowgate/database/sqlite"
)

// Database is a catalog backend connection.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() stowgate.CatalogRepo
	Close() error
}

// Config holds the configuration for connecting to a catalog backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required"`
	// Tables holds the catalog table names
	Tables stowgate.Tables `mapstructure:"tables"`
}

// Connect opens the configured backend. Callers run Migrate and Validate
// before using the repo.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Tables)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects, migrates and validates the backend, returning a ready
// CatalogRepo. The returned cleanup function closes the connection.
func Open(ctx context.Context, cfg Config) (stowgate.CatalogRepo, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.GetRepo(), cleanup, nil
}
