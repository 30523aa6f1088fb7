// Package database provides a unified interface for connecting to catalog backends.
//
// The catalog records the key, size, etag, upload time and HTTP metadata of
// every file served by the local store, and answers the prefix queries used
// for directory listings.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for development and single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "stowgate.db",
//	    Tables: stowgate.Tables{MetaData: "stowgate_metadata"},
//	}
//
//	repo, cleanup, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Open connects, runs schema migrations and validates the schema before
// returning a ready-to-use CatalogRepo. Connect returns the raw Database for
// callers that manage those steps themselves.
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
