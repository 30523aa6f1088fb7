// Package config provides configuration loading and validation for stowgate.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (STOWGATE_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with STOWGATE_ prefix:
//   - server.port → STOWGATE_SERVER_PORT
//   - server.cache_control → STOWGATE_SERVER_CACHE_CONTROL
//   - s3.bucket → STOWGATE_S3_BUCKET
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: ports, CORS origin, default cache-control, key prefix, index
//     and not-found files, directory listing
//   - Store: backend type (s3 or local)
//   - S3: bucket binding, region, endpoint and credentials
//   - Database, Storage: catalog and file tree for the local store
//   - Cache: in-process response cache sizing
//   - CORS: full preflight handling
//   - Log: logging level
//
// # Validation
//
// Configuration is validated using struct tags:
//   - Port must be 1-65535
//   - Store type must be s3 or local; s3 requires a bucket
//   - Log level must be debug, info, warn, or error
package config
