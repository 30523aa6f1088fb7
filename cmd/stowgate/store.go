package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/config"
	"github.com/sagarc03/stowgate/database"
	"github.com/sagarc03/stowgate/filesystem"
	s3store "github.com/sagarc03/stowgate/s3"
)

// openStore builds the configured object store. The returned cleanup
// function releases its connections.
func openStore(ctx context.Context, cfg *config.Config) (stowgate.ObjectStore, func(), error) {
	switch cfg.Store.Type {
	case config.StoreS3:
		client, err := s3store.NewClient(ctx, s3store.ClientConfig{
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create s3 client: %w", err)
		}

		store, err := s3store.New(client, s3store.Config{Bucket: cfg.S3.Bucket})
		if err != nil {
			return nil, nil, fmt.Errorf("create s3 store: %w", err)
		}

		slog.Info("using s3 store", "bucket", cfg.S3.Bucket, "endpoint", cfg.S3.Endpoint)
		return store, func() {}, nil

	case config.StoreLocal:
		catalog, files, cleanup, err := openCatalog(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}

		store, err := stowgate.NewCatalogStore(catalog, files)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create catalog store: %w", err)
		}

		slog.Info("using local store", "path", cfg.Storage.Path, "database", cfg.Database.Type)
		return store, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", cfg.Store.Type)
	}
}

// openCatalog connects the catalog database and opens the storage root.
func openCatalog(ctx context.Context, cfg *config.Config) (stowgate.CatalogRepo, *filesystem.Store, func(), error) {
	if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
		return nil, nil, nil, fmt.Errorf("storage directory does not exist: %s", cfg.Storage.Path)
	}

	repo, closeDB, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	root, err := os.OpenRoot(cfg.Storage.Path)
	if err != nil {
		closeDB()
		return nil, nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	cleanup := func() {
		_ = root.Close()
		closeDB()
	}

	return repo, filesystem.NewFileStorage(root), cleanup, nil
}
