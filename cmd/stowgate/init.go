package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the local catalog from storage files",
	Long: `Scan the storage directory and populate the catalog database
with entries for all existing files. Run this when:
  - Setting up the local store with existing files
  - Files were added, replaced or touched on disk
  - Recovering the catalog after database loss`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if cfg.Store.Type != config.StoreLocal {
		return fmt.Errorf("init requires the local store, configured store is %s", cfg.Store.Type)
	}

	repo, files, cleanup, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := stowgate.NewCatalogStore(repo, files)
	if err != nil {
		return fmt.Errorf("create catalog store: %w", err)
	}

	slog.Info("scanning storage directory", "path", cfg.Storage.Path)

	result, err := store.Populate(ctx)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	for _, key := range result.Skipped {
		slog.Warn("skipped file with invalid key", "key", key)
	}

	slog.Info("initialization complete",
		"created", result.Created,
		"updated", result.Updated,
		"skipped", len(result.Skipped),
	)
	return nil
}
