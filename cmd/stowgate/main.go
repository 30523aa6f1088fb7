package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "stowgate",
	Short:   "HTTP gateway serving blob store objects as files",
	Long: `Stowgate serves objects from an S3-compatible bucket or a local
catalog-backed directory over HTTP, with range requests, conditional
requests, index files, directory listings and a custom not-found page.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file paths, merged left to right (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("store", "", "object store: s3, local (env: STOWGATE_STORE_TYPE)")
	rootCmd.PersistentFlags().String("bucket", "", "S3 bucket name (env: STOWGATE_S3_BUCKET)")
	rootCmd.PersistentFlags().String("endpoint", "", "S3-compatible endpoint URL (env: STOWGATE_S3_ENDPOINT)")
	rootCmd.PersistentFlags().String("db-type", "", "catalog database type: sqlite, postgres (env: STOWGATE_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "catalog connection string (env: STOWGATE_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "local storage directory (env: STOWGATE_STORAGE_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
