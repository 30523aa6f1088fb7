package main

import (
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sagarc03/stowgate"
	"github.com/sagarc03/stowgate/config"
)

var lsCmd = &cobra.Command{
	Use:   "ls [directory]",
	Short: "List a directory of the configured store",
	Long: `Print the immediate children of a directory the way the directory
listing page shows them. The directory defaults to the store root and is
relative to server.path_prefix.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLs,
}

var lsAll bool

func init() {
	lsCmd.Flags().BoolVarP(&lsAll, "all", "a", false, "include entries starting with a dot")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	dir := "/"
	if len(args) == 1 {
		dir += strings.TrimPrefix(args[0], "/")
	}
	dir = strings.TrimPrefix(cfg.Server.PathPrefix+dir, "/")

	listing, err := stowgate.NewLister(store, !lsAll).List(ctx, dir)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if listing == nil {
		return fmt.Errorf("list %q: %w", dir, stowgate.ErrNotFound)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, e := range listing.Entries {
		if e.IsDirectory {
			_, _ = fmt.Fprintf(w, "%s/\t-\t-\n", e.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", e.Name, e.ModifiedAt.UTC().Format(http.TimeFormat), e.Size)
	}
	return w.Flush()
}
