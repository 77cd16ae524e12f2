package main

import (
	"errors"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/tagmark/tagmark-server/internal/di/providers"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the full-text search index",
	Long:  "Drop the search index and rebuild it from every bookmark in the database. Stop the server first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		injector, err := openContainer(cmd)
		if err != nil {
			return err
		}
		defer shutdown(injector)

		handle, err := do.Invoke[*providers.SearchHandle](injector)
		if err != nil {
			return err
		}
		if handle.Service == nil {
			return errors.New("search is disabled in this configuration")
		}

		if err := handle.Service.ReindexAll(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reindex: %w", err)
		}

		count, err := handle.Service.DocumentCount()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d bookmarks\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
