package main

import (
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/tagmark/tagmark-server/internal/di/providers"
	"github.com/tagmark/tagmark-server/internal/service"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a Netscape bookmark file",
	Long:  "Import every link in a browser bookmark export into the account given by --user. Use - to read stdin. Stop the server first so the search index can be opened.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("user")

		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}

		injector, err := openContainer(cmd)
		if err != nil {
			return err
		}
		defer shutdown(injector)

		userID, err := resolveUser(cmd.Context(), injector, email)
		if err != nil {
			return err
		}

		// Opening search attaches the index to the store, so imported
		// bookmarks are searchable without a reindex.
		if _, err := do.Invoke[*providers.SearchHandle](injector); err != nil {
			return err
		}

		transfer, err := do.Invoke[*service.TransferService](injector)
		if err != nil {
			return err
		}

		result, err := transfer.Import(cmd.Context(), userID, r)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %d bookmarks (%d failed)\n", result.Imported, result.Failed)
		for _, msg := range result.Errors {
			fmt.Fprintf(out, "  %s\n", msg)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export bookmarks as a Netscape bookmark file",
	Long:  "Write every bookmark owned by --user as a browser-importable HTML file, to --output or stdout.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("user")
		output, _ := cmd.Flags().GetString("output")

		injector, err := openContainer(cmd)
		if err != nil {
			return err
		}
		defer shutdown(injector)

		userID, err := resolveUser(cmd.Context(), injector, email)
		if err != nil {
			return err
		}

		transfer, err := do.Invoke[*service.TransferService](injector)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if err := transfer.Export(cmd.Context(), userID, w); err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("user", "", "Email of the account that will own the bookmarks")
	_ = importCmd.MarkFlagRequired("user")

	exportCmd.Flags().String("user", "", "Email of the account to export")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	_ = exportCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(importCmd, exportCmd)
}
