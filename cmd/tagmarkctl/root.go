package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/tagmark/tagmark-server/internal/config"
	"github.com/tagmark/tagmark-server/internal/di"
	"github.com/tagmark/tagmark-server/internal/service"
)

var rootCmd = &cobra.Command{
	Use:           "tagmarkctl",
	Short:         "Administer a Tagmark server",
	Long:          "Manage users, import and export bookmarks, and rebuild the search index of a Tagmark data directory.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("data-path", "", "Data directory (default: ~/Tagmark)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

// openContainer builds the core service graph from the persistent flags.
// Callers must shut the returned scope down.
func openContainer(cmd *cobra.Command) (*do.RootScope, error) {
	args := make([]string, 0, 6)
	for _, name := range []string{"data-path", "env-file", "log-level"} {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			args = append(args, "-"+name, v)
		}
	}

	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	injector := di.NewContainer()
	do.OverrideValue(injector, cfg)
	return injector, nil
}

// resolveUser looks up an account by email.
func resolveUser(ctx context.Context, injector do.Injector, email string) (string, error) {
	authService, err := do.Invoke[*service.AuthService](injector)
	if err != nil {
		return "", err
	}
	user, err := authService.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// shutdown closes every service the command touched.
func shutdown(injector *do.RootScope) {
	if err := injector.Shutdown(); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown:", err)
	}
}
