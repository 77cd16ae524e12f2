package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tagmark/tagmark-server/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create a user account",
	Long:  "Create an account regardless of the open registration setting. The password is read from --password, prompted for on a terminal, or taken from the first line of stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			var err error
			if password, err = readPassword(cmd); err != nil {
				return err
			}
		}

		injector, err := openContainer(cmd)
		if err != nil {
			return err
		}
		defer shutdown(injector)

		authService, err := do.Invoke[*service.AuthService](injector)
		if err != nil {
			return err
		}

		user, err := authService.CreateUser(cmd.Context(), args[0], password)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

// readPassword prompts without echo on a terminal and otherwise reads
// the first line of stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pass, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimSpace(string(pass)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("password required: pass --password or pipe it on stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	userAddCmd.Flags().String("password", "", "Account password")
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}
