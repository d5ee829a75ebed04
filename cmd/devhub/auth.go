package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/joestump/devhub/internal/session"
)

func newLoginCmd() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(env *clientEnv) error {
				out := cmd.OutOrStdout()
				in := bufio.NewReader(cmd.InOrStdin())

				if username == "" {
					fmt.Fprint(out, "Username: ")
					line, err := in.ReadString('\n')
					if err != nil && err != io.EOF {
						return err
					}
					username = strings.TrimSpace(line)
				}
				password, err := readPassword(out, in)
				if err != nil {
					return err
				}

				if err := env.session.Login(cmd.Context(), username, password); err != nil {
					if st := env.session.State(); st.Status == session.Failed {
						return fmt.Errorf("login failed: %s", st.Error)
					}
					return err
				}
				fmt.Fprintf(out, "Logged in as %s\n", env.session.State().User.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	return cmd
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(out io.Writer, in *bufio.Reader) (string, error) {
	fmt.Fprint(out, "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(env *clientEnv) error {
				env.session.Logout(cmd.Context())
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(env *clientEnv) error {
				st := env.session.State()
				if st.Status != session.SignedIn {
					fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", st.User.Username, st.User.ID)
				return nil
			})
		},
	}
}
