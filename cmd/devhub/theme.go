package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joestump/devhub/internal/session"
)

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the colour theme",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(env *clientEnv) error {
				fmt.Fprintln(cmd.OutOrStdout(), env.session.Theme())
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "set light|dark",
		Short:     "Set the theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(session.Light), string(session.Dark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(env *clientEnv) error {
				if err := env.session.SetTheme(cmd.Context(), session.Theme(args[0])); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), env.session.Theme())
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(env *clientEnv) error {
				t, err := env.session.ToggleTheme(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), t)
				return nil
			})
		},
	})
	return cmd
}
