package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joestump/devhub/internal/devhub"
)

func newDevelopersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "developers",
		Aliases: []string{"devs"},
		Short:   "Browse the developer directory",
	}

	var args devhub.DeveloperListArgs
	list := &cobra.Command{
		Use:   "list",
		Short: "List developers, one page at a time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(env *clientEnv) error {
				page, err := env.data.Developers(cmd.Context(), args)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSKILLS")
				for _, d := range page.Developers {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", d.ID, d.Name, strings.Join(d.Skills, ", "))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d developers)\n", page.Page, page.TotalPages(), page.TotalCount)
				return nil
			})
		},
	}
	list.Flags().IntVarP(&args.Page, "page", "p", devhub.DefaultPage, "page number")
	list.Flags().IntVarP(&args.Limit, "limit", "l", devhub.DefaultLimit, "developers per page")
	list.Flags().StringVarP(&args.Search, "search", "s", "", "name contains (case-sensitive)")
	list.Flags().StringVar(&args.Language, "language", "", "any skill contains (case-sensitive)")

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show one developer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(argv[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(env *clientEnv) error {
				d, err := env.data.Developer(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (#%d)\n%s\n\nSkills: %s\n", d.Name, d.ID, d.Bio, strings.Join(d.Skills, ", "))
				if d.Social.GitHub != nil {
					fmt.Fprintf(out, "GitHub: %s\n", *d.Social.GitHub)
				}
				if d.Social.LinkedIn != nil {
					fmt.Fprintf(out, "LinkedIn: %s\n", *d.Social.LinkedIn)
				}
				for _, b := range d.Blogs {
					fmt.Fprintf(out, "  blog %d: %s\n", b.ID, b.Title)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(list, get)
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
