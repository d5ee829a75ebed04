package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/joestump/devhub/internal/devhub"
)

func newBlogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blogs",
		Short: "Read and write blog posts",
	}
	cmd.AddCommand(
		newBlogsListCmd(),
		newBlogsGetCmd(),
		newBlogsCreateCmd(),
		newBlogsUpdateCmd(),
		newBlogsDeleteCmd(),
		newBlogsCommentCmd(),
	)
	return cmd
}

func newBlogsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every blog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(env *clientEnv) error {
				blogs, err := env.data.Blogs(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDATE\tAUTHOR\tTITLE")
				for _, b := range blogs {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.ID, b.Date.Format("2006-01-02"), b.AuthorName, b.Title)
				}
				return tw.Flush()
			})
		},
	}
}

func newBlogsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a blog with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(argv[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(env *clientEnv) error {
				b, err := env.data.Blog(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s\nby %s on %s\n\n%s\n\n%s\n", b.Title, b.AuthorName, b.Date.Format("January 2, 2006"), b.Excerpt, b.Content)
				fmt.Fprintf(out, "\n%d comments\n", len(b.Comments))
				for _, c := range b.Comments {
					fmt.Fprintf(out, "- %s (%s): %s\n", c.Author, c.Date.Format("2006-01-02"), c.Content)
				}
				return nil
			})
		},
	}
}

// blogFlags binds the editable blog fields. Content may come from a file,
// or from stdin with "-".
type blogFlags struct {
	title, excerpt, content, contentFile string
}

func (f *blogFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "title (at least 5 characters)")
	cmd.Flags().StringVarP(&f.excerpt, "excerpt", "e", "", "excerpt (at least 10 characters)")
	cmd.Flags().StringVarP(&f.content, "content", "c", "", "markdown content (at least 50 characters)")
	cmd.Flags().StringVar(&f.contentFile, "content-file", "", "read content from a file, or - for stdin")
}

func (f *blogFlags) input(cmd *cobra.Command) (devhub.BlogInput, error) {
	content := f.content
	if f.contentFile != "" {
		var b []byte
		var err error
		if f.contentFile == "-" {
			b, err = io.ReadAll(cmd.InOrStdin())
		} else {
			b, err = os.ReadFile(f.contentFile)
		}
		if err != nil {
			return devhub.BlogInput{}, fmt.Errorf("read content: %w", err)
		}
		content = string(b)
	}
	return devhub.BlogInput{Title: f.title, Excerpt: f.excerpt, Content: content}, nil
}

func newBlogsCreateCmd() *cobra.Command {
	var flags blogFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a blog as the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(env *clientEnv) error {
				user, err := env.signedInUser()
				if err != nil {
					return err
				}
				in.AuthorID, in.AuthorName = user.ID, user.Username
				b, err := env.data.CreateBlog(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created blog %d\n", b.ID)
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newBlogsUpdateCmd() *cobra.Command {
	var flags blogFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit one of your blogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(argv[0])
			if err != nil {
				return err
			}
			in, err := flags.input(cmd)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(env *clientEnv) error {
				user, err := env.signedInUser()
				if err != nil {
					return err
				}
				current, err := env.data.Blog(cmd.Context(), id)
				if err != nil {
					return err
				}
				if current.AuthorID != user.ID {
					return fmt.Errorf("blog %d belongs to %s", id, current.AuthorName)
				}
				// Unset flags keep the current values.
				if in.Title == "" {
					in.Title = current.Title
				}
				if in.Excerpt == "" {
					in.Excerpt = current.Excerpt
				}
				if in.Content == "" {
					in.Content = current.Content
				}
				in.AuthorID, in.AuthorName = current.AuthorID, current.AuthorName

				if _, err := env.data.UpdateBlog(cmd.Context(), id, in); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated blog %d\n", id)
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newBlogsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your blogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(argv[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(env *clientEnv) error {
				user, err := env.signedInUser()
				if err != nil {
					return err
				}
				current, err := env.data.Blog(cmd.Context(), id)
				if err != nil {
					return err
				}
				if current.AuthorID != user.ID {
					return fmt.Errorf("blog %d belongs to %s", id, current.AuthorName)
				}
				if err := env.data.DeleteBlog(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted blog %d\n", id)
				return nil
			})
		},
	}
}

func newBlogsCommentCmd() *cobra.Command {
	var author, content string
	cmd := &cobra.Command{
		Use:   "comment ID",
		Short: "Comment on a blog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(argv[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(env *clientEnv) error {
				name := author
				if name == "" {
					if user, err := env.signedInUser(); err == nil {
						name = user.Username
					}
				}
				c, err := env.data.AddComment(cmd.Context(), devhub.CommentInput{BlogID: id, Author: name, Content: content})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added comment %d\n", c.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&author, "author", "a", "", "display name (default: signed-in username)")
	cmd.Flags().StringVarP(&content, "content", "c", "", "comment text")
	return cmd
}
