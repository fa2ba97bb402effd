// Package comments implements the comment command group
package comments

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/faunagram-go/internal/app"
	"github.com/tphakala/faunagram-go/internal/conf"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/view"
)

// Command returns the comment command group. Comments are addressed through
// the sighting they belong to.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write comments on sightings",
	}

	cmd.AddCommand(
		listCommand(settings),
		postCommand(settings),
		replyCommand(settings),
		repliesCommand(settings),
		deleteCommand(settings),
	)
	return cmd
}

// withComments mounts the comment section of sighting args[0] around fn
func withComments(cmd *cobra.Command, settings *conf.Settings, args []string, fn func(v *view.CommentsView) error) error {
	sightingID, err := app.ParseID(args[0])
	if err != nil {
		return err
	}
	return app.Run(cmd, settings, func(ctx context.Context, a *app.App) error {
		v := view.NewComments(a.Deps(), model.CommentableSighting, sightingID)
		defer v.Close()
		if err := v.Mount(ctx); err != nil {
			return err
		}
		return fn(v)
	})
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list <sighting-id>",
		Short: "List the comments of a sighting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComments(cmd, settings, args, func(v *view.CommentsView) error {
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}
}

func postCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "post <sighting-id> <text>...",
		Short: "Comment on a sighting",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComments(cmd, settings, args, func(v *view.CommentsView) error {
				if _, err := v.Post(strings.Join(args[1:], " ")); err != nil {
					return app.Failure(v.Error(), err)
				}
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}
}

func replyCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "reply <sighting-id> <comment-id> <text>...",
		Short: "Reply to a comment",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := app.ParseID(args[1])
			if err != nil {
				return err
			}
			return withComments(cmd, settings, args, func(v *view.CommentsView) error {
				if err := v.ExpandReplies(parentID); err != nil {
					return app.Failure(v.Error(), err)
				}
				if _, err := v.Reply(parentID, strings.Join(args[2:], " ")); err != nil {
					return app.Failure(v.Error(), err)
				}
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}
}

func repliesCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "replies <sighting-id> <comment-id>",
		Short: "Show the replies of a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := app.ParseID(args[1])
			if err != nil {
				return err
			}
			return withComments(cmd, settings, args, func(v *view.CommentsView) error {
				if err := v.ExpandReplies(parentID); err != nil {
					return app.Failure(v.Error(), err)
				}
				app.Print(cmd.OutOrStdout(), v.Render())
				return nil
			})
		},
	}
}

func deleteCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <sighting-id> <comment-id>",
		Short: "Delete your comment or reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			commentID, err := app.ParseID(args[1])
			if err != nil {
				return err
			}
			return withComments(cmd, settings, args, func(v *view.CommentsView) error {
				// replies are only found once their thread is loaded
				if err := deleteWithReplies(v, commentID); err != nil {
					return app.Failure(v.Error(), err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment #%d\n", commentID)
				return nil
			})
		},
	}
}

func deleteWithReplies(v *view.CommentsView, commentID int) error {
	for _, c := range v.Comments() {
		if c.ID == commentID {
			return v.Delete(commentID)
		}
		if err := v.ExpandReplies(c.ID); err != nil {
			return err
		}
		for _, r := range v.Replies(c.ID) {
			if r.ID == commentID {
				return v.Delete(commentID)
			}
		}
	}
	return v.Delete(commentID)
}
