package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskhub/internal/model"
)

func (a *App) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <task-id> <column>",
		Short: "Move a task to a board column (todo, inprogress, review, done)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			t, err := a.workspace(au).MoveTask(cmd.Context(), model.ID(args[0]), args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is %s\n", t.ID, t.Status)
			return nil
		},
	}
}

func (a *App) commentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <task-id> <text...>",
		Short: "Comment on a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			_, err = a.workspace(au).CreateComment(cmd.Context(), model.ID(args[0]), strings.Join(args[1:], " "))
			return err
		},
	}
}

func (a *App) invitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List pending project invites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			v, err := a.aggregator(au).Invites(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load invites: %w", err)
			}
			if v.PendingCount == 0 {
				fmt.Fprintln(a.out, "No pending invites.")
			} else {
				w := table(a.out)
				fmt.Fprintln(w, "ID\tPROJECT\tROLE\tINVITED BY\tSENT")
				for _, inv := range v.Invites {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s <%s>\t%s\n",
						inv.ID, inv.Project.Name, inv.Role, inv.InviterName, inv.InviterEmail, date(inv.CreatedAt))
				}
				w.Flush()
			}
			a.warnDegraded(v.Degraded)
			return nil
		},
	}

	respond := func(use, short string, accept bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <invite-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				au, err := a.authed(cmd.Context())
				if err != nil {
					return err
				}
				svc := a.workspace(au)
				if accept {
					return svc.AcceptInvite(cmd.Context(), model.ID(args[0]))
				}
				return svc.DeclineInvite(cmd.Context(), model.ID(args[0]))
			},
		}
	}
	cmd.AddCommand(
		respond("accept", "Accept an invite", true),
		respond("decline", "Decline an invite", false),
	)
	return cmd
}
