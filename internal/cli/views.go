package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"taskhub/internal/aggregator"
	"taskhub/internal/model"
)

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func date(ts model.Timestamp) string {
	if !ts.IsSet() {
		return orDash(ts.Raw)
	}
	return ts.Format("2006-01-02")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (a *App) warnDegraded(degraded []aggregator.SourceFailure) {
	if len(degraded) == 0 {
		return
	}
	names := make([]string, 0, len(degraded))
	for _, d := range degraded {
		if d.Key != "" {
			names = append(names, d.Source+"("+d.Key+")")
			continue
		}
		names = append(names, d.Source)
	}
	fmt.Fprintf(a.out, "\nSome data could not be loaded: %s\n", strings.Join(names, ", "))
}

func (a *App) printTasks(tasks []model.TaskView) {
	w := table(a.out)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tDUE\tPROJECT")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Status, orDash(string(t.Priority)), date(t.DueDate), t.ProjectName)
	}
	w.Flush()
}

func (a *App) printProjects(projects []model.ProjectView) {
	w := table(a.out)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tSTATUS\tPROGRESS\tDUE")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%s\n",
			p.ID, p.Name, p.Role, orDash(string(p.Status)), p.Progress, date(p.DueDate))
	}
	w.Flush()
}

func (a *App) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show projects, task statistics and upcoming deadlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.aggregator(au).Dashboard(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load dashboard data: %w", err)
			}

			s := d.Stats
			fmt.Fprintf(a.out, "Welcome back, %s\n\n", d.User.FullName)
			fmt.Fprintf(a.out, "Projects: %d (%d with deadline)   Tasks: %d   Done: %d   In review: %d   Completion: %d%%   Pending invites: %d\n\n",
				s.TotalProjects, s.ProjectsWithDeadline, s.TotalTasks, s.DoneTasks, s.InReviewTasks, s.CompletionPercentage, s.PendingInvites)

			w := table(a.out)
			fmt.Fprintln(w, "PROJECT\tROLE\tTASKS\tMEMBERS\tDUE")
			for _, p := range d.Projects {
				c := d.ProjectDetails[p.ID]
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", p.Name, p.Role, c.TaskCount, c.MemberCount, date(p.DueDate))
			}
			w.Flush()

			if len(d.Upcoming) > 0 {
				fmt.Fprintln(a.out, "\nUpcoming deadlines:")
				a.printTasks(d.Upcoming)
			}
			a.warnDegraded(d.Degraded)
			return nil
		},
	}
}

func (a *App) tasksCmd() *cobra.Command {
	var status, priority, search, sortBy string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks across all of your projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := aggregator.TaskQuery{Search: search, SortBy: sortBy}
			if status != "" && status != "all" {
				st, ok := model.ParseTaskStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				q.Status = st
			}
			if priority != "all" {
				p, ok := model.ParsePriority(priority)
				if !ok {
					return fmt.Errorf("unknown priority %q", priority)
				}
				q.Priority = p
			}

			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			v, err := a.aggregator(au).MyTasks(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("failed to load tasks: %w", err)
			}

			fmt.Fprintf(a.out, "Total: %d   Completed: %d   In progress: %d   High priority: %d\n\n",
				v.Stats.Total, v.Stats.Completed, v.Stats.InProgress, v.Stats.HighPriority)
			if len(v.Tasks) == 0 {
				fmt.Fprintln(a.out, "No tasks match.")
			} else {
				a.printTasks(v.Tasks)
			}
			a.warnDegraded(v.Degraded)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (To Do, In Progress, In Review, Done)")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority (Low, Medium, High)")
	cmd.Flags().StringVar(&search, "search", "", "match title, description or project name")
	cmd.Flags().StringVar(&sortBy, "sort", aggregator.SortByDueDate, "sort by dueDate, priority or title")
	return cmd
}

func (a *App) projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects you own or belong to",
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			v, err := a.aggregator(au).MyProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load projects: %w", err)
			}
			fmt.Fprintf(a.out, "Memberships: %d   Owned: %d   In progress: %d   High priority: %d\n\n",
				v.Stats.Total, v.Stats.Owned, v.Stats.InProgress, v.Stats.HighPriority)
			a.printProjects(v.Projects)
			a.warnDegraded(v.Degraded)
			return nil
		},
	}
}

func (a *App) boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show a project's kanban board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			b, err := a.aggregator(au).ProjectBoard(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return fmt.Errorf("failed to load project board: %w", err)
			}

			fmt.Fprintf(a.out, "%s   progress %d%%\n", b.Project.Name, b.Progress)
			for _, col := range b.Columns {
				fmt.Fprintf(a.out, "\n[%s] %d\n", col.Title, len(col.Tasks))
				w := table(a.out)
				for _, t := range col.Tasks {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.ID, t.Title, t.AssigneeName, date(t.DueDate))
				}
				w.Flush()
			}
			a.warnDegraded(b.Degraded)
			return nil
		},
	}
}

func (a *App) taskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "task <task-id>",
		Short: "Show a task with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			au, err := a.authed(cmd.Context())
			if err != nil {
				return err
			}
			d, err := a.aggregator(au).TaskDetail(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return fmt.Errorf("failed to load task details: %w", err)
			}

			t := d.Task
			fmt.Fprintf(a.out, "%s\n%s\n\n", t.Title, t.Description)
			w := table(a.out)
			fmt.Fprintf(w, "Status\t%s (%d%%)\n", t.Status, d.StatusProgress)
			fmt.Fprintf(w, "Priority\t%s\n", orDash(string(t.Priority)))
			fmt.Fprintf(w, "Due\t%s (%d days)\n", date(t.DueDate), d.DaysUntilDue)
			fmt.Fprintf(w, "Project\t%s\n", t.ProjectName)
			fmt.Fprintf(w, "Assignee\t%s\n", d.AssigneeName)
			w.Flush()

			if len(d.Comments) > 0 {
				fmt.Fprintf(a.out, "\nComments (%d):\n", len(d.Comments))
				for _, c := range d.Comments {
					fmt.Fprintf(a.out, "  %s  %s: %s\n", date(c.CreatedAt), orDash(c.AuthorName), c.Content)
				}
			}
			a.warnDegraded(d.Degraded)
			return nil
		},
	}
}
