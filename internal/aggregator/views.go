package aggregator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"taskhub/internal/model"
	"taskhub/pkg/rbac"
)

const (
	dashboardUpcoming = 5
	dashboardRecent   = 3
)

// ProjectCounts are the per-project figures shown on dashboard cards
type ProjectCounts struct {
	TaskCount   int `json:"taskCount"`
	MemberCount int `json:"memberCount"`
}

type DashboardStats struct {
	TotalProjects        int `json:"totalProjects"`
	ProjectsWithDeadline int `json:"projectsWithDeadline"`
	TotalTasks           int `json:"totalTasks"`
	DoneTasks            int `json:"doneTasks"`
	InReviewTasks        int `json:"inReviewTasks"`
	CompletionPercentage int `json:"completionPercentage"`
	PendingInvites       int `json:"pendingInvites"`
}

type Dashboard struct {
	User           model.User                 `json:"user"`
	Projects       []model.ProjectView        `json:"projects"`
	Tasks          []model.TaskView           `json:"tasks"`
	ProjectDetails map[model.ID]ProjectCounts `json:"projectDetails"`
	Stats          DashboardStats             `json:"stats"`
	StatusChart    []ChartPoint               `json:"statusChart"`
	PriorityChart  []ChartPoint               `json:"priorityChart"`
	Upcoming       []model.TaskView           `json:"upcoming"`
	Recent         []model.ProjectView        `json:"recent"`
	Degraded       []SourceFailure            `json:"degraded"`
}

// Dashboard needs the profile and at least one project source; everything
// else degrades
func (a *Aggregator) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		f          failures
		user       model.User
		profileErr error
		src        projectSources
		projErr    error
		invites    []model.Invite
		inviteErr  error
		projF      failures
	)

	var g errgroup.Group
	g.Go(func() error {
		user, profileErr = a.gw.GetProfile(ctx)
		return nil
	})
	g.Go(func() error {
		src, projErr = a.loadProjects(ctx, &projF)
		return nil
	})
	g.Go(func() error {
		invites, inviteErr = a.gw.ListPendingInvites(ctx)
		return nil
	})
	_ = g.Wait()

	if profileErr != nil {
		return Dashboard{}, fmt.Errorf("load profile: %w", profileErr)
	}
	if projErr != nil {
		return Dashboard{}, projErr
	}
	f = append(f, projF...)
	if inviteErr != nil {
		a.degrade(ctx, &f, SourceInvites, "", inviteErr)
		invites = nil
	}

	var (
		tasks     taskSources
		tasksErr  error
		members   []Result[model.ID, []model.Member]
		memberErr error
		taskF     failures
	)
	ids := make([]model.ID, len(src.merged))
	for i, p := range src.merged {
		ids[i] = p.ID
	}
	var stage2 errgroup.Group
	stage2.Go(func() error {
		tasks, tasksErr = a.loadTasks(ctx, src.merged, &taskF)
		return nil
	})
	stage2.Go(func() error {
		members, memberErr = FanOut(ctx, a.limit, ids, a.gw.ListProjectMembers)
		return nil
	})
	_ = stage2.Wait()

	if tasksErr != nil {
		return Dashboard{}, tasksErr
	}
	if memberErr != nil {
		return Dashboard{}, memberErr
	}
	f = append(f, taskF...)

	details := make(map[model.ID]ProjectCounts, len(ids))
	for _, id := range ids {
		details[id] = ProjectCounts{TaskCount: tasks.perProject[id]}
	}
	for _, r := range members {
		if r.Err != nil {
			a.degrade(ctx, &f, SourceProjectMembers, r.Key.String(), r.Err)
			continue
		}
		c := details[r.Key]
		c.MemberCount = len(r.Value)
		details[r.Key] = c
	}

	status := CountByStatus(tasks.tasks)
	withDeadline := 0
	for _, p := range src.merged {
		if p.DueDate.IsSet() {
			withDeadline++
		}
	}

	return Dashboard{
		User:           user,
		Projects:       src.merged,
		Tasks:          tasks.tasks,
		ProjectDetails: details,
		Stats: DashboardStats{
			TotalProjects:        len(src.merged),
			ProjectsWithDeadline: withDeadline,
			TotalTasks:           status.Total,
			DoneTasks:            status.Done,
			InReviewTasks:        status.InReview,
			CompletionPercentage: percent(status.Done, status.Total),
			PendingInvites:       len(invites),
		},
		StatusChart:   status.Chart(),
		PriorityChart: CountByPriority(tasks.tasks).Chart(),
		Upcoming:      UpcomingDeadlines(tasks.tasks, dashboardUpcoming),
		Recent:        RecentProjects(src.merged, dashboardRecent),
		Degraded:      nonNil(f),
	}, nil
}

type MyTasksStats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	InProgress   int `json:"inProgress"`
	HighPriority int `json:"highPriority"`
}

type MyTasks struct {
	User     model.User          `json:"user"`
	Projects []model.ProjectView `json:"projects"`
	// Tasks is filtered and sorted by the query; Stats cover all tasks
	Tasks    []model.TaskView `json:"tasks"`
	Stats    MyTasksStats     `json:"stats"`
	Degraded []SourceFailure  `json:"degraded"`
}

func (a *Aggregator) MyTasks(ctx context.Context, q TaskQuery) (MyTasks, error) {
	var (
		f          failures
		user       model.User
		profileErr error
		src        projectSources
		projErr    error
	)

	var g errgroup.Group
	g.Go(func() error {
		user, profileErr = a.gw.GetProfile(ctx)
		return nil
	})
	g.Go(func() error {
		src, projErr = a.loadProjects(ctx, &f)
		return nil
	})
	_ = g.Wait()

	if profileErr != nil {
		return MyTasks{}, fmt.Errorf("load profile: %w", profileErr)
	}
	if projErr != nil {
		return MyTasks{}, projErr
	}

	tasks, err := a.loadTasks(ctx, src.merged, &f)
	if err != nil {
		return MyTasks{}, err
	}

	status := CountByStatus(tasks.tasks)
	priority := CountByPriority(tasks.tasks)

	shown := FilterTasks(tasks.tasks, q)
	SortTasks(shown, q.SortBy)

	return MyTasks{
		User:     user,
		Projects: src.merged,
		Tasks:    shown,
		Stats: MyTasksStats{
			Total:        status.Total,
			Completed:    status.Done,
			InProgress:   status.InProgress,
			HighPriority: priority.High,
		},
		Degraded: nonNil(f),
	}, nil
}

type MyProjects struct {
	Memberships []model.Membership  `json:"memberships"`
	Projects    []model.ProjectView `json:"projects"`
	Stats       MembershipStats     `json:"stats"`
	Degraded    []SourceFailure     `json:"degraded"`
}

func (a *Aggregator) MyProjects(ctx context.Context) (MyProjects, error) {
	var f failures
	src, err := a.loadProjects(ctx, &f)
	if err != nil {
		return MyProjects{}, err
	}
	valid := ValidMemberships(src.memberships)
	return MyProjects{
		Memberships: valid,
		Projects:    src.merged,
		Stats:       CountMemberships(valid),
		Degraded:    nonNil(f),
	}, nil
}

type ProjectDetail struct {
	User     model.User         `json:"user"`
	Project  model.Project      `json:"project"`
	Members  []model.MemberView `json:"members"`
	Tasks    []model.TaskView   `json:"tasks"`
	Status   StatusCounts       `json:"status"`
	Progress int                `json:"progress"`
	DaysLeft int                `json:"daysLeft"`
	// IsOwner only decides which actions to offer; the Gateway authorizes
	IsOwner bool   `json:"isOwner"`
	Role    string `json:"role"`
	// Permissions are hints for which actions to offer
	Permissions []string        `json:"permissions"`
	Degraded    []SourceFailure `json:"degraded"`
}

type projectBundle struct {
	user    model.User
	project model.Project
	members []model.Member
	tasks   []model.Task
}

// loadProject fetches everything a project page needs; all four are required
func (a *Aggregator) loadProject(ctx context.Context, id model.ID) (projectBundle, error) {
	var b projectBundle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.user, err = a.gw.GetProfile(gctx)
		return wrap("load profile", err)
	})
	g.Go(func() (err error) {
		b.project, err = a.gw.GetProject(gctx, id)
		return wrap("load project", err)
	})
	g.Go(func() (err error) {
		b.members, err = a.gw.ListProjectMembers(gctx, id)
		return wrap("load members", err)
	})
	g.Go(func() (err error) {
		b.tasks, err = a.gw.ListProjectTasks(gctx, id)
		return wrap("load tasks", err)
	})
	if err := g.Wait(); err != nil {
		return projectBundle{}, err
	}
	return b, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

// enrichMembers resolves every member's user; failed lookups get sentinels
func (a *Aggregator) enrichMembers(ctx context.Context, members []model.Member, f *failures) ([]model.MemberView, error) {
	ids := make([]model.ID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	users, err := FanOut(ctx, a.limit, ids, a.gw.GetUser)
	if err != nil {
		return nil, err
	}

	out := make([]model.MemberView, len(members))
	for i, m := range members {
		v := model.MemberView{Member: m, Name: model.UnknownMemberName, Email: model.UnknownMemberEmail}
		if r := users[i]; r.Err != nil {
			a.degrade(ctx, f, SourceMemberUser, m.UserID.String(), r.Err)
		} else {
			v.Name, v.Email, v.Avatar = r.Value.FullName, r.Value.Email, r.Value.Avatar
		}
		out[i] = v
	}
	return out, nil
}

// roleOf returns the viewer's role on a project: owner, their member role, or ""
func roleOf(user model.User, members []model.Member) string {
	for _, m := range members {
		if m.UserID == user.ID {
			return m.Role
		}
	}
	return ""
}

func (a *Aggregator) ProjectDetail(ctx context.Context, id model.ID) (ProjectDetail, error) {
	b, err := a.loadProject(ctx, id)
	if err != nil {
		return ProjectDetail{}, err
	}

	var f failures
	members, err := a.enrichMembers(ctx, b.members, &f)
	if err != nil {
		return ProjectDetail{}, err
	}

	role := roleOf(b.user, b.members)
	view := model.ProjectView{Project: b.project, Role: role}
	tasks := EnrichTasks(DedupTasks(b.tasks), []model.ProjectView{view})

	return ProjectDetail{
		User:        b.user,
		Project:     b.project,
		Members:     members,
		Tasks:       tasks,
		Status:      CountByStatus(tasks),
		Progress:    ProjectProgress(tasks),
		DaysLeft:    DaysLeft(b.project.DueDate, a.now()),
		IsOwner:     role == model.RoleOwner,
		Role:        role,
		Permissions: rbac.Permissions(role),
		Degraded:    nonNil(f),
	}, nil
}

// BoardTask is a task card with its assignee resolved
type BoardTask struct {
	model.TaskView
	AssigneeName  string `json:"assigneeName"`
	AssigneeEmail string `json:"assigneeEmail,omitempty"`
}

type ProjectBoard struct {
	User        model.User          `json:"user"`
	Project     model.Project       `json:"project"`
	Members     []model.MemberView  `json:"members"`
	Columns     []Column[BoardTask] `json:"columns"`
	Progress    int                 `json:"progress"`
	IsOwner     bool                `json:"isOwner"`
	Permissions []string            `json:"permissions"`
	Degraded    []SourceFailure     `json:"degraded"`
}

func (a *Aggregator) ProjectBoard(ctx context.Context, id model.ID) (ProjectBoard, error) {
	detail, err := a.ProjectDetail(ctx, id)
	if err != nil {
		return ProjectBoard{}, err
	}

	byUser := make(map[model.ID]model.MemberView, len(detail.Members))
	for _, m := range detail.Members {
		byUser[m.UserID] = m
	}

	cards := make([]BoardTask, len(detail.Tasks))
	for i, t := range detail.Tasks {
		card := BoardTask{TaskView: t, AssigneeName: model.UnassignedName}
		if m, ok := byUser[t.AssigneeID]; ok && t.AssigneeID != "" {
			card.AssigneeName, card.AssigneeEmail = m.Name, m.Email
		} else if t.AssigneeName != "" {
			card.AssigneeName = t.AssigneeName
		}
		cards[i] = card
	}

	return ProjectBoard{
		User:        detail.User,
		Project:     detail.Project,
		Members:     detail.Members,
		Columns:     BoardColumns(cards),
		Progress:    detail.Progress,
		IsOwner:     detail.IsOwner,
		Permissions: detail.Permissions,
		Degraded:    detail.Degraded,
	}, nil
}

type TaskDetail struct {
	User           model.User         `json:"user"`
	Task           model.TaskView     `json:"task"`
	Project        *model.Project     `json:"project,omitempty"`
	Members        []model.MemberView `json:"members"`
	Comments       []model.Comment    `json:"comments"`
	AssigneeName   string             `json:"assigneeName"`
	AssigneeEmail  string             `json:"assigneeEmail,omitempty"`
	AssigneeAvatar string             `json:"assigneeAvatar,omitempty"`
	IsCreator      bool               `json:"isCreator"`
	IsAssignedToMe bool               `json:"isAssignedToMe"`
	StatusProgress int                `json:"statusProgress"`
	DaysUntilDue   int                `json:"daysUntilDue"`
	Degraded       []SourceFailure    `json:"degraded"`
}

// TaskDetail requires the task and profile; project, members and comments degrade
func (a *Aggregator) TaskDetail(ctx context.Context, id model.ID) (TaskDetail, error) {
	var (
		f           failures
		task        model.Task
		user        model.User
		comments    []model.Comment
		commentsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		task, err = a.gw.GetTask(gctx, id)
		return wrap("load task", err)
	})
	g.Go(func() (err error) {
		user, err = a.gw.GetProfile(gctx)
		return wrap("load profile", err)
	})
	g.Go(func() error {
		comments, commentsErr = a.gw.ListTaskComments(gctx, id)
		return nil
	})
	if err := g.Wait(); err != nil {
		return TaskDetail{}, err
	}
	if commentsErr != nil {
		a.degrade(ctx, &f, SourceTaskComments, id.String(), commentsErr)
		comments = []model.Comment{}
	}

	var (
		project    model.Project
		projectErr error
		members    []model.Member
		membersErr error
	)
	var refs errgroup.Group
	refs.Go(func() error {
		project, projectErr = a.gw.GetProject(ctx, task.ProjectID)
		return nil
	})
	refs.Go(func() error {
		members, membersErr = a.gw.ListProjectMembers(ctx, task.ProjectID)
		return nil
	})
	_ = refs.Wait()
	if err := ctx.Err(); err != nil {
		return TaskDetail{}, err
	}

	detail := TaskDetail{
		User:           user,
		Comments:       comments,
		Members:        []model.MemberView{},
		AssigneeName:   model.UnassignedName,
		IsCreator:      task.CreatedByID != "" && task.CreatedByID == user.ID,
		IsAssignedToMe: task.AssigneeID != "" && task.AssigneeID == user.ID,
		StatusProgress: StatusProgress(task.Status),
		DaysUntilDue:   DaysUntil(task.DueDate, a.now()),
	}

	var projects []model.ProjectView
	if projectErr != nil {
		a.degrade(ctx, &f, SourceTaskProject, task.ProjectID.String(), projectErr)
	} else {
		detail.Project = &project
		projects = []model.ProjectView{{Project: project}}
	}
	if membersErr != nil {
		a.degrade(ctx, &f, SourceProjectMembers, task.ProjectID.String(), membersErr)
	} else {
		views, err := a.enrichMembers(ctx, members, &f)
		if err != nil {
			return TaskDetail{}, err
		}
		detail.Members = views
		if len(projects) == 1 {
			projects[0].Role = roleOf(user, members)
		}
	}
	detail.Task = EnrichTasks([]model.Task{task}, projects)[0]

	if task.AssigneeID != "" {
		detail.AssigneeName = task.AssigneeName
		for _, m := range detail.Members {
			if m.UserID == task.AssigneeID {
				detail.AssigneeName, detail.AssigneeEmail, detail.AssigneeAvatar = m.Name, m.Email, m.Avatar
				break
			}
		}
		if detail.AssigneeName == "" {
			detail.AssigneeName = model.UnknownMemberName
		}
	}

	detail.Degraded = nonNil(f)
	return detail, nil
}

type Invites struct {
	Invites      []model.InviteView `json:"invites"`
	PendingCount int                `json:"pendingCount"`
	Degraded     []SourceFailure    `json:"degraded"`
}

type inviteRefs struct {
	inviter    model.User
	inviterErr error
	project    model.Project
	projectErr error
}

// Invites resolves inviter and project of every pending invite concurrently
func (a *Aggregator) Invites(ctx context.Context) (Invites, error) {
	var f failures
	invites, err := a.gw.ListPendingInvites(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return Invites{}, ctx.Err()
		}
		a.degrade(ctx, &f, SourceInvites, "", err)
		invites = nil
	}

	results, err := FanOut(ctx, a.limit, invites, func(ctx context.Context, inv model.Invite) (inviteRefs, error) {
		var refs inviteRefs
		var g errgroup.Group
		g.Go(func() error {
			refs.inviter, refs.inviterErr = a.gw.GetUser(ctx, inv.InvitedBy)
			return nil
		})
		g.Go(func() error {
			refs.project, refs.projectErr = a.gw.GetProject(ctx, inv.ProjectID)
			return nil
		})
		_ = g.Wait()
		return refs, nil
	})
	if err != nil {
		return Invites{}, err
	}

	out := make([]model.InviteView, len(results))
	pending := 0
	for i, r := range results {
		inv := r.Key
		v := model.InviteView{
			Invite:       inv,
			InviterName:  model.UnknownInviterName,
			InviterEmail: model.UnknownInviterEmail,
			Project: model.InviteProject{
				ID:          inv.ProjectID,
				Name:        model.UnknownProjectName,
				Description: model.UnavailableProject,
			},
		}
		if r.Value.inviterErr != nil {
			a.degrade(ctx, &f, SourceInviter, inv.InvitedBy.String(), r.Value.inviterErr)
		} else {
			v.InviterName = r.Value.inviter.FullName
			v.InviterEmail = r.Value.inviter.Email
			v.InviterAvatar = r.Value.inviter.Avatar
		}
		if r.Value.projectErr != nil {
			a.degrade(ctx, &f, SourceInviteProject, inv.ProjectID.String(), r.Value.projectErr)
		} else {
			v.Project.Name = r.Value.project.Name
			v.Project.Description = r.Value.project.Description
		}
		if inv.Status == "" || inv.Status == model.InvitePending {
			pending++
		}
		out[i] = v
	}

	return Invites{Invites: out, PendingCount: pending, Degraded: nonNil(f)}, nil
}
