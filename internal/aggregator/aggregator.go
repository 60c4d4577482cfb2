package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskhub/internal/model"
	"taskhub/pkg/logger"
	"taskhub/pkg/metrics"
	"taskhub/pkg/util"
)

// Gateway is the read side of the remote API the views are built from
type Gateway interface {
	GetProfile(ctx context.Context) (model.User, error)
	GetUser(ctx context.Context, id model.ID) (model.User, error)
	ListOwnedProjects(ctx context.Context) ([]model.Project, error)
	ListMemberships(ctx context.Context) ([]model.Membership, error)
	GetProject(ctx context.Context, id model.ID) (model.Project, error)
	ListProjectMembers(ctx context.Context, projectID model.ID) ([]model.Member, error)
	ListProjectTasks(ctx context.Context, projectID model.ID) ([]model.Task, error)
	ListMyTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id model.ID) (model.Task, error)
	ListTaskComments(ctx context.Context, taskID model.ID) ([]model.Comment, error)
	ListPendingInvites(ctx context.Context) ([]model.Invite, error)
}

// ErrNoProjectSources means neither owned projects nor memberships could be loaded
var ErrNoProjectSources = errors.New("no project source available")

// Source names used in SourceFailure and metrics
const (
	SourceOwnedProjects  = "owned_projects"
	SourceMemberships    = "memberships"
	SourceProjectTasks   = "project_tasks"
	SourceMyTasks        = "my_tasks"
	SourceProjectMembers = "project_members"
	SourceMemberUser     = "member_user"
	SourceInvites        = "invites"
	SourceInviter        = "inviter"
	SourceInviteProject  = "invite_project"
	SourceTaskComments   = "task_comments"
	SourceTaskProject    = "task_project"
)

// SourceFailure records a source that degraded to an empty contribution
type SourceFailure struct {
	Source string `json:"source"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

type Config struct {
	// FanOutLimit caps concurrent Gateway calls per fan-out; 0 is unlimited
	FanOutLimit int `yaml:"fan_out_limit"`
}

// Aggregator assembles views for one viewer. It holds no state between calls.
type Aggregator struct {
	gw     Gateway
	limit  int
	logger *zap.Logger
	now    func() time.Time
}

func New(gw Gateway, cfg Config, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		gw:     gw,
		limit:  cfg.FanOutLimit,
		logger: logger,
		now:    time.Now,
	}
}

// failures collects degraded sources; only touched after joins settle
type failures []SourceFailure

func (a *Aggregator) degrade(ctx context.Context, f *failures, source, key string, err error) {
	reason := util.ClassifyError(err)
	logger.WithTrace(ctx, a.logger).Warn("Source degraded to empty result",
		zap.String("source", source),
		zap.String("key", key),
		zap.String("reason", reason),
		zap.Error(err),
	)
	metrics.IncrementDegradedSource(source, reason)
	*f = append(*f, SourceFailure{Source: source, Key: key, Reason: reason, Err: err})
}

type projectSources struct {
	owned       []model.Project
	memberships []model.Membership
	merged      []model.ProjectView
}

// loadProjects fetches both project sources concurrently. One failing source
// degrades; both failing is ErrNoProjectSources.
func (a *Aggregator) loadProjects(ctx context.Context, f *failures) (projectSources, error) {
	var (
		src                 projectSources
		ownedErr, memberErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		src.owned, ownedErr = a.gw.ListOwnedProjects(ctx)
		return nil
	})
	g.Go(func() error {
		src.memberships, memberErr = a.gw.ListMemberships(ctx)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return src, err
	}
	if ownedErr != nil && memberErr != nil {
		return src, fmt.Errorf("%w: %w", ErrNoProjectSources, errors.Join(ownedErr, memberErr))
	}
	if ownedErr != nil {
		a.degrade(ctx, f, SourceOwnedProjects, "", ownedErr)
	}
	if memberErr != nil {
		a.degrade(ctx, f, SourceMemberships, "", memberErr)
	}

	src.merged = MergeProjects(src.owned, src.memberships)
	return src, nil
}

// ProjectsResult is the merged "my projects" collection
type ProjectsResult struct {
	Projects []model.ProjectView `json:"projects"`
	Degraded []SourceFailure     `json:"degraded"`
}

func (a *Aggregator) Projects(ctx context.Context) (ProjectsResult, error) {
	var f failures
	src, err := a.loadProjects(ctx, &f)
	if err != nil {
		return ProjectsResult{}, err
	}
	return ProjectsResult{Projects: src.merged, Degraded: nonNil(f)}, nil
}

type taskSources struct {
	tasks []model.TaskView
	// perProject holds the raw task count of every project fetch that succeeded
	perProject map[model.ID]int
}

func (a *Aggregator) loadTasks(ctx context.Context, projects []model.ProjectView, f *failures) (taskSources, error) {
	ids := make([]model.ID, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	var (
		perProject []Result[model.ID, []model.Task]
		direct     []model.Task
		directErr  error
		fanErr     error
	)
	var g errgroup.Group
	g.Go(func() error {
		perProject, fanErr = FanOut(ctx, a.limit, ids, a.gw.ListProjectTasks)
		return nil
	})
	g.Go(func() error {
		direct, directErr = a.gw.ListMyTasks(ctx)
		return nil
	})
	_ = g.Wait()

	if fanErr != nil {
		return taskSources{}, fanErr
	}
	if err := ctx.Err(); err != nil {
		return taskSources{}, err
	}

	out := taskSources{perProject: make(map[model.ID]int, len(ids))}
	var all []model.Task
	for _, r := range perProject {
		if r.Err != nil {
			a.degrade(ctx, f, SourceProjectTasks, r.Key.String(), r.Err)
			continue
		}
		out.perProject[r.Key] = len(r.Value)
		all = append(all, r.Value...)
	}
	if directErr != nil {
		a.degrade(ctx, f, SourceMyTasks, "", directErr)
	} else {
		all = append(all, direct...)
	}

	out.tasks = EnrichTasks(DedupTasks(all), projects)
	return out, nil
}

// TasksResult is the deduplicated task list across all of the viewer's projects
type TasksResult struct {
	Tasks    []model.TaskView `json:"tasks"`
	Degraded []SourceFailure  `json:"degraded"`
}

// Tasks fetches every merged project's tasks plus the direct list, then
// deduplicates and enriches them
func (a *Aggregator) Tasks(ctx context.Context, projects []model.ProjectView) (TasksResult, error) {
	var f failures
	src, err := a.loadTasks(ctx, projects, &f)
	if err != nil {
		return TasksResult{}, err
	}
	return TasksResult{Tasks: src.tasks, Degraded: nonNil(f)}, nil
}

func nonNil(f failures) []SourceFailure {
	if f == nil {
		return []SourceFailure{}
	}
	return f
}
