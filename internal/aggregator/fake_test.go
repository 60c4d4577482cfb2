package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"taskhub/internal/model"
)

var errUpstream = errors.New("upstream exploded")

// fakeGateway serves canned entities; any key present in fail errors out
type fakeGateway struct {
	mu sync.Mutex

	profile     model.User
	users       map[model.ID]model.User
	owned       []model.Project
	memberships []model.Membership
	projects    map[model.ID]model.Project
	members     map[model.ID][]model.Member
	tasks       map[model.ID][]model.Task
	myTasks     []model.Task
	taskByID    map[model.ID]model.Task
	comments    map[model.ID][]model.Comment
	invites     []model.Invite

	fail  map[string]bool
	calls map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		users:    map[model.ID]model.User{},
		projects: map[model.ID]model.Project{},
		members:  map[model.ID][]model.Member{},
		tasks:    map[model.ID][]model.Task{},
		taskByID: map[model.ID]model.Task{},
		comments: map[model.ID][]model.Comment{},
		fail:     map[string]bool{},
		calls:    map[string]int{},
	}
}

func (g *fakeGateway) hit(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[key]++
	if g.fail[key] {
		return fmt.Errorf("%s: %w", key, errUpstream)
	}
	return nil
}

func (g *fakeGateway) GetProfile(ctx context.Context) (model.User, error) {
	if err := g.hit("profile"); err != nil {
		return model.User{}, err
	}
	return g.profile, nil
}

func (g *fakeGateway) GetUser(ctx context.Context, id model.ID) (model.User, error) {
	if err := g.hit("user:" + id.String()); err != nil {
		return model.User{}, err
	}
	u, ok := g.users[id]
	if !ok {
		return model.User{}, errUpstream
	}
	return u, nil
}

func (g *fakeGateway) ListOwnedProjects(ctx context.Context) ([]model.Project, error) {
	if err := g.hit("owned"); err != nil {
		return nil, err
	}
	return g.owned, nil
}

func (g *fakeGateway) ListMemberships(ctx context.Context) ([]model.Membership, error) {
	if err := g.hit("memberships"); err != nil {
		return nil, err
	}
	return g.memberships, nil
}

func (g *fakeGateway) GetProject(ctx context.Context, id model.ID) (model.Project, error) {
	if err := g.hit("project:" + id.String()); err != nil {
		return model.Project{}, err
	}
	p, ok := g.projects[id]
	if !ok {
		return model.Project{}, errUpstream
	}
	return p, nil
}

func (g *fakeGateway) ListProjectMembers(ctx context.Context, id model.ID) ([]model.Member, error) {
	if err := g.hit("members:" + id.String()); err != nil {
		return nil, err
	}
	return g.members[id], nil
}

func (g *fakeGateway) ListProjectTasks(ctx context.Context, id model.ID) ([]model.Task, error) {
	if err := g.hit("tasks:" + id.String()); err != nil {
		return nil, err
	}
	return g.tasks[id], nil
}

func (g *fakeGateway) ListMyTasks(ctx context.Context) ([]model.Task, error) {
	if err := g.hit("mytasks"); err != nil {
		return nil, err
	}
	return g.myTasks, nil
}

func (g *fakeGateway) GetTask(ctx context.Context, id model.ID) (model.Task, error) {
	if err := g.hit("task:" + id.String()); err != nil {
		return model.Task{}, err
	}
	t, ok := g.taskByID[id]
	if !ok {
		return model.Task{}, errUpstream
	}
	return t, nil
}

func (g *fakeGateway) ListTaskComments(ctx context.Context, id model.ID) ([]model.Comment, error) {
	if err := g.hit("comments:" + id.String()); err != nil {
		return nil, err
	}
	return g.comments[id], nil
}

func (g *fakeGateway) ListPendingInvites(ctx context.Context) ([]model.Invite, error) {
	if err := g.hit("invites"); err != nil {
		return nil, err
	}
	return g.invites, nil
}

func task(id, project string, st model.TaskStatus) model.Task {
	return model.Task{ID: model.ID(id), Title: "task " + id, ProjectID: model.ID(project), Status: st}
}

func project(id, name string) model.Project {
	return model.Project{ID: model.ID(id), Name: name}
}

func taskIDs[T TaskLike](tasks []T) []model.ID {
	out := make([]model.ID, len(tasks))
	for i, t := range tasks {
		out[i] = t.AsTask().ID
	}
	return out
}
