package handler

import (
	"context"
	"sync"

	"taskhub/internal/gateway"
	"taskhub/internal/model"
)

// fakeGateway answers from canned data; errs[method] makes that method fail
type fakeGateway struct {
	mu sync.Mutex

	profile  model.User
	owned    []model.Project
	tasks    map[model.ID][]model.Task
	taskByID map[model.ID]model.Task
	invites  []model.Invite
	errs     map[string]error
	updated  []gateway.TaskInput
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		profile:  model.User{ID: "u1", FullName: "Ada", Email: "ada@example.com"},
		tasks:    map[model.ID][]model.Task{},
		taskByID: map[model.ID]model.Task{},
		errs:     map[string]error{},
	}
}

func (g *fakeGateway) err(method string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errs[method]
}

func (g *fakeGateway) GetProfile(context.Context) (model.User, error) {
	return g.profile, g.err("GetProfile")
}

func (g *fakeGateway) GetUser(_ context.Context, id model.ID) (model.User, error) {
	return model.User{ID: id, FullName: "User " + id.String()}, g.err("GetUser")
}

func (g *fakeGateway) ListOwnedProjects(context.Context) ([]model.Project, error) {
	if err := g.err("ListOwnedProjects"); err != nil {
		return nil, err
	}
	return g.owned, nil
}

func (g *fakeGateway) ListMemberships(context.Context) ([]model.Membership, error) {
	return nil, g.err("ListMemberships")
}

func (g *fakeGateway) GetProject(_ context.Context, id model.ID) (model.Project, error) {
	for _, p := range g.owned {
		if p.ID == id {
			return p, g.err("GetProject")
		}
	}
	return model.Project{}, &gateway.APIError{Operation: "get_project", StatusCode: 404, Message: "Project not found"}
}

func (g *fakeGateway) ListProjectMembers(context.Context, model.ID) ([]model.Member, error) {
	return []model.Member{{ID: "m1", UserID: "u1", Role: model.RoleOwner}}, g.err("ListProjectMembers")
}

func (g *fakeGateway) ListProjectTasks(_ context.Context, id model.ID) ([]model.Task, error) {
	if err := g.err("ListProjectTasks"); err != nil {
		return nil, err
	}
	return g.tasks[id], nil
}

func (g *fakeGateway) ListMyTasks(context.Context) ([]model.Task, error) {
	return nil, g.err("ListMyTasks")
}

func (g *fakeGateway) GetTask(_ context.Context, id model.ID) (model.Task, error) {
	if err := g.err("GetTask"); err != nil {
		return model.Task{}, err
	}
	t, ok := g.taskByID[id]
	if !ok {
		return model.Task{}, &gateway.APIError{Operation: "get_task", StatusCode: 404, Message: "Task not found"}
	}
	return t, nil
}

func (g *fakeGateway) ListTaskComments(context.Context, model.ID) ([]model.Comment, error) {
	return nil, g.err("ListTaskComments")
}

func (g *fakeGateway) ListPendingInvites(context.Context) ([]model.Invite, error) {
	return g.invites, g.err("ListPendingInvites")
}

func (g *fakeGateway) UpdateProfile(_ context.Context, upd gateway.ProfileUpdate) (model.User, error) {
	if err := g.err("UpdateProfile"); err != nil {
		return model.User{}, err
	}
	g.profile.FullName = upd.FullName
	return g.profile, nil
}

func (g *fakeGateway) CreateProject(_ context.Context, in gateway.ProjectInput) (model.Project, error) {
	return model.Project{ID: "p-new", Name: in.Name}, g.err("CreateProject")
}

func (g *fakeGateway) UpdateProject(_ context.Context, id model.ID, in gateway.ProjectInput) (model.Project, error) {
	return model.Project{ID: id, Name: in.Name}, g.err("UpdateProject")
}

func (g *fakeGateway) DeleteProject(context.Context, model.ID) error {
	return g.err("DeleteProject")
}

func (g *fakeGateway) CreateTask(_ context.Context, in gateway.TaskInput) (model.Task, error) {
	return model.Task{ID: "t-new", Title: in.Title, Status: in.Status}, g.err("CreateTask")
}

func (g *fakeGateway) UpdateTask(_ context.Context, id model.ID, in gateway.TaskInput) (model.Task, error) {
	g.mu.Lock()
	g.updated = append(g.updated, in)
	g.mu.Unlock()
	return model.Task{ID: id, Title: in.Title, Status: in.Status}, g.err("UpdateTask")
}

func (g *fakeGateway) DeleteTask(context.Context, model.ID) error {
	return g.err("DeleteTask")
}

func (g *fakeGateway) CreateComment(_ context.Context, in gateway.CommentInput) (model.Comment, error) {
	return model.Comment{ID: "c-new", TaskID: in.TaskID, Content: in.Content}, g.err("CreateComment")
}

func (g *fakeGateway) UpdateComment(_ context.Context, id model.ID, content string) (model.Comment, error) {
	return model.Comment{ID: id, Content: content}, g.err("UpdateComment")
}

func (g *fakeGateway) DeleteComment(context.Context, model.ID) error {
	return g.err("DeleteComment")
}

func (g *fakeGateway) SendInvite(_ context.Context, in gateway.InviteInput) (model.Invite, error) {
	return model.Invite{ID: "i-new", ProjectID: in.ProjectID, InvitedEmail: in.InvitedEmail}, g.err("SendInvite")
}

func (g *fakeGateway) AcceptInvite(context.Context, model.ID) error {
	return g.err("AcceptInvite")
}

func (g *fakeGateway) DeclineInvite(context.Context, model.ID) error {
	return g.err("DeclineInvite")
}

type fakeAuth struct {
	jwt string
	err error
}

func (a *fakeAuth) Signup(context.Context, gateway.SignupRequest) (gateway.AuthResponse, error) {
	return gateway.AuthResponse{Message: "OTP sent"}, a.err
}

func (a *fakeAuth) Verify(context.Context, gateway.VerifyRequest) (gateway.AuthResponse, error) {
	return gateway.AuthResponse{JWT: a.jwt}, a.err
}

func (a *fakeAuth) Login(context.Context, gateway.LoginRequest) (gateway.AuthResponse, error) {
	return gateway.AuthResponse{JWT: a.jwt}, a.err
}
