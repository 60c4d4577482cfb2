package gateway

import (
	"context"
	"net/http"

	"taskhub/internal/model"
)

// ProjectInput is the body of project create and update
type ProjectInput struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Status      model.ProjectStatus `json:"status"`
	Priority    model.Priority      `json:"priority"`
	StartDate   model.Timestamp     `json:"startDate"`
	DueDate     model.Timestamp     `json:"dueDate"`
	Budget      *model.Budget       `json:"budget,omitempty"`
	Client      string              `json:"client,omitempty"`
	Tags        []string            `json:"tags"`
}

func (c *Client) ListOwnedProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	err := c.do(ctx, "list_owned_projects", http.MethodGet, "/api/projects/owner", nil, list[model.Project]{&out})
	return out, err
}

func (c *Client) ListMemberships(ctx context.Context) ([]model.Membership, error) {
	var out []model.Membership
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	err := c.do(ctx, "list_memberships", http.MethodGet, "/api/members/user", nil, list[model.Membership]{&out})
	return out, err
}

func (c *Client) ListProjectMembers(ctx context.Context, projectID model.ID) ([]model.Member, error) {
	var out []model.Member
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	err := c.do(ctx, "list_project_members", http.MethodGet, "/api/members/project/"+escape(projectID), nil, list[model.Member]{&out})
	return out, err
}

func (c *Client) GetProject(ctx context.Context, id model.ID) (model.Project, error) {
	var out model.Project
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "get_project", http.MethodGet, "/api/projects/"+escape(id), nil, &out)
	return out, err
}

func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (model.Project, error) {
	var out model.Project
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "create_project", http.MethodPost, "/api/projects", in, &out)
	return out, err
}

func (c *Client) UpdateProject(ctx context.Context, id model.ID, in ProjectInput) (model.Project, error) {
	var out model.Project
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "update_project", http.MethodPut, "/api/projects/"+escape(id), in, &out)
	return out, err
}

func (c *Client) DeleteProject(ctx context.Context, id model.ID) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	return c.do(ctx, "delete_project", http.MethodDelete, "/api/projects/"+escape(id), nil, nil)
}
