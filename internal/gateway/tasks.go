package gateway

import (
	"context"
	"net/http"

	"taskhub/internal/model"
)

// TaskInput is the body of task create and update
type TaskInput struct {
	Title       string
	Description string
	Status      model.TaskStatus
	// RawStatus is written back verbatim when set; it carries a Gateway
	// spelling that has no TaskStatus
	RawStatus  string
	Priority   model.Priority
	DueDate    model.Timestamp
	ProjectID  model.ID
	AssigneeID model.ID
}

type taskWire struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Priority    model.Priority  `json:"priority,omitempty"`
	DueDate     model.Timestamp `json:"dueDate"`
	ProjectID   model.ID        `json:"projectId"`
	AssigneeID  model.ID        `json:"assigneeId,omitempty"`
}

// StatusLabel is the spelling written to the Gateway for st
func (c *Client) StatusLabel(st model.TaskStatus) string {
	if st == model.TaskDone {
		return c.doneLabel
	}
	return string(st)
}

func (c *Client) wire(in TaskInput) taskWire {
	status := c.StatusLabel(in.Status)
	if in.RawStatus != "" {
		status = in.RawStatus
	}
	return taskWire{
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		ProjectID:   in.ProjectID,
		AssigneeID:  in.AssigneeID,
	}
}

func (c *Client) ListProjectTasks(ctx context.Context, projectID model.ID) ([]model.Task, error) {
	var out []model.Task
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	err := c.do(ctx, "list_project_tasks", http.MethodGet, "/api/tasks/project/"+escape(projectID), nil, list[model.Task]{&out})
	return out, err
}

func (c *Client) ListMyTasks(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	err := c.do(ctx, "list_my_tasks", http.MethodGet, "/api/tasks/myTasks", nil, list[model.Task]{&out})
	return out, err
}

func (c *Client) GetTask(ctx context.Context, id model.ID) (model.Task, error) {
	var out model.Task
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "get_task", http.MethodGet, "/api/tasks/"+escape(id), nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, in TaskInput) (model.Task, error) {
	var out model.Task
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "create_task", http.MethodPost, "/api/tasks", c.wire(in), &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id model.ID, in TaskInput) (model.Task, error) {
	var out model.Task
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "update_task", http.MethodPut, "/api/tasks/"+escape(id), c.wire(in), &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id model.ID) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	return c.do(ctx, "delete_task", http.MethodDelete, "/api/tasks/"+escape(id), nil, nil)
}
