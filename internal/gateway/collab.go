package gateway

import (
	"context"
	"net/http"

	"taskhub/internal/model"
)

type CommentInput struct {
	TaskID  model.ID `json:"taskId"`
	Content string   `json:"content"`
}

type InviteInput struct {
	ProjectID    model.ID `json:"projectId"`
	InvitedEmail string   `json:"invitedEmail"`
	Role         string   `json:"role"`
}

func (c *Client) ListTaskComments(ctx context.Context, taskID model.ID) ([]model.Comment, error) {
	var out []model.Comment
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	err := c.do(ctx, "list_task_comments", http.MethodGet, "/api/comments/task/"+escape(taskID), nil, list[model.Comment]{&out})
	return out, err
}

func (c *Client) CreateComment(ctx context.Context, in CommentInput) (model.Comment, error) {
	var out model.Comment
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "create_comment", http.MethodPost, "/api/comments", in, &out)
	return out, err
}

func (c *Client) UpdateComment(ctx context.Context, id model.ID, content string) (model.Comment, error) {
	var out model.Comment
	if err := c.requireToken(); err != nil {
		return out, err
	}
	body := struct {
		Content string `json:"content"`
	}{content}
	err := c.do(ctx, "update_comment", http.MethodPut, "/api/comments/"+escape(id), body, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, id model.ID) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	return c.do(ctx, "delete_comment", http.MethodDelete, "/api/comments/"+escape(id), nil, nil)
}

func (c *Client) ListPendingInvites(ctx context.Context) ([]model.Invite, error) {
	var out []model.Invite
	if err := c.requireToken(); err != nil {
		return nil, err
	}
	err := c.do(ctx, "list_pending_invites", http.MethodGet, "/api/invites", nil, list[model.Invite]{&out})
	return out, err
}

func (c *Client) SendInvite(ctx context.Context, in InviteInput) (model.Invite, error) {
	var out model.Invite
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "send_invite", http.MethodPost, "/api/invites/send", in, &out)
	return out, err
}

func (c *Client) AcceptInvite(ctx context.Context, id model.ID) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	return c.do(ctx, "accept_invite", http.MethodPost, "/api/invites/"+escape(id)+"/accept", nil, nil)
}

func (c *Client) DeclineInvite(ctx context.Context, id model.ID) error {
	if err := c.requireToken(); err != nil {
		return err
	}
	return c.do(ctx, "decline_invite", http.MethodPost, "/api/invites/"+escape(id)+"/decline", nil, nil)
}
