package mq

import "time"

// Entities named in activity events
const (
	EntityProject = "project"
	EntityTask    = "task"
	EntityComment = "comment"
	EntityInvite  = "invite"
)

// Routing keys on the activity exchange, "<entity>.<action>"
const (
	ProjectCreated = "project.created"
	ProjectUpdated = "project.updated"
	ProjectDeleted = "project.deleted"

	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskMoved   = "task.moved"
	TaskDeleted = "task.deleted"

	CommentCreated = "comment.created"
	CommentUpdated = "comment.updated"
	CommentDeleted = "comment.deleted"

	InviteSent     = "invite.sent"
	InviteAccepted = "invite.accepted"
	InviteDeclined = "invite.declined"
)

// ActivityPayload is published after every successful write
type ActivityPayload struct {
	Actor     string    `json:"actor"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	ProjectID string    `json:"project_id,omitempty"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
	TraceID   string    `json:"trace_id,omitempty"`
}
