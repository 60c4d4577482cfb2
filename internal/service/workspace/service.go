package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	mqcontracts "taskhub/contracts/mq"
	"taskhub/internal/gateway"
	"taskhub/internal/model"
	"taskhub/internal/notify"
	"taskhub/pkg/logger"
	"taskhub/pkg/metrics"
	"taskhub/pkg/trace"
)

// Gateway is the write side of the remote API
type Gateway interface {
	UpdateProfile(ctx context.Context, upd gateway.ProfileUpdate) (model.User, error)
	CreateProject(ctx context.Context, in gateway.ProjectInput) (model.Project, error)
	UpdateProject(ctx context.Context, id model.ID, in gateway.ProjectInput) (model.Project, error)
	DeleteProject(ctx context.Context, id model.ID) error
	GetTask(ctx context.Context, id model.ID) (model.Task, error)
	CreateTask(ctx context.Context, in gateway.TaskInput) (model.Task, error)
	UpdateTask(ctx context.Context, id model.ID, in gateway.TaskInput) (model.Task, error)
	DeleteTask(ctx context.Context, id model.ID) error
	CreateComment(ctx context.Context, in gateway.CommentInput) (model.Comment, error)
	UpdateComment(ctx context.Context, id model.ID, content string) (model.Comment, error)
	DeleteComment(ctx context.Context, id model.ID) error
	SendInvite(ctx context.Context, in gateway.InviteInput) (model.Invite, error)
	AcceptInvite(ctx context.Context, id model.ID) error
	DeclineInvite(ctx context.Context, id model.ID) error
}

// Publisher sends activity events; *mq.Publisher implements it
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type Deps struct {
	Publisher Publisher
	Notifier  notify.Notifier
	Logger    *zap.Logger
}

// Service performs writes on behalf of one actor. Nothing is changed locally
// before the Gateway accepts a write; every outcome becomes a notification
// and every success an activity event.
type Service struct {
	gw       Gateway
	actor    model.User
	pub      Publisher
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func New(gw Gateway, actor model.User, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(deps.Logger)
	}
	return &Service{
		gw:       gw,
		actor:    actor,
		pub:      deps.Publisher,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

var ErrInvalidColumn = errors.New("unknown board column")

type event struct {
	key       string
	entity    string
	entityID  model.ID
	projectID model.ID
}

// finish reports the outcome of a write. Validation errors are not
// notified; the caller shows them next to the form.
func (s *Service) finish(ctx context.Context, err error, success, failure string, ev event) error {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	if err != nil {
		s.notifier.Notify(ctx, model.Notification{
			UserID:  s.actor.ID.String(),
			Level:   model.LevelError,
			Title:   failure,
			Message: err.Error(),
		})
		return err
	}

	s.notifier.Notify(ctx, model.Notification{
		UserID: s.actor.ID.String(),
		Level:  model.LevelSuccess,
		Title:  success,
	})
	s.publish(ctx, ev)
	return nil
}

// publish never fails the write
func (s *Service) publish(ctx context.Context, ev event) {
	if s.pub == nil || ev.key == "" {
		return
	}
	action := ev.key[strings.LastIndexByte(ev.key, '.')+1:]
	payload := mqcontracts.ActivityPayload{
		Actor:     s.actor.ID.String(),
		Entity:    ev.entity,
		EntityID:  ev.entityID.String(),
		ProjectID: ev.projectID.String(),
		Action:    action,
		At:        s.now().UTC(),
		TraceID:   trace.FromContext(ctx),
	}
	if err := s.pub.Publish(ctx, ev.key, payload); err != nil {
		metrics.IncrementActivityEvent(ev.key, "error")
		logger.WithTrace(ctx, s.logger).Error("Failed to publish activity event",
			zap.String("routing_key", ev.key),
			zap.String("entity_id", ev.entityID.String()),
			zap.Error(err),
		)
		return
	}
	metrics.IncrementActivityEvent(ev.key, "ok")
}

func (s *Service) UpdateProfile(ctx context.Context, upd gateway.ProfileUpdate) (model.User, error) {
	user, err := s.gw.UpdateProfile(ctx, upd)
	return user, s.finish(ctx, err, "Profile updated successfully", "Failed to update profile", event{})
}

func (s *Service) CreateProject(ctx context.Context, form ProjectForm) (model.Project, error) {
	in, err := form.Input()
	if err != nil {
		return model.Project{}, err
	}
	p, err := s.gw.CreateProject(ctx, in)
	return p, s.finish(ctx, err, "Project created successfully", "Failed to create project",
		event{key: mqcontracts.ProjectCreated, entity: mqcontracts.EntityProject, entityID: p.ID, projectID: p.ID})
}

func (s *Service) UpdateProject(ctx context.Context, id model.ID, form ProjectForm) (model.Project, error) {
	in, err := form.Input()
	if err != nil {
		return model.Project{}, err
	}
	p, err := s.gw.UpdateProject(ctx, id, in)
	return p, s.finish(ctx, err, "Project updated successfully", "Failed to update project",
		event{key: mqcontracts.ProjectUpdated, entity: mqcontracts.EntityProject, entityID: id, projectID: id})
}

func (s *Service) DeleteProject(ctx context.Context, id model.ID) error {
	err := s.gw.DeleteProject(ctx, id)
	return s.finish(ctx, err, "Project deleted", "Failed to delete project",
		event{key: mqcontracts.ProjectDeleted, entity: mqcontracts.EntityProject, entityID: id, projectID: id})
}

func (s *Service) SendInvite(ctx context.Context, projectID model.ID, email, role string) (model.Invite, error) {
	errs := fieldErrors{}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		errs["invitedEmail"] = "A valid email is required"
	}
	role = strings.TrimSpace(role)
	if role == "" {
		role = "member"
	}
	if err := errs.err(); err != nil {
		return model.Invite{}, err
	}

	inv, err := s.gw.SendInvite(ctx, gateway.InviteInput{ProjectID: projectID, InvitedEmail: email, Role: role})
	return inv, s.finish(ctx, err, "Invite sent to "+email, "Failed to send invite",
		event{key: mqcontracts.InviteSent, entity: mqcontracts.EntityInvite, entityID: inv.ID, projectID: projectID})
}

func (s *Service) AcceptInvite(ctx context.Context, id model.ID) error {
	err := s.gw.AcceptInvite(ctx, id)
	return s.finish(ctx, err, "Invite accepted", "Failed to accept invite",
		event{key: mqcontracts.InviteAccepted, entity: mqcontracts.EntityInvite, entityID: id})
}

func (s *Service) DeclineInvite(ctx context.Context, id model.ID) error {
	err := s.gw.DeclineInvite(ctx, id)
	return s.finish(ctx, err, "Invite declined", "Failed to decline invite",
		event{key: mqcontracts.InviteDeclined, entity: mqcontracts.EntityInvite, entityID: id})
}

func (s *Service) CreateTask(ctx context.Context, projectID model.ID, form TaskForm) (model.Task, error) {
	in, err := form.Input(projectID, true)
	if err != nil {
		return model.Task{}, err
	}
	t, err := s.gw.CreateTask(ctx, in)
	return t, s.finish(ctx, err, "Task created successfully", "Failed to create task",
		event{key: mqcontracts.TaskCreated, entity: mqcontracts.EntityTask, entityID: t.ID, projectID: projectID})
}

// UpdateTask keeps the current project. Status and priority left empty by
// the form keep their current values, including a status spelling this
// client does not recognize.
func (s *Service) UpdateTask(ctx context.Context, id model.ID, form TaskForm) (model.Task, error) {
	current, err := s.gw.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, s.finish(ctx, err, "", "Failed to update task", event{})
	}
	in, err := form.Input(current.ProjectID, false)
	if err != nil {
		return model.Task{}, err
	}
	if in.Status == "" {
		in.Status = current.Status
		in.RawStatus = current.RawStatus
	}
	if in.Priority == model.PriorityUnset {
		in.Priority = current.Priority
	}
	t, err := s.gw.UpdateTask(ctx, id, in)
	return t, s.finish(ctx, err, "Task updated successfully", "Failed to update task",
		event{key: mqcontracts.TaskUpdated, entity: mqcontracts.EntityTask, entityID: id, projectID: current.ProjectID})
}

// MoveTask changes only the status, addressed by board column id. Moving a
// task to the column it is already in is a no-op.
func (s *Service) MoveTask(ctx context.Context, id model.ID, column string) (model.Task, error) {
	status, ok := model.StatusForColumn(column)
	if !ok {
		return model.Task{}, &ValidationError{Fields: map[string]string{"column": fmt.Sprintf("%v %q", ErrInvalidColumn, column)}}
	}

	current, err := s.gw.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, s.finish(ctx, err, "", "Failed to update task status", event{})
	}
	if current.Status == status && current.RawStatus == "" {
		return current, nil
	}

	t, err := s.gw.UpdateTask(ctx, id, gateway.TaskInput{
		Title:       current.Title,
		Description: current.Description,
		Status:      status,
		Priority:    current.Priority,
		DueDate:     current.DueDate,
		ProjectID:   current.ProjectID,
		AssigneeID:  current.AssigneeID,
	})
	return t, s.finish(ctx, err, "Task moved to "+string(status), "Failed to update task status",
		event{key: mqcontracts.TaskMoved, entity: mqcontracts.EntityTask, entityID: id, projectID: current.ProjectID})
}

func (s *Service) DeleteTask(ctx context.Context, id model.ID) error {
	err := s.gw.DeleteTask(ctx, id)
	return s.finish(ctx, err, "Task deleted", "Failed to delete task",
		event{key: mqcontracts.TaskDeleted, entity: mqcontracts.EntityTask, entityID: id})
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", &ValidationError{Fields: map[string]string{"content": "Comment cannot be empty"}}
	}
	return content, nil
}

func (s *Service) CreateComment(ctx context.Context, taskID model.ID, content string) (model.Comment, error) {
	content, err := validContent(content)
	if err != nil {
		return model.Comment{}, err
	}
	c, err := s.gw.CreateComment(ctx, gateway.CommentInput{TaskID: taskID, Content: content})
	return c, s.finish(ctx, err, "Comment added", "Failed to add comment",
		event{key: mqcontracts.CommentCreated, entity: mqcontracts.EntityComment, entityID: c.ID})
}

func (s *Service) UpdateComment(ctx context.Context, id model.ID, content string) (model.Comment, error) {
	content, err := validContent(content)
	if err != nil {
		return model.Comment{}, err
	}
	c, err := s.gw.UpdateComment(ctx, id, content)
	return c, s.finish(ctx, err, "Comment updated", "Failed to update comment",
		event{key: mqcontracts.CommentUpdated, entity: mqcontracts.EntityComment, entityID: id})
}

func (s *Service) DeleteComment(ctx context.Context, id model.ID) error {
	err := s.gw.DeleteComment(ctx, id)
	return s.finish(ctx, err, "Comment deleted", "Failed to delete comment",
		event{key: mqcontracts.CommentDeleted, entity: mqcontracts.EntityComment, entityID: id})
}
