package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/service/workspace"
)

// WriteHandler forwards writes to the Gateway through the workspace service
type WriteHandler struct {
	deps   workspace.Deps
	logger *zap.Logger
}

func NewWriteHandler(deps workspace.Deps) *WriteHandler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &WriteHandler{deps: deps, logger: deps.Logger}
}

func (h *WriteHandler) service(c *gin.Context) (*workspace.Service, bool) {
	scope, ok := scopeFrom(c)
	if !ok {
		return nil, false
	}
	return workspace.New(scope.Gateway, scope.User, h.deps), true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

// CreateProject handles POST /projects
func (h *WriteHandler) CreateProject(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	var form workspace.ProjectForm
	if !bind(c, &form) {
		return
	}
	p, err := svc.CreateProject(c.Request.Context(), form)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdateProject handles PUT /projects/:id
func (h *WriteHandler) UpdateProject(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var form workspace.ProjectForm
	if !bind(c, &form) {
		return
	}
	p, err := svc.UpdateProject(c.Request.Context(), id, form)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProject handles DELETE /projects/:id
func (h *WriteHandler) DeleteProject(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := svc.DeleteProject(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendInvite handles POST /projects/:id/invites
func (h *WriteHandler) SendInvite(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if !bind(c, &req) {
		return
	}
	inv, err := svc.SendInvite(c.Request.Context(), id, req.Email, req.Role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// CreateTask handles POST /projects/:id/tasks
func (h *WriteHandler) CreateTask(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var form workspace.TaskForm
	if !bind(c, &form) {
		return
	}
	t, err := svc.CreateTask(c.Request.Context(), id, form)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// UpdateTask handles PUT /tasks/:id
func (h *WriteHandler) UpdateTask(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var form workspace.TaskForm
	if !bind(c, &form) {
		return
	}
	t, err := svc.UpdateTask(c.Request.Context(), id, form)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// MoveTask handles POST /tasks/:id/move {"column": "review"}
func (h *WriteHandler) MoveTask(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Column string `json:"column"`
	}
	if !bind(c, &req) {
		return
	}
	t, err := svc.MoveTask(c.Request.Context(), id, req.Column)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTask handles DELETE /tasks/:id
func (h *WriteHandler) DeleteTask(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := svc.DeleteTask(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type commentBody struct {
	Content string `json:"content"`
}

// CreateComment handles POST /tasks/:id/comments
func (h *WriteHandler) CreateComment(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentBody
	if !bind(c, &req) {
		return
	}
	cm, err := svc.CreateComment(c.Request.Context(), id, req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

// UpdateComment handles PUT /comments/:id
func (h *WriteHandler) UpdateComment(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentBody
	if !bind(c, &req) {
		return
	}
	cm, err := svc.UpdateComment(c.Request.Context(), id, req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cm)
}

// DeleteComment handles DELETE /comments/:id
func (h *WriteHandler) DeleteComment(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := svc.DeleteComment(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AcceptInvite handles POST /invites/:id/accept
func (h *WriteHandler) AcceptInvite(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := svc.AcceptInvite(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// DeclineInvite handles POST /invites/:id/decline
func (h *WriteHandler) DeclineInvite(c *gin.Context) {
	svc, ok := h.service(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := svc.DeclineInvite(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "declined"})
}
