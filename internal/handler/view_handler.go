package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/aggregator"
	"taskhub/internal/model"
	"taskhub/internal/notify"
)

// ViewHandler serves the aggregated read views
type ViewHandler struct {
	cfg      aggregator.Config
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewViewHandler(cfg aggregator.Config, notifier notify.Notifier, logger *zap.Logger) *ViewHandler {
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	return &ViewHandler{cfg: cfg, notifier: notifier, logger: logger}
}

func (h *ViewHandler) aggregator(scope *Scope) *aggregator.Aggregator {
	return aggregator.New(scope.Gateway, h.cfg, h.logger)
}

// fail reports a view that could not be built at all
func (h *ViewHandler) fail(c *gin.Context, scope *Scope, title string, err error) {
	if c.Request.Context().Err() == nil {
		h.notifier.Notify(c.Request.Context(), model.Notification{
			UserID:  scope.User.ID.String(),
			Level:   model.LevelError,
			Title:   title,
			Message: err.Error(),
		})
	}
	respondError(c, h.logger, err)
}

// Dashboard handles GET /dashboard
func (h *ViewHandler) Dashboard(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	view, err := h.aggregator(scope).Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, scope, "Failed to load dashboard data", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// MyTasks handles GET /my-tasks?status=&priority=&search=&sort=
func (h *ViewHandler) MyTasks(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	q := aggregator.TaskQuery{Search: c.Query("search"), SortBy: c.Query("sort")}
	if raw := c.Query("status"); raw != "" && raw != "all" {
		st, known := model.ParseTaskStatus(raw)
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + raw})
			return
		}
		q.Status = st
	}
	if raw := c.Query("priority"); raw != "all" {
		p, known := model.ParsePriority(raw)
		if !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority " + raw})
			return
		}
		q.Priority = p
	}
	switch q.SortBy {
	case "", aggregator.SortByDueDate, aggregator.SortByPriority, aggregator.SortByTitle:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort " + q.SortBy})
		return
	}

	view, err := h.aggregator(scope).MyTasks(c.Request.Context(), q)
	if err != nil {
		h.fail(c, scope, "Failed to load tasks", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// MyProjects handles GET /my-projects
func (h *ViewHandler) MyProjects(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	view, err := h.aggregator(scope).MyProjects(c.Request.Context())
	if err != nil {
		h.fail(c, scope, "Failed to load projects", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Project handles GET /projects/:id
func (h *ViewHandler) Project(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.aggregator(scope).ProjectDetail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, scope, "Failed to load project details", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Board handles GET /projects/:id/board
func (h *ViewHandler) Board(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.aggregator(scope).ProjectBoard(c.Request.Context(), id)
	if err != nil {
		h.fail(c, scope, "Failed to load project board", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Task handles GET /tasks/:id
func (h *ViewHandler) Task(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.aggregator(scope).TaskDetail(c.Request.Context(), id)
	if err != nil {
		h.fail(c, scope, "Failed to load task details", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Invites handles GET /invites
func (h *ViewHandler) Invites(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	view, err := h.aggregator(scope).Invites(c.Request.Context())
	if err != nil {
		h.fail(c, scope, "Failed to load invites", err)
		return
	}
	c.JSON(http.StatusOK, view)
}
