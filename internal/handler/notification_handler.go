package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/notify"
)

const defaultFeedLimit = 50

type NotificationHandler struct {
	feed   notify.Feed
	marker notify.Marker
	logger *zap.Logger
}

// NewNotificationHandler takes a nil feed when no store is configured; the
// routes then answer with an empty list
func NewNotificationHandler(feed notify.Feed, marker notify.Marker, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{feed: feed, marker: marker, logger: logger}
}

// List handles GET /notifications?limit=50
func (h *NotificationHandler) List(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}

	limit := defaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = n
	}

	if h.feed == nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []any{}})
		return
	}
	items, err := h.feed.ListByUser(c.Request.Context(), scope.User.ID.String(), limit)
	if err != nil {
		h.logger.Error("Failed to list notifications", zap.String("user_id", scope.User.ID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id parameter"})
		return
	}
	if h.marker == nil {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.marker.MarkAsRead(c.Request.Context(), scope.User.ID.String(), id); err != nil {
		h.logger.Error("Failed to mark notification read", zap.Int64("notification_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification"})
		return
	}
	c.Status(http.StatusNoContent)
}
