package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/handler"
	"taskhub/internal/session"
	"taskhub/pkg/logger"
	"taskhub/pkg/metrics"
	"taskhub/pkg/trace"
	"taskhub/pkg/util"
)

// TraceMiddleware reuses the caller's X-Trace-ID or generates one
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if id := c.GetHeader(trace.HeaderName); id != "" {
			ctx = trace.WithContext(ctx, id)
		}
		ctx, id := trace.Ensure(ctx)
		c.Request = c.Request.WithContext(ctx)
		c.Header(trace.HeaderName, id)
		c.Next()
	}
}

// RequestLogger logs every request and records its latency
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(status), latency)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		l := logger.WithTrace(c.Request.Context(), log)
		if status >= http.StatusInternalServerError {
			l.Warn("HTTP request", fields...)
			return
		}
		l.Info("HTTP request", fields...)
	}
}

// AuthMiddleware resolves the bearer token into a session and stores the
// request Scope under handler.ScopeKey. A persisted session is reused; an
// unknown token starts a new one by fetching the profile.
func AuthMiddleware(sessions handler.SessionFactory, connect func(token string) handler.Gateway, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		sess := sessions(token)
		if err := sess.Init(ctx); err != nil {
			if errors.Is(err, session.ErrExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				c.Abort()
				return
			}
			logger.WithTrace(ctx, log).Warn("Failed to load session", zap.Error(err))
		}

		if !sess.IsAuthenticated() {
			if err := sess.Begin(ctx, token); err != nil {
				status := handler.StatusFor(err)
				if status >= http.StatusInternalServerError {
					logger.WithTrace(ctx, log).Error("Failed to start session", zap.Error(err))
				}
				msg := "invalid token"
				if errors.Is(err, session.ErrExpired) {
					msg = "session expired"
				} else if status >= http.StatusInternalServerError {
					msg = "gateway unavailable"
				}
				c.JSON(status, gin.H{"error": msg})
				c.Abort()
				return
			}
		}

		user, _ := sess.User()
		c.Set(handler.ScopeKey, &handler.Scope{
			Gateway: connect(token),
			Session: sess,
			User:    user,
		})
		c.Set("user_id", user.ID.String())
		c.Next()
	}
}
