package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"taskhub/internal/handler"
	"taskhub/pkg/otel"
)

// Deps wires the router
type Deps struct {
	Auth          *handler.AuthHandler
	Views         *handler.ViewHandler
	Writes        *handler.WriteHandler
	Notifications *handler.NotificationHandler

	Sessions handler.SessionFactory
	Connect  func(token string) handler.Gateway
	// Ready reports whether the Gateway and the optional stores can serve
	Ready  func(ctx context.Context) error
	Logger *zap.Logger
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(d Deps) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), otel.GinMiddleware(), RequestLogger(d.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	r.POST("/auth/signup", d.Auth.Signup)
	r.POST("/auth/verify", d.Auth.Verify)
	r.POST("/auth/login", d.Auth.Login)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(d.Sessions, d.Connect, d.Logger))
	{
		auth.POST("/auth/logout", d.Auth.Logout)
		auth.GET("/me", d.Auth.Me)
		auth.PUT("/me", d.Auth.UpdateMe)

		auth.GET("/dashboard", d.Views.Dashboard)
		auth.GET("/my-tasks", d.Views.MyTasks)
		auth.GET("/my-projects", d.Views.MyProjects)
		auth.GET("/invites", d.Views.Invites)

		auth.POST("/projects", d.Writes.CreateProject)
		auth.GET("/projects/:id", d.Views.Project)
		auth.PUT("/projects/:id", d.Writes.UpdateProject)
		auth.DELETE("/projects/:id", d.Writes.DeleteProject)
		auth.GET("/projects/:id/board", d.Views.Board)
		auth.POST("/projects/:id/invites", d.Writes.SendInvite)
		auth.POST("/projects/:id/tasks", d.Writes.CreateTask)

		auth.GET("/tasks/:id", d.Views.Task)
		auth.PUT("/tasks/:id", d.Writes.UpdateTask)
		auth.DELETE("/tasks/:id", d.Writes.DeleteTask)
		auth.POST("/tasks/:id/move", d.Writes.MoveTask)
		auth.POST("/tasks/:id/comments", d.Writes.CreateComment)

		auth.PUT("/comments/:id", d.Writes.UpdateComment)
		auth.DELETE("/comments/:id", d.Writes.DeleteComment)

		auth.POST("/invites/:id/accept", d.Writes.AcceptInvite)
		auth.POST("/invites/:id/decline", d.Writes.DeclineInvite)

		auth.GET("/notifications", d.Notifications.List)
		auth.POST("/notifications/:id/read", d.Notifications.MarkRead)
	}

	return &Router{Engine: r}
}
