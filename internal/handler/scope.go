package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/aggregator"
	"taskhub/internal/gateway"
	"taskhub/internal/model"
	"taskhub/internal/service/workspace"
	"taskhub/internal/session"
	"taskhub/pkg/logger"
	"taskhub/pkg/util"
)

// Gateway is everything a handler may ask of the remote API on behalf of
// the viewer; *gateway.Client implements it
type Gateway interface {
	aggregator.Gateway
	workspace.Gateway
}

// AuthGateway covers the unauthenticated routes
type AuthGateway interface {
	Signup(ctx context.Context, req gateway.SignupRequest) (gateway.AuthResponse, error)
	Verify(ctx context.Context, req gateway.VerifyRequest) (gateway.AuthResponse, error)
	Login(ctx context.Context, req gateway.LoginRequest) (gateway.AuthResponse, error)
}

// SessionFactory returns the (uninitialized) session for a bearer token
type SessionFactory func(token string) *session.Session

// ScopeKey is the gin context key of the request Scope
const ScopeKey = "scope"

// Scope is what the auth middleware resolves for an authenticated request
type Scope struct {
	Gateway Gateway
	Session *session.Session
	User    model.User
}

func scopeFrom(c *gin.Context) (*Scope, bool) {
	v, ok := c.Get(ScopeKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	scope, ok := v.(*Scope)
	if !ok || scope == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	return scope, true
}

// StatusFor maps an error from the aggregator, the write service or the
// Gateway onto an HTTP status
func StatusFor(err error) int {
	var vErr *workspace.ValidationError
	var apiErr *gateway.APIError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrExpired), errors.Is(err, session.ErrNotAuthenticated), errors.Is(err, gateway.ErrNoToken):
		return http.StatusUnauthorized
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return apiErr.StatusCode
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusFor(err)

	var vErr *workspace.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(status, gin.H{"error": "invalid input", "fields": vErr.Fields})
		return
	}

	l := logger.WithTrace(c.Request.Context(), log)
	if status >= 500 {
		l.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("reason", util.ClassifyError(err)),
			zap.Error(err),
		)
	} else {
		l.Info("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}

	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && status < 500 && apiErr.Message != "" {
		c.JSON(status, gin.H{"error": apiErr.Message})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (model.ID, bool) {
	id := c.Param(name)
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + name})
		return "", false
	}
	return model.ID(id), true
}
