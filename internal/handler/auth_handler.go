package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskhub/internal/gateway"
	"taskhub/internal/model"
	"taskhub/internal/notify"
	"taskhub/internal/service/workspace"
)

type AuthHandler struct {
	auth     AuthGateway
	sessions SessionFactory
	deps     workspace.Deps
	logger   *zap.Logger
}

func NewAuthHandler(auth AuthGateway, sessions SessionFactory, deps workspace.Deps) *AuthHandler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewLogNotifier(deps.Logger)
	}
	return &AuthHandler{auth: auth, sessions: sessions, deps: deps, logger: deps.Logger}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req gateway.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	resp, err := h.auth.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": resp.Message})
}

// Verify handles POST /auth/verify; a successful OTP check starts a session
func (h *AuthHandler) Verify(c *gin.Context) {
	var req gateway.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.OTP == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	resp, err := h.auth.Verify(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.begin(c, resp.JWT)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req gateway.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.begin(c, resp.JWT)
}

func (h *AuthHandler) begin(c *gin.Context, token string) {
	if token == "" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "gateway issued no token"})
		return
	}
	sess := h.sessions(token)
	if err := sess.Begin(c.Request.Context(), token); err != nil {
		respondError(c, h.logger, err)
		return
	}
	user, _ := sess.User()
	h.deps.Notifier.Notify(c.Request.Context(), model.Notification{
		UserID: user.ID.String(),
		Level:  model.LevelSuccess,
		Title:  "Welcome back, " + user.FullName,
	})
	c.JSON(http.StatusOK, gin.H{"jwt": token, "user": user})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	if err := scope.Session.Logout(c.Request.Context()); err != nil {
		h.logger.Warn("Failed to drop session", zap.String("user_id", scope.User.ID.String()), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /me
func (h *AuthHandler) Me(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, scope.User)
}

// UpdateMe handles PUT /me and refreshes the cached profile
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	scope, ok := scopeFrom(c)
	if !ok {
		return
	}
	var upd gateway.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	svc := workspace.New(scope.Gateway, scope.User, h.deps)
	user, err := svc.UpdateProfile(c.Request.Context(), upd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := scope.Session.Refresh(c.Request.Context()); err != nil {
		h.logger.Warn("Failed to refresh session profile", zap.Error(err))
	}
	c.JSON(http.StatusOK, user)
}
