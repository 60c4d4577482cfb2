package gateway

import (
	"context"
	"net/http"

	"taskhub/internal/model"
)

type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the Gateway-issued bearer token
type AuthResponse struct {
	JWT     string `json:"jwt"`
	Message string `json:"message,omitempty"`
}

// ProfileUpdate fields left empty are not sent
type ProfileUpdate struct {
	FullName    string `json:"fullName,omitempty"`
	Email       string `json:"email,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`
	Bio         string `json:"bio,omitempty"`
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, "signup", http.MethodPost, "/auth/signup", req, &out)
	return out, err
}

func (c *Client) Verify(ctx context.Context, req VerifyRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, "verify", http.MethodPost, "/auth/verify", req, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", req, &out)
	return out, err
}

func (c *Client) GetProfile(ctx context.Context) (model.User, error) {
	var out model.User
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "get_profile", http.MethodGet, "/api/user/profile", nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, upd ProfileUpdate) (model.User, error) {
	var out model.User
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "update_profile", http.MethodPut, "/api/user/profile/update", upd, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id model.ID) (model.User, error) {
	var out model.User
	if err := c.requireToken(); err != nil {
		return out, err
	}
	err := c.do(ctx, "get_user", http.MethodGet, "/api/user/"+escape(id), nil, &out)
	return out, err
}
