package util

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what the service reads from a gateway-issued JWT.
// The signature is not verified here; the gateway verifies it on every call.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseTokenClaims decodes the claims of tokenStr without verifying it.
// Opaque (non-JWT) tokens yield zero claims and no error.
func ParseTokenClaims(tokenStr string) (TokenClaims, error) {
	if strings.Count(tokenStr, ".") != 2 {
		return TokenClaims{}, nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("parse token claims: %w", err)
	}

	var out TokenClaims
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if out.Subject == "" {
		switch v := claims["user_id"].(type) {
		case float64:
			out.Subject = fmt.Sprintf("%.0f", v)
		case string:
			out.Subject = v
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

var ErrTokenExpired = errors.New("token expired")

// CheckTokenExpiry fails fast for JWTs whose exp is in the past
func CheckTokenExpiry(tokenStr string, now time.Time) error {
	claims, err := ParseTokenClaims(tokenStr)
	if err != nil {
		return err
	}
	if !claims.ExpiresAt.IsZero() && !now.Before(claims.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}

// ExtractToken returns the bearer token from the Authorization header, or ""
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
