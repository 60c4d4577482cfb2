package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"

	"taskhub/pkg/circuitbreaker"
)

// statusCoder is implemented by upstream errors that carry an HTTP status
type statusCoder interface {
	HTTPStatus() int
}

// ClassifyError maps err onto a small fixed label set for logs and metric labels
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) {
		return "context_canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return "circuit_open"
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		switch code := sc.HTTPStatus(); {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return "unauthorized"
		case code == http.StatusNotFound:
			return "not_found"
		case code >= 500:
			return "upstream_error"
		default:
			return "rejected"
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return "decode_error"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network_error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return "network_error"
	}

	return "unknown_error"
}

// IsUpstreamFailure reports whether err says the gateway is unhealthy, as
// opposed to rejecting this particular request
func IsUpstreamFailure(err error) bool {
	switch ClassifyError(err) {
	case "timeout", "network_error", "upstream_error":
		return true
	default:
		return false
	}
}
