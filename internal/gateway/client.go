package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"taskhub/pkg/circuitbreaker"
	"taskhub/pkg/logger"
	"taskhub/pkg/metrics"
	"taskhub/pkg/otel"
	"taskhub/pkg/trace"
	"taskhub/pkg/util"
)

// Config for the Gateway client
type Config struct {
	BaseURL string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// DoneLabel is the status spelling written back for finished tasks
	DoneLabel string                `yaml:"done_label"`
	Breaker   circuitbreaker.Config `yaml:"breaker"`
}

// APIError is a non-2xx answer from the Gateway
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway %s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("gateway %s: status %d: %s", e.Operation, e.StatusCode, e.Message)
}

func (e *APIError) HTTPStatus() int { return e.StatusCode }

// ErrNoToken is returned by authenticated calls on a client without a token
var ErrNoToken = errors.New("gateway: no bearer token")

// Client talks to the Gateway REST API. A Client is safe for concurrent use;
// WithToken derives per-viewer clients sharing the breaker and base transport.
type Client struct {
	baseURL   string
	timeout   time.Duration
	doneLabel string
	token     string

	base    http.RoundTripper
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid gateway url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.DoneLabel == "" {
		cfg.DoneLabel = "Completed"
	}

	base := http.DefaultTransport
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		timeout:   cfg.Timeout,
		doneLabel: cfg.DoneLabel,
		base:      base,
		http:      &http.Client{Timeout: cfg.Timeout, Transport: base},
		breaker:   circuitbreaker.New(cfg.Breaker),
		logger:    logger,
	}, nil
}

// WithToken returns a copy that authenticates every call with token
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	cp.http = &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.base,
		},
	}
	return &cp
}

// Token is the bearer token this client sends, or ""
func (c *Client) Token() string { return c.token }

// BreakerState exposes the breaker for readiness checks
func (c *Client) BreakerState() circuitbreaker.State { return c.breaker.State() }

func (c *Client) requireToken() error {
	if c.token == "" {
		return ErrNoToken
	}
	return nil
}

// do performs one Gateway call. out may be nil; a list out decodes item by
// item and a non-array body becomes an empty list.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway %s: encode request: %w", operation, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("gateway %s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}

	spanCtx, span := otel.ClientSpan(ctx, operation, req)
	req = req.WithContext(spanCtx)

	start := time.Now()
	status := 0
	err = c.breaker.Execute(func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{Operation: operation, StatusCode: resp.StatusCode, Message: errorMessage(payload)}
		}
		skipped, err := decode(payload, out)
		for _, itemErr := range skipped {
			metrics.IncrementDegradedSource(operation, "decode_error")
			logger.WithTrace(ctx, c.logger).Warn("Skipping undecodable list item",
				zap.String("operation", operation),
				zap.Error(itemErr),
			)
		}
		return err
	}, util.IsUpstreamFailure)

	label := "ok"
	if err != nil {
		label = util.ClassifyError(err)
	}
	metrics.RecordGatewayCall(operation, label, time.Since(start))
	otel.EndClientSpan(span, status, err)

	if err != nil {
		logger.WithTrace(ctx, c.logger).Warn("Gateway call failed",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", status),
			zap.String("error_type", label),
			zap.Error(err),
		)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return fmt.Errorf("gateway %s: %w", operation, err)
	}
	return nil
}

type listTarget interface {
	setFromRaw(raw []byte) (skipped []error, err error)
}

// list adapts *[]T to listTarget
type list[T any] struct{ dst *[]T }

// setFromRaw decodes item by item; an item that does not decode is skipped
// and reported, the rest of the list survives.
func (l list[T]) setFromRaw(raw []byte) ([]error, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*l.dst = []T{}
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, err
	}
	var skipped []error
	items := make([]T, 0, len(elems))
	for i, elem := range elems {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			skipped = append(skipped, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	*l.dst = items
	return skipped, nil
}

func decode(payload []byte, out any) ([]error, error) {
	if out == nil {
		return nil, nil
	}
	if lt, ok := out.(listTarget); ok {
		return lt.setFromRaw(payload)
	}
	trimmed := bytes.TrimSpace(payload)
	// write endpoints sometimes answer with a bare message
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	return nil, json.Unmarshal(trimmed, out)
}

const maxErrorMessage = 200

// errorMessage pulls "message" or "error" from a JSON error body
func errorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(payload))
	if len(msg) > maxErrorMessage {
		cut := maxErrorMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

func escape(id fmt.Stringer) string {
	return url.PathEscape(id.String())
}
