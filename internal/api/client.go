package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"evento-companion/internal/session"
)

// TokenSource supplies the bearer token and reacts to session errors.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Check(ctx context.Context, err error) error
}

// Client talks to the backend REST API.
type Client struct {
	baseURL       string
	http          *http.Client
	tokens        TokenSource
	logger        *zap.Logger
	submitTimeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSubmitTimeout sets the timeout applied to event submission.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *Client) { c.submitTimeout = d }
}

// WithRequestTimeout sets the overall timeout of every other request.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a Client for baseURL.
func NewClient(baseURL string, tokens TokenSource, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		http:          &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		tokens:        tokens,
		logger:        logger,
		submitTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	contentType := ""
	if in != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.logger.Warn("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrConnectivity, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Info("backend rejected session", zap.String("path", path))
		return c.tokens.Check(ctx, session.ErrSessionExpired)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		serverErr := &ServerError{Status: resp.StatusCode, Message: serverMessage(raw)}
		c.logger.Warn("backend rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", serverErr.Message))
		return serverErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// envelope is the {success, message} wrapper used by every backend answer.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// rejected turns a 2xx answer carrying success=false into a ServerError.
func (e envelope) rejected(status int) error {
	if e.Success != nil && !*e.Success {
		return &ServerError{Status: status, Message: e.Message}
	}
	return nil
}
