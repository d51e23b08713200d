// Package remote executes blueprints on a remote engine over the HTTP API.
// The caller cannot tell a remote result apart from a local one.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"blueprint/internal/engine"

	"github.com/rs/zerolog"
	"resty.dev/v3"
)

const executePath = "/api/v1/blueprints/execute"

// IdempotencyHeader lets the server return the stored result of a retried run.
const IdempotencyHeader = "Idempotency-Key"

// Error is returned for any non-2xx answer of the remote engine.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote engine answered %d", e.StatusCode)
	}
	return fmt.Sprintf("remote engine answered %d: %s", e.StatusCode, e.Message)
}

type executeRequest struct {
	Blueprint engine.Blueprint `json:"blueprint"`
	Config    engine.Config    `json:"config"`
}

type executeResponse struct {
	RunID  string        `json:"runId"`
	Result engine.Result `json:"result"`
}

type apiError struct {
	Message string `json:"message"`
}

// Client is an engine.Executor backed by a remote server.
type Client struct {
	http           *resty.Client
	idempotencyKey string
	logger         zerolog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

// WithIdempotencyKey sends key with every execution.
func WithIdempotencyKey(key string) Option {
	return func(c *Client) {
		c.idempotencyKey = key
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecuteBlueprint implements engine.Executor.
func (slf *Client) ExecuteBlueprint(ctx context.Context, bp engine.Blueprint, cfg engine.Config) (engine.Result, error) {
	res, _, err := slf.Execute(ctx, bp, cfg)
	return res, err
}

// Execute runs bp remotely and also returns the run ID assigned by the server.
func (slf *Client) Execute(ctx context.Context, bp engine.Blueprint, cfg engine.Config) (engine.Result, string, error) {
	var out executeResponse

	req := slf.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(executeRequest{Blueprint: bp, Config: cfg}).
		SetResult(&out)
	if slf.idempotencyKey != "" {
		req.SetHeader(IdempotencyHeader, slf.idempotencyKey)
	}

	resp, err := req.Post(executePath)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Remote execution request failed")
		return engine.Result{}, "", fmt.Errorf("remote execute: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		rerr := &Error{StatusCode: resp.StatusCode()}
		var body apiError
		if json.Unmarshal([]byte(resp.String()), &body) == nil {
			rerr.Message = body.Message
		}
		slf.logger.Warn().Int("status", rerr.StatusCode).Str("message", rerr.Message).Msg("Remote engine rejected execution")
		return engine.Result{}, "", rerr
	}

	slf.logger.Debug().Str("runId", out.RunID).Str("status", string(out.Result.Status)).Msg("Remote execution finished")
	return out.Result, out.RunID, nil
}

// Close releases idle connections.
func (slf *Client) Close() error {
	return slf.http.Close()
}
