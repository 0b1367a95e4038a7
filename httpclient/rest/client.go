package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/voxboard/httpclient"
)

// Client speaks JSON over an httpclient.Client.
type Client struct {
	http *httpclient.Client
}

var jsonHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

// New builds the underlying HTTP client with JSON Accept and Content-Type
// unless cfg already sets them.
func New(cfg httpclient.Config) (*Client, error) {
	headers := make(map[string]string, len(cfg.Headers)+len(jsonHeaders))
	for k, v := range jsonHeaders {
		headers[k] = v
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	cfg.Headers = headers

	hc, err := httpclient.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// HTTP exposes the transport, e.g. for its breaker state.
func (c *Client) HTTP() *httpclient.Client { return c.http }

// RequestOption adjusts one request.
type RequestOption func(*httpclient.Request)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) RequestOption {
	return func(r *httpclient.Request) { r.Timeout = d }
}

// Response carries the decoded body.
type Response[T any] struct {
	StatusCode int
	Data       T
}

// DecodeError is a 2xx reply whose body is not the expected JSON.
type DecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rest: decode response (HTTP %d): %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func Get[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (*Response[T], error) {
	return call[T](ctx, c, httpclient.Request{Method: http.MethodGet, Path: path}, opts)
}

// Post sends body, which may be an *httpclient.MultipartBody, and decodes
// the reply into T.
func Post[T any](ctx context.Context, c *Client, path string, body any, opts ...RequestOption) (*Response[T], error) {
	return call[T](ctx, c, httpclient.Request{Method: http.MethodPost, Path: path, Body: body}, opts)
}

// call also decodes non-2xx bodies when they parse, so callers can read the
// server's error envelope next to the classified error.
func call[T any](ctx context.Context, c *Client, req httpclient.Request, opts []RequestOption) (*Response[T], error) {
	for _, opt := range opts {
		opt(&req)
	}
	resp, err := c.http.Do(ctx, req)
	if resp == nil {
		return nil, err
	}

	out := &Response[T]{StatusCode: resp.StatusCode}
	if len(resp.Body) == 0 {
		return out, err
	}
	if jsonErr := json.Unmarshal(resp.Body, &out.Data); jsonErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, &DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: jsonErr}
	}
	return out, err
}
