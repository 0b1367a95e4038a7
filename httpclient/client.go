package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/voxboard/resilience"
)

// Client sends requests to one upstream. Each attempt gets its own
// deadline; Retry and the circuit breaker wrap attempts when configured.
type Client struct {
	cfg     Config
	hc      *http.Client
	breaker *resilience.CircuitBreaker
}

// New validates cfg and builds a client with a dedicated transport.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rt, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, hc: &http.Client{Transport: rt}}
	if cfg.CircuitBreaker != nil {
		c.breaker = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return c, nil
}

func newTransport(cfg Config) (*http.Transport, error) {
	rt := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &net.Dialer{Timeout: cfg.DialTimeout, KeepAlive: 30 * time.Second}
	rt.DialContext = dialer.DialContext
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	if tlsCfg != nil {
		rt.TLSClientConfig = tlsCfg
	}
	return rt, nil
}

// Do sends req. A non-2xx reply comes back as both the Response and a
// classified *Error so callers can read error bodies.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.cfg.Retry == nil {
		return c.guarded(ctx, req)
	}
	return resilience.Retry(ctx, *c.cfg.Retry, func() (*Response, error) {
		return c.guarded(ctx, req)
	})
}

// Available is false while the breaker sheds calls.
func (c *Client) Available() bool {
	return c.breaker == nil || c.breaker.Ready()
}

func (c *Client) guarded(ctx context.Context, req Request) (*Response, error) {
	if c.breaker == nil {
		return c.send(ctx, req)
	}
	var resp *Response
	err := c.breaker.Execute(func() (err error) {
		resp, err = c.send(ctx, req)
		return err
	})
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		return nil, NewConnectionError(err)
	}
	return resp, err
}

func (c *Client) send(parent context.Context, req Request) (*Response, error) {
	limit := req.Timeout
	if limit <= 0 {
		limit = c.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(parent, limit)
	defer cancel()

	hr, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	raw, err := c.hc.Do(hr)
	if err != nil {
		return nil, transportError(parent, ctx, err)
	}
	defer func() { _ = raw.Body.Close() }()

	body, err := io.ReadAll(raw.Body)
	if err != nil {
		return nil, transportError(parent, ctx, fmt.Errorf("read response body: %w", err))
	}
	resp := &Response{StatusCode: raw.StatusCode, Header: raw.Header, Body: body}
	if statusErr := ClassifyStatusCode(raw.StatusCode, body); statusErr != nil {
		return resp, statusErr
	}
	return resp, nil
}

// transportError separates a caller cancel from the per-attempt deadline.
func transportError(parent, attempt context.Context, err error) *Error {
	if stderrors.Is(parent.Err(), context.Canceled) {
		return NewCanceledError(err)
	}
	var ne net.Error
	if attempt.Err() != nil || (stderrors.As(err, &ne) && ne.Timeout()) {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, bodyType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, c.target(req.Path), body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}
	if len(req.Query) > 0 {
		q := make(url.Values, len(req.Query))
		for k, v := range req.Query {
			q.Set(k, v)
		}
		hr.URL.RawQuery = q.Encode()
	}

	for _, set := range []map[string]string{c.cfg.Headers, req.Headers} {
		for k, v := range set {
			hr.Header.Set(k, v)
		}
	}
	switch {
	case bodyType == "":
	case isMultipart(req.Body):
		// the boundary belongs to this body
		hr.Header.Set("Content-Type", bodyType)
	case hr.Header.Get("Content-Type") == "":
		hr.Header.Set("Content-Type", bodyType)
	}

	auth := c.cfg.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(hr)
	return hr, nil
}

func (c *Client) target(path string) string {
	if c.cfg.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func isMultipart(body any) bool {
	_, ok := body.(*MultipartBody)
	return ok
}

// encodeBody runs per attempt so retries resend the full payload.
func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case *MultipartBody:
		return v.encode()
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}
