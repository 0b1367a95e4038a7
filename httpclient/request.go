package httpclient

import (
	"net/http"
	"time"
)

// Request is one logical call. Retries rebuild the body from it for every
// attempt.
type Request struct {
	Method string
	// Path is joined to Config.BaseURL unless it is already absolute.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body is a *MultipartBody, io.Reader, []byte, string or a value to
	// encode as JSON. Readers cannot be replayed on retry.
	Body    any
	Auth    *AuthConfig
	Timeout time.Duration // per attempt; zero uses Config.Timeout
}

// Response is a fully read reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool { return r.StatusCode/100 == 2 }
