// Package httpclient is the outbound HTTP layer shared by the dictation
// client and the sidecar-backed providers. It classifies every failure into
// an *Error (timeout, connection, canceled, auth, 4xx, 5xx) so callers can
// decide on retry and user messaging without inspecting net/http errors.
//
//	c, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8080",
//	    Auth:    httpclient.APIKeyAuth(key),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//	resp, err := c.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/api/v1/format", Body: req})
//
// The rest subpackage adds typed JSON helpers on top.
package httpclient
