package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/voxboard/errors"
	"github.com/kbukum/voxboard/logger"
	"github.com/kbukum/voxboard/resilience"
	"github.com/kbukum/voxboard/server/middleware"
)

func newEngine(mws ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mws...)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not an error response: %v (%s)", err, rr.Body.String())
	}
	return body.Error.Code
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	r := newEngine(middleware.Recovery(logger.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/fine", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rr := do(r, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d, want 500", rr.Code)
	}
	if got := errorCode(t, rr); got != apperrors.ErrCodeInternal {
		t.Errorf("code = %s", got)
	}
	if strings.Contains(rr.Body.String(), "kaboom") {
		t.Error("panic value leaked to the client")
	}

	if rr := do(r, httptest.NewRequest(http.MethodGet, "/fine", http.NoBody)); rr.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", rr.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	r := newEngine(middleware.RequestID())
	r.GET("/", func(c *gin.Context) {
		seen = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	rr := do(r, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	got := rr.Header().Get(middleware.HeaderRequestID)
	if got == "" || got != seen {
		t.Fatalf("header %q, context %q", got, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "trace-123")
	if rr := do(r, req); rr.Header().Get(middleware.HeaderRequestID) != "trace-123" {
		t.Errorf("incoming id not preserved: %q", rr.Header().Get(middleware.HeaderRequestID))
	}

	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(middleware.HeaderRequestID, "bad id\twith spaces")
	if rr := do(r, req); rr.Header().Get(middleware.HeaderRequestID) == "bad id\twith spaces" {
		t.Error("malformed id was echoed")
	}
}

func TestAPIKey(t *testing.T) {
	cfg := middleware.APIKeyConfig{Keys: []string{"alpha-key", " beta-key "}}
	r := newEngine(middleware.APIKey(cfg, logger.NewNop()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api", func(c *gin.Context) {
		if _, ok := c.Get(middleware.ContextKeyClient); !ok {
			t.Error("client fingerprint not set")
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"probe skips auth", "/health", nil, http.StatusOK},
		{"missing key", "/api", nil, http.StatusUnauthorized},
		{"wrong key", "/api", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", "/api", map[string]string{"X-API-Key": "alpha-key"}, http.StatusOK},
		{"trimmed config key", "/api", map[string]string{"X-API-Key": "beta-key"}, http.StatusOK},
		{"bearer fallback", "/api", map[string]string{"Authorization": "Bearer alpha-key"}, http.StatusOK},
		{"basic auth ignored", "/api", map[string]string{"Authorization": "Basic alpha-key"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rr := do(r, req)
			if rr.Code != tt.want {
				t.Fatalf("code = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && errorCode(t, rr) != apperrors.ErrCodeUnauthorized {
				t.Errorf("body = %s", rr.Body.String())
			}
		})
	}
}

func TestAPIKeyEmptyAllowListRejects(t *testing.T) {
	r := newEngine(middleware.APIKey(middleware.APIKeyConfig{}, logger.NewNop()))
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api", http.NoBody)
	req.Header.Set("X-API-Key", "")
	if rr := do(r, req); rr.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", rr.Code)
	}

	cfg := middleware.APIKeyConfig{Keys: []string{" "}}
	if err := cfg.Validate(); err == nil {
		t.Error("blank-only allow-list should not validate")
	}
}

func TestRateLimitPerKey(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := resilience.NewFixedWindowLimiter(resilience.FixedWindowConfig{
		Limit: 2, Window: time.Minute, Now: func() time.Time { return now },
	})
	key := func(c *gin.Context) string { return c.GetHeader("X-Caller") }
	r := newEngine(middleware.RateLimit(limiter, key))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(caller string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.Header.Set("X-Caller", caller)
		return do(r, req)
	}

	for i := range 2 {
		if rr := call("a"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: code = %d", i, rr.Code)
		}
	}
	rr := call("a")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("code = %d, want 429", rr.Code)
	}
	if errorCode(t, rr) != apperrors.ErrCodeRateLimited {
		t.Errorf("body = %s", rr.Body.String())
	}
	if rr.Header().Get("Retry-After") == "" || rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("headers = %v", rr.Header())
	}

	if rr := call("b"); rr.Code != http.StatusOK {
		t.Errorf("other caller throttled: %d", rr.Code)
	}

	now = now.Add(time.Minute)
	if rr := call("a"); rr.Code != http.StatusOK {
		t.Errorf("new window still throttled: %d", rr.Code)
	}
}

func TestRateLimitConfig(t *testing.T) {
	var cfg middleware.RateLimitConfig
	cfg.ApplyDefaults()
	if cfg.Requests != 60 || cfg.Window != time.Minute {
		t.Errorf("defaults = %+v", cfg)
	}
	bad := middleware.RateLimitConfig{Enabled: true, Requests: -1, Window: time.Second}
	if err := bad.Validate(); err == nil {
		t.Error("negative allowance accepted")
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(middleware.GinWrap(middleware.BodySizeLimit("1KB")))
	r.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			if middleware.IsBodyTooLarge(err) {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 512)))
	if rr := do(r, small); rr.Code != http.StatusOK {
		t.Errorf("small body: code = %d", rr.Code)
	}
	big := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 4096)))
	if rr := do(r, big); rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("big body: code = %d", rr.Code)
	}
}

func TestRequestLoggerSkipsProbes(t *testing.T) {
	var sb strings.Builder
	log := logger.NewWriter(&sb, "debug")
	r := newEngine(middleware.RequestLogger(log, "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	do(r, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	if sb.Len() != 0 {
		t.Fatalf("probe was logged: %s", sb.String())
	}
	do(r, httptest.NewRequest(http.MethodGet, "/api", http.NoBody))
	if !strings.Contains(sb.String(), "request completed") || !strings.Contains(sb.String(), "warn") {
		t.Errorf("log = %s", sb.String())
	}
}
