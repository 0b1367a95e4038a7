package httpclient

import (
	"net/http/httptest"
	"testing"
)

func TestAuthConfig_Apply(t *testing.T) {
	tests := []struct {
		name   string
		auth   *AuthConfig
		header string
		want   string
	}{
		{"bearer", BearerAuth("tok"), "Authorization", "Bearer tok"},
		{"api key", APIKeyAuth("k1"), "X-API-Key", "k1"},
		{"custom header", APIKeyAuthHeader("k2", "X-Voxboard-Key"), "X-Voxboard-Key", "k2"},
		{"empty key", APIKeyAuth(""), "X-API-Key", ""},
		{"nil", nil, "Authorization", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tt.auth.apply(req)
			if got := req.Header.Get(tt.header); got != tt.want {
				t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}
