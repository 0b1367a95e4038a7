package rest

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/voxboard/httpclient"
)

type envelope struct {
	FormattedText string `json:"formattedText"`
	Error         *struct {
		Code string `json:"code"`
	} `json:"error,omitempty"`
}

func TestPost_DecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		_ = json.NewEncoder(w).Encode(envelope{FormattedText: "Hello."})
	}))
	defer srv.Close()

	c, err := New(httpclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := Post[envelope](context.Background(), c, "/api/v1/format", map[string]string{"transcript": "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data.FormattedText != "Hello." {
		t.Errorf("got %q", resp.Data.FormattedText)
	}
}

func TestGet_ErrorResponseStillDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":"SERVICE_UNAVAILABLE"}}`))
	}))
	defer srv.Close()

	c, _ := New(httpclient.Config{BaseURL: srv.URL})
	resp, err := Get[envelope](context.Background(), c, "/")
	if !httpclient.IsServerError(err) {
		t.Fatalf("expected server error, got %v", err)
	}
	if resp == nil || resp.Data.Error == nil || resp.Data.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("error envelope not decoded: %+v", resp)
	}
}

func TestGet_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	c, _ := New(httpclient.Config{BaseURL: srv.URL})
	_, err := Get[envelope](context.Background(), c, "/")
	var de *DecodeError
	if !stderrors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.StatusCode != http.StatusOK {
		t.Errorf("status = %d", de.StatusCode)
	}
}
