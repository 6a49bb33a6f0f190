package practicum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{Endpoint: srv.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c, srv
}

func TestHomeworkStatusesRequestShape(t *testing.T) {
	t.Parallel()
	var gotAuth, gotFrom string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotFrom = r.URL.Query().Get("from_date")
		_, _ = w.Write([]byte(`{"homeworks": [], "current_date": 42}`))
	})

	payload, err := c.HomeworkStatuses(context.Background(), 1705755600)
	if err != nil {
		t.Fatalf("HomeworkStatuses error: %v", err)
	}
	if gotAuth != "OAuth test-token" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "OAuth test-token")
	}
	if gotFrom != "1705755600" {
		t.Fatalf("from_date = %q, want %q", gotFrom, "1705755600")
	}
	if string(payload) != `{"homeworks": [], "current_date": 42}` {
		t.Fatalf("payload not returned verbatim: %s", payload)
	}
}

func TestHomeworkStatusesClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		code int
		kind ErrorKind
	}{
		{name: "bad request", code: http.StatusBadRequest, kind: KindClient},
		{name: "unauthorized", code: http.StatusUnauthorized, kind: KindClient},
		{name: "not found", code: http.StatusNotFound, kind: KindClient},
		{name: "internal error", code: http.StatusInternalServerError, kind: KindServer},
		{name: "unavailable", code: http.StatusServiceUnavailable, kind: KindServer},
		{name: "no content", code: http.StatusNoContent, kind: KindUnexpectedStatus},
		{name: "out of range", code: 600, kind: KindUnexpectedStatus},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			})
			_, err := c.HomeworkStatuses(context.Background(), 0)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v", apiErr.Kind, tt.kind)
			}
			if apiErr.StatusCode != tt.code {
				t.Fatalf("status = %d, want %d", apiErr.StatusCode, tt.code)
			}
		})
	}
}

func TestHomeworkStatusesMalformedBody(t *testing.T) {
	t.Parallel()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"homeworks": [`))
	})
	_, err := c.HomeworkStatuses(context.Background(), 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Kind != KindMalformed {
		t.Fatalf("kind = %v, want %v", apiErr.Kind, KindMalformed)
	}
}

func TestHomeworkStatusesNetworkFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c, err := NewClient(Config{Endpoint: srv.URL, Token: "test-token", Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	_, err = c.HomeworkStatuses(context.Background(), 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Kind != KindNetwork {
		t.Fatalf("kind = %v, want %v", apiErr.Kind, KindNetwork)
	}
	if apiErr.StatusCode != 0 {
		t.Fatalf("status = %d, want 0", apiErr.StatusCode)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for empty token")
	}
}
