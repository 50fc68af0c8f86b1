package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hedeqiang/poapmint/retry"
)

func TestHTTPCallSendsHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/action/claim-qr" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer header, got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("missing request id")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		b, _ := io.ReadAll(r.Body)
		var in map[string]string
		_ = json.Unmarshal(b, &in)
		if in["qr_hash"] != "abc" {
			t.Errorf("unexpected body %s", b)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL+"/",
		WithHeader("X-API-Key", "key"),
		WithHeaderFunc(func(_ context.Context, hdr http.Header) error {
			hdr.Set("Authorization", "Bearer tok")
			return nil
		}),
	)

	body, err := h.Call(context.Background(), http.MethodPost, "/action/claim-qr", map[string]string{"qr_hash": "abc"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestHTTPStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.Error(w, "nope", http.StatusNotFound)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL)

	_, err := h.Call(context.Background(), http.MethodGet, "/missing", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	_, err = h.Call(context.Background(), http.MethodGet, "/broken", nil)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError || !se.Temporary() {
		t.Fatalf("expected temporary 500 StatusError got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("500 must not match ErrNotFound")
	}
}

func TestHTTPHeaderFuncError(t *testing.T) {
	denied := errors.New("denied")
	h := NewHTTP("http://127.0.0.1:0", WithHeaderFunc(func(context.Context, http.Header) error { return denied }))

	_, err := h.Call(context.Background(), http.MethodGet, "/", nil)
	if !errors.Is(err, denied) {
		t.Fatalf("expected denied got %v", err)
	}
}

func TestHTTPCircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	cb := retry.NewCircuitBreaker(2, time.Hour)
	h := NewHTTP(srv.URL, WithCircuitBreaker(cb))

	for i := 0; i < 2; i++ {
		if _, err := h.Call(context.Background(), http.MethodGet, "/", nil); err == nil {
			t.Fatalf("expected error")
		}
	}
	_, err := h.Call(context.Background(), http.MethodGet, "/", nil)
	if !errors.Is(err, retry.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen got %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("open breaker must not reach the server, hits=%d", hits.Load())
	}
}

func TestHTTPQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/graphql" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req graphQLRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Variables["id"] == float64(7) {
			_, _ = w.Write([]byte(`{"data":{"poaps":[{"id":7}]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad id"},{"message":"again"}]}`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL)

	data, err := h.Query(context.Background(), "query { poaps }", map[string]any{"id": 7})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if string(data) != `{"poaps":[{"id":7}]}` {
		t.Fatalf("unexpected data %s", data)
	}

	_, err = h.Query(context.Background(), "query { poaps }", map[string]any{"id": 8})
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) || len(gqlErr.Messages) != 2 {
		t.Fatalf("expected GraphQLError with 2 messages got %v", err)
	}
}
