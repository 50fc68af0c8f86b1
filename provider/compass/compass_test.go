package compass

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/transport"
)

type stubGraphQL struct {
	data      string
	err       error
	query     string
	variables map[string]any
}

func (s *stubGraphQL) Query(_ context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	s.query = query
	s.variables = variables
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.data), nil
}

func (s *stubGraphQL) Close() error { return nil }

func TestRequestOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/graphql" || r.Header.Get("X-API-Key") != "key" {
			t.Errorf("unexpected request %s key=%q", r.URL.Path, r.Header.Get("X-API-Key"))
		}
		_, _ = io.WriteString(w, `{"data":{"count":3}}`)
	}))
	defer srv.Close()

	var out struct {
		Count int `json:"count"`
	}
	if err := New(srv.URL, "key").Request(context.Background(), "query { count }", nil, &out); err != nil {
		t.Fatalf("request: %v", err)
	}
	if out.Count != 3 {
		t.Fatalf("expected 3 got %d", out.Count)
	}
}

func TestRequestErrors(t *testing.T) {
	c := NewWithTransport(&stubGraphQL{err: &transport.GraphQLError{Messages: []string{"bad field", "bad arg"}}})
	err := c.Request(context.Background(), "query", nil, nil)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected RequestError got %v", err)
	}
	if reqErr.Error() != "compass: error fetching data: bad field, bad arg" {
		t.Fatalf("unexpected message %q", reqErr.Error())
	}

	boom := errors.New("boom")
	c = NewWithTransport(&stubGraphQL{err: boom})
	if err := c.Request(context.Background(), "query", nil, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error got %v", err)
	}
}

func TestGetPOAP(t *testing.T) {
	stub := &stubGraphQL{data: `{"poaps":[{
		"id":"42",
		"collector_address":"0xabc",
		"transfer_count":2,
		"minted_on":1700000000,
		"drop_id":7,
		"drop":{"image_url":"https://img","city":"Paris","country":"France","description":"d","start_date":"2023-11-14","end_date":"2023-11-15","name":"Drop"}
	}]}`}

	got, err := GetPOAP(context.Background(), NewWithTransport(stub), 42)
	if err != nil {
		t.Fatalf("get poap: %v", err)
	}
	want := &poap.POAP{
		ID:               42,
		CollectorAddress: "0xabc",
		TransferCount:    2,
		MintedOn:         time.Unix(1700000000, 0).UTC(),
		DropID:           7,
		ImageURL:         "https://img",
		City:             "Paris",
		Country:          "France",
		Description:      "d",
		StartDate:        time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2023, 11, 15, 0, 0, 0, 0, time.UTC),
		Name:             "Drop",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("poap (-want +got):\n%s", diff)
	}
	if stub.variables["id"] != int64(42) {
		t.Fatalf("unexpected variables %v", stub.variables)
	}
}

func TestGetPOAPMissing(t *testing.T) {
	got, err := GetPOAP(context.Background(), NewWithTransport(&stubGraphQL{data: `{"poaps":[]}`}), 1)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil got %v, %v", got, err)
	}
}
