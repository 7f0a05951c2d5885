package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendAndParseHeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "pricecast-test" || r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing headers: %v", r.Header)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("json body without content type")
		}
		if r.URL.Query().Get("range") != "1y" {
			t.Errorf("missing query param: %s", r.URL.RawQuery)
		}
		var in map[string]int
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]int{"fh": in["fh"] * 2})
	}))
	defer srv.Close()

	c := NewClient(WithUserAgent("pricecast-test"), WithDefaultHeader("Authorization", "Bearer k"))
	var out map[string]int
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"range": {"1y"}},
		Body:        map[string]int{"fh": 7},
	}, &out)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out["fh"] != 14 {
		t.Fatalf("unexpected response %v", out)
	}
}

func TestSendAndParseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	var se *HTTPStatusError
	if !errors.As(err, &se) || !se.Retryable() || se.Body != "slow down" {
		t.Fatalf("expected retryable status error, got %v", err)
	}
	if StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", StatusCode(err))
	}
	if (&HTTPStatusError{StatusCode: http.StatusUnauthorized}).Retryable() {
		t.Fatalf("401 must not be retryable")
	}
	if StatusCode(errors.New("boom")) != 0 {
		t.Fatalf("plain errors carry no status")
	}
}

func TestSendAndParseMaxResponseBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"0123456789"}`))
	}))
	defer srv.Close()

	var out struct{ Message string }
	err := NewClient(WithMaxResponseBytes(8)).SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, &out)
	if err == nil {
		t.Fatalf("expected truncated body to fail decoding")
	}

	var raw []byte
	if err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, &raw); err != nil {
		t.Fatalf("raw read: %v", err)
	}
	if string(raw) != `{"message":"0123456789"}` {
		t.Fatalf("unexpected raw body %s", raw)
	}
}
