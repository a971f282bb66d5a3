package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(attempts int) *Client {
	return New(Options{
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		Attempts:       attempts,
		Backoff:        []time.Duration{time.Millisecond},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	var out struct {
		Value string `json:"value"`
	}
	err := testClient(3).GetJSON(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer tok"}, &out)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Value != "ok" {
		t.Errorf("decoded %q", out.Value)
	}
}

func TestStatusErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := testClient(3).GetJSON(context.Background(), srv.URL, nil, &struct{}{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("error type %T", err)
	}
	if ce.Kind != KindStatus || ce.Status != http.StatusInternalServerError {
		t.Errorf("kind=%s status=%d", ce.Kind, ce.Status)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("status failure retried: %d calls", got)
	}
	if IsTimeout(err) || IsConnection(err) {
		t.Error("status error misclassified as transport failure")
	}
}

func TestMalformedBodyNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	err := testClient(3).GetJSON(context.Background(), srv.URL, nil, &struct{}{})
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindMalformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("malformed body retried: %d calls", got)
	}
}

func TestConnectionFailureExhaustsAttempts(t *testing.T) {
	// Reserve a port, then close it so every dial is refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := testClient(3).GetJSON(context.Background(), url, nil, &struct{}{})
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if ce.Kind != KindConnection {
		t.Errorf("kind = %s, want connection", ce.Kind)
	}
	if ce.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", ce.Attempts)
	}
	if !IsConnection(err) {
		t.Error("IsConnection should match")
	}
}

func TestReadTimeoutClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Options{
		ConnectTimeout: time.Second,
		ReadTimeout:    20 * time.Millisecond,
		Attempts:       2,
		Backoff:        []time.Duration{time.Millisecond},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	err := c.GetJSON(context.Background(), srv.URL, nil, &struct{}{})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout classification, got %v", err)
	}
	var ce *Error
	errors.As(err, &ce)
	if ce.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", ce.Attempts)
	}
}

func TestPostJSONRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))
	defer srv.Close()

	in := map[string]string{"q": "hola"}
	var out map[string]string
	if err := testClient(3).PostJSON(context.Background(), srv.URL, nil, in, &out); err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if out["q"] != "hola" {
		t.Errorf("echo = %v", out)
	}
}

func TestPostJSONNilOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ignored"))
	}))
	defer srv.Close()

	if err := testClient(3).PostJSON(context.Background(), srv.URL, nil, map[string]string{}, nil); err != nil {
		t.Fatalf("PostJSON with nil out failed: %v", err)
	}
}

func TestContextCancelStopsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Options{
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		Attempts:       3,
		Backoff:        []time.Duration{10 * time.Second},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := c.GetJSON(ctx, url, nil, &struct{}{})
	if err == nil {
		t.Fatal("expected error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation did not interrupt backoff, took %v", elapsed)
	}
}
