// Package httpclient wraps outbound HTTP calls with tiered timeouts and
// bounded exponential-backoff retry. Timeout and connection failures are
// retried; HTTP error statuses and malformed bodies fail immediately.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Kind classifies an outbound call failure.
type Kind int

const (
	// KindTimeout covers connect and read deadline expirations. Recoverable:
	// callers may offer a degraded local path after retry exhaustion.
	KindTimeout Kind = iota
	// KindConnection covers refused/reset/unreachable failures.
	KindConnection
	// KindStatus is a non-2xx response. Never retried.
	KindStatus
	// KindMalformed is a response body that failed to decode. Never retried.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by Client calls.
type Error struct {
	Kind     Kind
	Attempts int
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("http call failed after %d attempt(s): status %d", e.Attempts, e.Status)
	}
	return fmt.Sprintf("http call failed after %d attempt(s) (%s): %v", e.Attempts, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a retry-exhausted timeout failure.
func IsTimeout(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindTimeout
}

// IsConnection reports whether err is a retry-exhausted connection failure.
func IsConnection(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == KindConnection
}

// Options configures a Client.
type Options struct {
	// ConnectTimeout bounds TCP dialing; ReadTimeout bounds the whole
	// exchange, sized generously to tolerate slow upstream computation.
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Attempts       int
	Backoff        []time.Duration
	Logger         *slog.Logger
}

// Client retries transient failures with exponential backoff.
type Client struct {
	http     *http.Client
	attempts int
	backoff  []time.Duration
	log      *slog.Logger
}

// New builds a retrying client. Zero-valued options get production defaults:
// 10s connect / 60s read timeouts and 3 attempts backed off 1s, 2s, 4s.
func New(opts Options) *Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff == nil {
		opts.Backoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: opts.ConnectTimeout,
		}).DialContext,
	}

	return &Client{
		http: &http.Client{
			Timeout:   opts.ReadTimeout,
			Transport: transport,
		},
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
		log:      opts.Logger,
	}
}

// GetJSON performs a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	return c.do(ctx, http.MethodGet, url, headers, "", nil, out)
}

// PostJSON marshals in, performs a POST and decodes the response into out.
// out may be nil when the response body does not matter.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, url, headers, "application/json", body, out)
}

// PostRaw posts a pre-built body (e.g. multipart) and decodes the response.
func (c *Client) PostRaw(ctx context.Context, url string, headers map[string]string, contentType string, body []byte, out any) error {
	return c.do(ctx, http.MethodPost, url, headers, contentType, body, out)
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, contentType string, body []byte, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			kind := classify(err)
			lastErr = err
			if attempt < c.attempts {
				wait := c.backoff[min(attempt-1, len(c.backoff)-1)]
				c.log.Warn("outbound call failed, retrying",
					"url", url, "attempt", attempt, "kind", kind.String(), "backoff", wait, "error", err)
				select {
				case <-time.After(wait):
					continue
				case <-ctx.Done():
					return &Error{Kind: kind, Attempts: attempt, Err: err}
				}
			}
			return &Error{Kind: kind, Attempts: attempt, Err: err}
		}

		func() {
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				lastErr = &Error{
					Kind:     KindStatus,
					Attempts: attempt,
					Status:   resp.StatusCode,
					Err:      fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet),
				}
				return
			}
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				lastErr = nil
				return
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				lastErr = &Error{Kind: KindMalformed, Attempts: attempt, Err: err}
				return
			}
			lastErr = nil
		}()
		return lastErr
	}
	return lastErr
}

func classify(err error) Kind {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindConnection
}
